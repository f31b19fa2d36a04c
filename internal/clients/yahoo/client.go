// Package yahoo provides a client for the Yahoo Finance chart API
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/buger/jsonparser"
	"golang.org/x/time/rate"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
)

const (
	DefaultBaseURL   = "https://query1.finance.yahoo.com"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 5 // requests per second
	DefaultUserAgent = "Mozilla/5.0 (compatible; folio)"
)

// Client fetches daily closes from the v8 chart endpoint
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

var _ interfaces.HistoryProvider = (*Client)(nil)

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithUserAgent sets the User-Agent header; the endpoint rejects empty agents.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// NewClient creates a new Yahoo chart client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:   DefaultBaseURL,
		userAgent: DefaultUserAgent,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents an API error
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Symbol     string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("yahoo chart error: %s: %s (status: %d, symbol: %s)", e.Code, e.Message, e.StatusCode, e.Symbol)
	}
	return fmt.Sprintf("yahoo chart error: %s (status: %d, symbol: %s)", e.Message, e.StatusCode, e.Symbol)
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Symbol    string `json:"symbol"`
		Currency  string `json:"currency"`
		GMTOffset int64  `json:"gmtoffset"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close []*float64 `json:"close"`
		} `json:"quote"`
	} `json:"indicators"`
}

// FetchHistory retrieves daily closes for symbol. The query is either a
// relative range ("5d", "1mo") or an inclusive date range.
func (c *Client) FetchHistory(ctx context.Context, symbol string, q models.HistoryQuery) (models.TimeSeries, error) {
	params := url.Values{}
	params.Set("interval", "1d")
	params.Set("includePrePost", "false")
	switch {
	case q.Period != "":
		params.Set("range", q.Period)
	case q.IsRange():
		end := q.End
		if end.IsZero() {
			end = q.Start
		}
		params.Set("period1", strconv.FormatInt(dayStart(q.Start).Unix(), 10))
		// period2 is exclusive
		params.Set("period2", strconv.FormatInt(dayStart(end).AddDate(0, 0, 1).Unix(), 10))
	default:
		return nil, fmt.Errorf("history query for %s has neither period nor range", symbol)
	}

	body, err := c.get(ctx, symbol, params)
	if err != nil {
		return nil, err
	}

	var resp chartResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(resp.Chart.Result) == 0 {
		return models.TimeSeries{}, nil
	}

	return toSeries(resp.Chart.Result[0]), nil
}

// get performs a rate-limited GET against the chart endpoint for symbol and
// returns the raw body.
func (c *Client) get(ctx context.Context, symbol string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	path := "/v8/finance/chart/" + url.PathEscape(symbol)
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().Str("symbol", symbol).Str("query", params.Encode()).Msg("Yahoo chart request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	// The endpoint reports unknown symbols as chart.error, with either a
	// 404 or a 200 status.
	if apiErr := chartError(body, resp.StatusCode, symbol); apiErr != nil {
		return nil, apiErr
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    truncate(string(body), 200),
			Symbol:     symbol,
		}
	}

	return body, nil
}

// chartError extracts chart.error without decoding the whole document.
func chartError(body []byte, status int, symbol string) *APIError {
	val, dataType, _, err := jsonparser.Get(body, "chart", "error")
	if err != nil || dataType != jsonparser.Object {
		return nil
	}
	code, _ := jsonparser.GetString(val, "code")
	desc, _ := jsonparser.GetString(val, "description")
	return &APIError{StatusCode: status, Code: code, Message: desc, Symbol: symbol}
}

func toSeries(r chartResult) models.TimeSeries {
	var closes []*float64
	if len(r.Indicators.Quote) > 0 {
		closes = r.Indicators.Quote[0].Close
	}

	out := make(models.TimeSeries, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		bar := models.Bar{Date: dayStart(time.Unix(ts+r.Meta.GMTOffset, 0).UTC())}
		if i < len(closes) && closes[i] != nil && *closes[i] >= 0 {
			bar.Close = models.Known(*closes[i])
		}
		out = append(out, bar)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
