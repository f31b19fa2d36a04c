package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/models"
	"github.com/bobmcallan/folio/internal/services/portfolio"
)

// reportOptions reads the view toggles shared by the dashboard, report and
// allocation routes. hide_etf is the dashboard checkbox name.
func reportOptions(r *http.Request) models.ReportOptions {
	return models.ReportOptions{
		HideExcluded: QueryFlag(r, "hide_etf") || QueryFlag(r, "hide_excluded"),
	}
}

// historyRange reads from/to, defaulting to the year ending today.
func historyRange(r *http.Request, now time.Time) (time.Time, time.Time, error) {
	to, err := QueryDate(r, "to", now.UTC().Truncate(24*time.Hour))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	from, err := QueryDate(r, "from", to.AddDate(-1, 0, 0))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}

// requestLogger tags log lines with the request's correlation ID.
func (s *Server) requestLogger(r *http.Request) *common.Logger {
	if id := CorrelationID(r.Context()); id != "" {
		return s.logger.WithCorrelationId(id)
	}
	return s.logger
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		WriteError(w, http.StatusNotFound, "Not found")
		return
	}
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}

	ctx := r.Context()
	opts := reportOptions(r)
	page := dashboardPage{
		Version:      common.GetVersion(),
		Report:       s.app.ReportService.BuildReport(ctx, opts),
		Watchlist:    s.app.WatchlistService.Watchlist(ctx),
		HideExcluded: opts.HideExcluded,
	}
	if opts.HideExcluded {
		page.ChartQuery = "?hide_etf=1"
	}

	if err := s.pages.render(w, "dashboard.html", page); err != nil {
		s.requestLogger(r).Error().Err(err).Msg("Failed to render dashboard")
		WriteError(w, http.StatusInternalServerError, "Failed to render dashboard")
	}
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, s.app.ReportService.BuildReport(r.Context(), reportOptions(r)))
}

func (s *Server) handleAllocation(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	report := s.app.ReportService.BuildReport(r.Context(), reportOptions(r))
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"currency": report.BaseCurrency,
		"slices":   s.app.ReportService.Allocation(report),
	})
}

// handleQuote serves GET /api/quote/{symbol}. Symbols are resolved through
// market variants unless resolve=0.
func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	symbol := strings.ToUpper(PathParam(r, "/api/quote/", ""))
	if symbol == "" {
		WriteError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	q := models.Quote{Symbol: symbol}
	if v := r.URL.Query().Get("resolve"); v != "" && !common.ParseFlag(v) {
		q.Price = s.app.QuoteService.LatestClose(r.Context(), symbol)
	} else {
		q.Price = s.app.QuoteService.Quote(r.Context(), symbol)
	}
	WriteJSON(w, http.StatusOK, q)
}

// handleHistory serves GET /api/history/{symbol}?from=YYYY-MM-DD&to=YYYY-MM-DD.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	symbol := strings.ToUpper(PathParam(r, "/api/history/", ""))
	if symbol == "" {
		WriteError(w, http.StatusBadRequest, "symbol is required")
		return
	}
	from, to, err := historyRange(r, time.Now())
	if err != nil {
		WriteError(w, http.StatusBadRequest, "dates must be YYYY-MM-DD")
		return
	}
	if from.After(to) {
		WriteError(w, http.StatusBadRequest, "from must not be after to")
		return
	}
	WriteJSON(w, http.StatusOK, portfolio.History(r.Context(), s.app.QuoteService, symbol, from, to))
}

func (s *Server) handleWatchlist(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, s.app.WatchlistService.Watchlist(r.Context()))
}

func (s *Server) handleAllocationChart(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	report := s.app.ReportService.BuildReport(r.Context(), reportOptions(r))
	png, err := portfolio.RenderAllocationChart("Allocation ("+report.BaseCurrency+")", s.app.ReportService.Allocation(report))
	if err != nil {
		s.requestLogger(r).Warn().Err(err).Msg("Allocation chart unavailable")
		WriteErrorWithCode(w, http.StatusServiceUnavailable, "No priced holdings to chart", "no_data")
		return
	}
	WritePNG(w, png)
}

// handleHistoryChart serves GET /chart/history/{symbol}.png.
func (s *Server) handleHistoryChart(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	symbol := strings.ToUpper(PathParam(r, "/chart/history/", ".png"))
	if symbol == "" {
		WriteError(w, http.StatusBadRequest, "symbol is required")
		return
	}
	from, to, err := historyRange(r, time.Now())
	if err != nil || from.After(to) {
		WriteError(w, http.StatusBadRequest, "invalid date range")
		return
	}

	series := s.app.QuoteService.HistoricalSeries(r.Context(), symbol, from, to)
	png, err := portfolio.RenderHistoryChart(symbol, series)
	if err != nil {
		s.requestLogger(r).Warn().Err(err).Str("symbol", symbol).Msg("History chart unavailable")
		WriteErrorWithCode(w, http.StatusServiceUnavailable, "Not enough price history to chart", "no_data")
		return
	}
	WritePNG(w, png)
}
