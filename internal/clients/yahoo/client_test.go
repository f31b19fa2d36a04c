package yahoo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/bobmcallan/folio/internal/models"
)

const chartBody = `{
  "chart": {
    "result": [{
      "meta": {"symbol": "0050.TW", "currency": "TWD", "gmtoffset": 28800},
      "timestamp": [1717376400, 1717462800, 1717549200],
      "indicators": {"quote": [{"close": [180.5, null, 182.25]}]}
    }],
    "error": null
  }
}`

func TestFetchHistory_Period(t *testing.T) {
	var capturedPath, capturedRange, capturedUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedPath = r.URL.Path
		capturedRange = r.URL.Query().Get("range")
		capturedUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(chartBody))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL), WithUserAgent("folio-test"))
	series, err := client.FetchHistory(context.Background(), "0050.TW", models.HistoryQuery{Period: "5d"})
	if err != nil {
		t.Fatalf("FetchHistory failed: %v", err)
	}

	if capturedPath != "/v8/finance/chart/0050.TW" {
		t.Errorf("expected path /v8/finance/chart/0050.TW, got %s", capturedPath)
	}
	if capturedRange != "5d" {
		t.Errorf("expected range 5d, got %s", capturedRange)
	}
	if capturedUA != "folio-test" {
		t.Errorf("expected user agent folio-test, got %s", capturedUA)
	}
	if len(series) != 3 {
		t.Fatalf("expected 3 bars, got %d", len(series))
	}
	if series[1].Close.IsKnown() {
		t.Errorf("expected null close to be unavailable, got %v", series[1].Close)
	}
	if got := series.LatestClose(); got != models.Known(182.25) {
		t.Errorf("expected latest close 182.25, got %v", got)
	}
	// 1717376400 is 2024-06-03 01:00 UTC, 09:00 in Taipei
	want := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	if !series[0].Date.Equal(want) {
		t.Errorf("expected first date %s, got %s", want, series[0].Date)
	}
}

func TestFetchHistory_DateRange(t *testing.T) {
	var p1, p2 string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p1 = r.URL.Query().Get("period1")
		p2 = r.URL.Query().Get("period2")
		w.Write([]byte(chartBody))
	}))
	defer srv.Close()

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 15, 30, 0, 0, time.UTC)

	client := NewClient(WithBaseURL(srv.URL))
	if _, err := client.FetchHistory(context.Background(), "VOO", models.HistoryQuery{Start: start, End: end}); err != nil {
		t.Fatalf("FetchHistory failed: %v", err)
	}

	if p1 != strconv.FormatInt(start.Unix(), 10) {
		t.Errorf("expected period1 %d, got %s", start.Unix(), p1)
	}
	wantEnd := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC).Unix()
	if p2 != strconv.FormatInt(wantEnd, 10) {
		t.Errorf("expected exclusive period2 %d, got %s", wantEnd, p2)
	}
}

func TestFetchHistory_ChartErrorIsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	_, err := client.FetchHistory(context.Background(), "00687B.TWO", models.HistoryQuery{Period: "5d"})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", apiErr.StatusCode)
	}
	if apiErr.Code != "Not Found" {
		t.Errorf("expected code Not Found, got %q", apiErr.Code)
	}
	if apiErr.Symbol != "00687B.TWO" {
		t.Errorf("expected symbol 00687B.TWO, got %q", apiErr.Symbol)
	}
}

func TestFetchHistory_ServerErrorWithoutChartBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("Too Many Requests"))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	_, err := client.FetchHistory(context.Background(), "VOO", models.HistoryQuery{Period: "5d"})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("expected status 429, got %d", apiErr.StatusCode)
	}
}

func TestFetchHistory_EmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":[],"error":null}}`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	series, err := client.FetchHistory(context.Background(), "VOO", models.HistoryQuery{Period: "5d"})
	if err != nil {
		t.Fatalf("FetchHistory failed: %v", err)
	}
	if !series.Empty() {
		t.Errorf("expected empty series, got %d bars", len(series))
	}
}

func TestFetchHistory_RejectsEmptyQuery(t *testing.T) {
	client := NewClient(WithBaseURL("http://127.0.0.1:1"))
	if _, err := client.FetchHistory(context.Background(), "VOO", models.HistoryQuery{}); err == nil {
		t.Fatal("expected error for query without period or range")
	}
}

func TestFetchHistory_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	client := NewClient(WithBaseURL(srv.URL))
	if _, err := client.FetchHistory(ctx, "VOO", models.HistoryQuery{Period: "5d"}); err == nil {
		t.Fatal("expected error when context deadline passes")
	}
}
