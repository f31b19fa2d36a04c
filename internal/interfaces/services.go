package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/folio/internal/models"
)

// QuoteService serves cached prices. None of its operations fail: missing
// data is reported as Unavailable or an empty series.
type QuoteService interface {
	// RecentSeries returns the short lookback window, widened once when the
	// short window holds no valid close.
	RecentSeries(ctx context.Context, symbol string) models.TimeSeries

	// LatestClose returns the most recent valid close for a provider symbol.
	LatestClose(ctx context.Context, symbol string) models.Value

	// Quote resolves a logical symbol through its market variants.
	Quote(ctx context.Context, symbol string) models.Value

	// HistoricalSeries returns daily closes over an inclusive date range.
	HistoricalSeries(ctx context.Context, symbol string, start, end time.Time) models.TimeSeries
}

// ReportService builds the dashboard report
type ReportService interface {
	BuildReport(ctx context.Context, opts models.ReportOptions) *models.Report
	Allocation(report *models.Report) []models.Slice
}

// WatchlistService prices the configured watchlist
type WatchlistService interface {
	Watchlist(ctx context.Context) []models.WatchItem
}
