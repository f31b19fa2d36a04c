package app

import (
	"context"
	"time"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
)

// startPriceScheduler re-prices the books and watchlist on a fixed interval.
// Entries still inside their TTL are served from cache, so a tick only hits
// the provider for quotes that have gone stale.
func startPriceScheduler(ctx context.Context, reports interfaces.ReportService, watchlist interfaces.WatchlistService, logger *common.Logger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info().Str("interval", interval.String()).Msg("Price scheduler: started")

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Price scheduler: stopped")
			return
		case <-ticker.C:
			refreshPrices(ctx, reports, watchlist, logger)
		}
	}
}

func refreshPrices(ctx context.Context, reports interfaces.ReportService, watchlist interfaces.WatchlistService, logger *common.Logger) {
	start := time.Now()

	report := reports.BuildReport(ctx, models.ReportOptions{})
	items := watchlist.Watchlist(ctx)

	positions, unpriced := countPriced(report)
	event := logger.Debug()
	if unpriced > 0 {
		event = logger.Warn()
	}
	event.
		Int("positions", positions).
		Int("unpriced", unpriced).
		Int("watchlist", len(items)).
		Str("elapsed", time.Since(start).String()).
		Msg("Price refresh: complete")
}
