package app

import (
	"context"
	"time"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
)

// warmCache prices every book and watchlist entry once on startup so the
// first dashboard load is served from the quote cache.
func warmCache(ctx context.Context, reports interfaces.ReportService, watchlist interfaces.WatchlistService, logger *common.Logger) {
	start := time.Now()
	logger.Info().Msg("Warm cache: starting")

	report := reports.BuildReport(ctx, models.ReportOptions{})
	items := watchlist.Watchlist(ctx)

	if ctx.Err() != nil {
		logger.Warn().Err(ctx.Err()).Msg("Warm cache: interrupted")
		return
	}

	positions, unpriced := countPriced(report)
	logger.Info().
		Int("books", len(report.Books)).
		Int("positions", positions).
		Int("unpriced", unpriced).
		Int("watchlist", len(items)).
		Str("elapsed", time.Since(start).String()).
		Msg("Warm cache: complete")
}

// countPriced returns the number of positions and how many lack a price.
func countPriced(report *models.Report) (positions, unpriced int) {
	for _, b := range report.Books {
		for _, p := range b.Positions {
			positions++
			if !p.Price.IsKnown() {
				unpriced++
			}
		}
	}
	return positions, unpriced
}
