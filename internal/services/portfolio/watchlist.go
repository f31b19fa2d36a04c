package portfolio

import (
	"context"
	"sync"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
)

// WatchlistService prices the configured watchlist.
type WatchlistService struct {
	entries []common.WatchConfig
	quotes  interfaces.QuoteService
}

// NewWatchlistService creates a watchlist service.
func NewWatchlistService(entries []common.WatchConfig, quotes interfaces.QuoteService) *WatchlistService {
	return &WatchlistService{entries: entries, quotes: quotes}
}

var _ interfaces.WatchlistService = (*WatchlistService)(nil)

// Watchlist returns each entry with its last close and the change from the
// previous valid close, in configured order.
func (w *WatchlistService) Watchlist(ctx context.Context) []models.WatchItem {
	items := make([]models.WatchItem, len(w.entries))
	var wg sync.WaitGroup
	for i, e := range w.entries {
		wg.Add(1)
		go func(i int, e common.WatchConfig) {
			defer wg.Done()
			last, change := DayChange(w.quotes.RecentSeries(ctx, e.Symbol))
			items[i] = models.WatchItem{
				Symbol:       e.Symbol,
				Category:     e.Category,
				ExpenseRatio: e.ExpenseRatio,
				Description:  e.Description,
				LastClose:    last,
				DayChangePct: change,
			}
		}(i, e)
	}
	wg.Wait()
	return items
}

// DayChange returns the last valid close and its percentage change from the
// valid close before it.
func DayChange(s models.TimeSeries) (last, changePct models.Value) {
	valid := s.ValidBars()
	if len(valid) == 0 {
		return models.Unavailable, models.Unavailable
	}
	last = valid[len(valid)-1].Close
	if len(valid) < 2 {
		return last, models.Unavailable
	}
	prev, _ := valid[len(valid)-2].Close.Get()
	cur, _ := last.Get()
	if prev <= 0 {
		return last, models.Unavailable
	}
	return last, models.Known((cur - prev) / prev * 100)
}
