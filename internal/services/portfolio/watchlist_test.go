package portfolio

import (
	"context"
	"testing"
	"time"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayChange(t *testing.T) {
	day := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	s := models.TimeSeries{
		{Date: day, Close: models.Known(100)},
		{Date: day.AddDate(0, 0, 1), Close: models.Known(102)},
		{Date: day.AddDate(0, 0, 2), Close: models.Unavailable},
	}
	last, change := DayChange(s)
	assert.Equal(t, models.Known(102), last)
	assert.InDelta(t, 2.0, change.Or(-1), 1e-9)
}

func TestDayChange_SingleClose(t *testing.T) {
	last, change := DayChange(models.TimeSeries{{Date: time.Now(), Close: models.Known(5)}})
	assert.Equal(t, models.Known(5), last)
	assert.False(t, change.IsKnown())

	last, change = DayChange(nil)
	assert.False(t, last.IsKnown())
	assert.False(t, change.IsKnown())
}

func TestWatchlist_KeepsConfiguredOrder(t *testing.T) {
	day := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	quotes := &fakeQuotes{series: map[string]models.TimeSeries{
		"SGOV": {{Date: day, Close: models.Known(100.40)}, {Date: day.AddDate(0, 0, 1), Close: models.Known(100.42)}},
		"TLT":  {{Date: day, Close: models.Known(90)}, {Date: day.AddDate(0, 0, 1), Close: models.Known(88.2)}},
	}}
	svc := NewWatchlistService([]common.WatchConfig{
		{Symbol: "TLT", Category: "Long Treasury", ExpenseRatio: 0.15},
		{Symbol: "SGOV", Category: "Ultra Short", ExpenseRatio: 0.09},
		{Symbol: "BOXX", Category: "Box Spread", ExpenseRatio: 0.19},
	}, quotes)

	items := svc.Watchlist(context.Background())
	require.Len(t, items, 3)
	assert.Equal(t, "TLT", items[0].Symbol)
	assert.InDelta(t, -2.0, items[0].DayChangePct.Or(0), 1e-9)
	assert.Equal(t, "SGOV", items[1].Symbol)
	assert.Equal(t, models.Known(100.42), items[1].LastClose)
	assert.Equal(t, 0.19, items[2].ExpenseRatio)
	assert.False(t, items[2].LastClose.IsKnown())
}
