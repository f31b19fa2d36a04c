package portfolio

import (
	"context"
	"math"
	"time"

	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
	"github.com/bobmcallan/folio/internal/signals"
)

// PeriodReturn is the percentage change from the first to the last valid
// close. Unavailable with fewer than two closes or a non-positive start.
func PeriodReturn(s models.TimeSeries) models.Value {
	valid := s.ValidBars()
	if len(valid) < 2 {
		return models.Unavailable
	}
	first, _ := valid[0].Close.Get()
	last, _ := valid[len(valid)-1].Close.Get()
	if first <= 0 {
		return models.Unavailable
	}
	return models.Known((last/first - 1) * 100)
}

// AnnualizedReturn compounds the period return to a yearly rate. Spans
// shorter than a year report the plain period return.
func AnnualizedReturn(s models.TimeSeries) models.Value {
	valid := s.ValidBars()
	pr, ok := PeriodReturn(valid).Get()
	if !ok {
		return models.Unavailable
	}
	days := valid[len(valid)-1].Date.Sub(valid[0].Date).Hours() / 24
	return models.Known(annualise(pr/100, days) * 100)
}

func annualise(cumulative, days float64) float64 {
	if days < 365 {
		return cumulative
	}
	base := 1 + cumulative
	if base <= 0 {
		return cumulative
	}
	return math.Pow(base, 365/days) - 1
}

// History fetches the series for symbol over [start, end] and summarises it.
func History(ctx context.Context, quotes interfaces.QuoteService, symbol string, start, end time.Time) models.History {
	series := quotes.HistoricalSeries(ctx, symbol, start, end)
	return models.History{
		Symbol:           symbol,
		Start:            start.Format("2006-01-02"),
		End:              end.Format("2006-01-02"),
		Series:           series,
		PeriodReturn:     PeriodReturn(series),
		AnnualizedReturn: AnnualizedReturn(series),
		Technicals:       signals.Compute(series),
	}
}
