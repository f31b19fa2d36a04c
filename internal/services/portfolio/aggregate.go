package portfolio

import (
	"context"
	"sort"
	"sync"

	"github.com/bobmcallan/folio/internal/models"
)

// QuoteFunc prices one position symbol.
type QuoteFunc func(ctx context.Context, symbol string) models.Value

// AggregateOptions selects the view produced by Aggregate.
type AggregateOptions struct {
	// Filter marks the selected subset. Nil selects every position and
	// leaves Aggregation.Selected unset.
	Filter    func(models.Position) bool
	Weighting models.Weighting
}

// Aggregate prices positions concurrently and derives per-position figures,
// full totals, selected totals and weights. Positions come back sorted by
// descending market value with unpriced positions last.
//
// Cost always sums every position in the set. Market value and profit of an
// unpriced position count as zero in sums but stay Unavailable on the row.
func Aggregate(ctx context.Context, positions []models.Position, quote QuoteFunc, opts AggregateOptions) models.Aggregation {
	prices := fetchPrices(ctx, positions, quote)

	rows := make([]models.PricedPosition, len(positions))
	for i, p := range positions {
		rows[i] = priced(p, prices[i])
		rows[i].Selected = opts.Filter == nil || opts.Filter(p)
	}

	full := sumRows(rows, func(models.PricedPosition) bool { return true })
	agg := models.Aggregation{Totals: full, Weighting: opts.Weighting}

	denominator := full.MarketValue
	if opts.Filter != nil {
		sel := sumRows(rows, func(r models.PricedPosition) bool { return r.Selected })
		agg.Selected = &sel
		if opts.Weighting == models.WeightBySelected {
			denominator = sel.MarketValue
		}
	}

	for i := range rows {
		rows[i].Weight = weight(rows[i], denominator, opts)
	}

	sortByMarketValue(rows)
	agg.Positions = rows
	return agg
}

// fetchPrices runs one quote per position in parallel; results keep input order.
func fetchPrices(ctx context.Context, positions []models.Position, quote QuoteFunc) []models.Value {
	prices := make([]models.Value, len(positions))
	var wg sync.WaitGroup
	for i, p := range positions {
		wg.Add(1)
		go func(i int, symbol string) {
			defer wg.Done()
			prices[i] = quote(ctx, symbol)
		}(i, p.Symbol)
	}
	wg.Wait()
	return prices
}

func priced(p models.Position, price models.Value) models.PricedPosition {
	row := models.PricedPosition{Position: p, Price: price}
	px, ok := price.Get()
	if !ok {
		row.MarketValue = models.Unavailable
		row.Profit = models.Unavailable
		row.ProfitPct = models.Unavailable
		return row
	}

	mv := px * p.Shares
	profit := mv - p.Cost()
	row.MarketValue = models.Known(mv)
	row.Profit = models.Known(profit)
	row.ProfitPct = models.Known(models.ProfitPercent(profit, p.Cost()))
	return row
}

func sumRows(rows []models.PricedPosition, include func(models.PricedPosition) bool) models.Totals {
	var t models.Totals
	for _, r := range rows {
		if !include(r) {
			continue
		}
		t.Cost += r.Cost()
		t.MarketValue += r.MarketValue.Or(0)
		t.Profit += r.Profit.Or(0)
	}
	t.ProfitPct = models.ProfitPercent(t.Profit, t.Cost)
	return t
}

// weight is Unavailable for unpriced rows and, when weighting by the
// selection, for rows outside it. A zero denominator yields 0, as does a
// priced row worth nothing.
func weight(r models.PricedPosition, denominator float64, opts AggregateOptions) models.Value {
	mv, ok := r.MarketValue.Get()
	if !ok {
		return models.Unavailable
	}
	if opts.Weighting == models.WeightBySelected && !r.Selected {
		return models.Unavailable
	}
	if denominator == 0 {
		return models.Known(0)
	}
	return models.Known(mv / denominator * 100)
}

// sortByMarketValue orders rows by descending market value. Unpriced rows
// sort as zero and after priced rows of equal value; ties keep input order.
func sortByMarketValue(rows []models.PricedPosition) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, aok := rows[i].MarketValue.Get()
		b, bok := rows[j].MarketValue.Get()
		if !aok {
			a = 0
		}
		if !bok {
			b = 0
		}
		if a != b {
			return a > b
		}
		return aok && !bok
	})
}
