package models

import "time"

// Position is a holding as configured: a quantity and the average price paid.
// A Position never carries a market price; prices are looked up per report.
type Position struct {
	Symbol       string  `json:"symbol" toml:"symbol"`
	Shares       float64 `json:"shares" toml:"shares"`
	CostPerShare float64 `json:"cost_per_share" toml:"cost_per_share"`
	Category     string  `json:"category,omitempty" toml:"category"`
}

// Cost returns the cost basis of the position.
func (p Position) Cost() float64 {
	return p.CostPerShare * p.Shares
}

// PricedPosition is a position joined with its latest price.
// MarketValue, Profit and ProfitPct are unavailable whenever Price is.
type PricedPosition struct {
	Position
	Price       Value `json:"price"`
	MarketValue Value `json:"market_value"`
	Profit      Value `json:"profit"`
	ProfitPct   Value `json:"profit_pct"`
	Weight      Value `json:"weight"`
	Selected    bool  `json:"selected"`
}

// Totals are aggregate figures over a set of positions, in one currency.
type Totals struct {
	MarketValue float64 `json:"market_value"`
	Cost        float64 `json:"cost"`
	Profit      float64 `json:"profit"`
	ProfitPct   float64 `json:"profit_pct"`
}

// ProfitPercent returns profit / cost * 100, or 0 when cost is zero.
func ProfitPercent(profit, cost float64) float64 {
	if cost == 0 {
		return 0
	}
	return profit / cost * 100
}

// Convert expresses the totals in another currency by a linear rate.
// The percentage is unit-free and carries over unchanged.
func (t Totals) Convert(rate float64) Totals {
	return Totals{
		MarketValue: t.MarketValue * rate,
		Cost:        t.Cost * rate,
		Profit:      t.Profit * rate,
		ProfitPct:   t.ProfitPct,
	}
}

// SumTotals adds totals already expressed in the same currency and
// recomputes the percentage from the summed amounts.
func SumTotals(parts ...Totals) Totals {
	var out Totals
	for _, p := range parts {
		out.MarketValue += p.MarketValue
		out.Cost += p.Cost
		out.Profit += p.Profit
	}
	out.ProfitPct = ProfitPercent(out.Profit, out.Cost)
	return out
}

// Weighting selects the denominator used for position weights.
type Weighting int

const (
	// WeightByTotal divides by the market value of every position.
	WeightByTotal Weighting = iota
	// WeightBySelected divides by the market value of the selected subset.
	// Positions outside the subset have no weight.
	WeightBySelected
)

// Aggregation is the priced view of one set of positions.
type Aggregation struct {
	Positions []PricedPosition `json:"positions"`
	Totals    Totals           `json:"totals"`
	Selected  *Totals          `json:"selected,omitempty"`
	Weighting Weighting        `json:"-"`
}

// BookReport is one currency sub-portfolio within a report.
type BookReport struct {
	Name      string           `json:"name"`
	Title     string           `json:"title,omitempty"`
	Currency  string           `json:"currency"`
	Positions []PricedPosition `json:"positions"`
	Totals    Totals           `json:"totals"`
	Selected  Totals           `json:"selected"`
	Base      Totals           `json:"base"`
	Rate      float64          `json:"rate"`
	Excluded  []string         `json:"excluded,omitempty"`
}

// Report is the full dashboard payload.
type Report struct {
	GeneratedAt  time.Time      `json:"generated_at"`
	BaseCurrency string         `json:"base_currency"`
	HideExcluded bool           `json:"hide_excluded"`
	Rates        []ExchangeRate `json:"rates"`
	Books        []BookReport   `json:"books"`
	Total        Totals         `json:"total"`
}

// Book looks up a book by name.
func (r *Report) Book(name string) (BookReport, bool) {
	for _, b := range r.Books {
		if b.Name == name {
			return b, true
		}
	}
	return BookReport{}, false
}

// Slice is a labelled share of the whole, used for allocation charts.
type Slice struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// ReportOptions selects the report view.
type ReportOptions struct {
	HideExcluded bool
}
