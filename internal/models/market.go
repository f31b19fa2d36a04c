package models

import "time"

// Bar is one daily observation. Close is unavailable when the provider
// returned a null close for the day.
type Bar struct {
	Date  time.Time `json:"date"`
	Close Value     `json:"close"`
}

// TimeSeries is a sequence of bars in ascending date order.
type TimeSeries []Bar

// Empty reports whether the series carries no usable close.
func (s TimeSeries) Empty() bool {
	for _, b := range s {
		if b.Close.IsKnown() {
			return false
		}
	}
	return true
}

// LatestClose returns the most recent available close.
func (s TimeSeries) LatestClose() Value {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i].Close.IsKnown() {
			return s[i].Close
		}
	}
	return Unavailable
}

// ValidBars returns only the bars with an available close.
func (s TimeSeries) ValidBars() TimeSeries {
	out := make(TimeSeries, 0, len(s))
	for _, b := range s {
		if b.Close.IsKnown() {
			out = append(out, b)
		}
	}
	return out
}

// HistoryQuery describes a provider request: either a relative period such as
// "5d" or "1mo", or an explicit date range. Start and End are inclusive dates.
type HistoryQuery struct {
	Period string
	Start  time.Time
	End    time.Time
}

// IsRange reports whether the query names an explicit date range.
func (q HistoryQuery) IsRange() bool {
	return q.Period == "" && !q.Start.IsZero()
}

// ExchangeRate is the rate used to express one unit of Currency in Base.
// Live is false when the rate is the configured fallback.
type ExchangeRate struct {
	Currency string  `json:"currency"`
	Base     string  `json:"base"`
	Symbol   string  `json:"symbol"`
	Rate     float64 `json:"rate"`
	Live     bool    `json:"live"`
}

// Quote is a resolved latest close for a logical symbol.
type Quote struct {
	Symbol string `json:"symbol"`
	Price  Value  `json:"price"`
}

// History is a date-ranged series plus its summary returns.
type History struct {
	Symbol           string     `json:"symbol"`
	Start            string     `json:"start"`
	End              string     `json:"end"`
	Series           TimeSeries `json:"series"`
	PeriodReturn     Value      `json:"period_return_pct"`
	AnnualizedReturn Value      `json:"annualized_return_pct"`
	Technicals       Technicals `json:"technicals"`
}

// Trend classifies price action against its moving averages.
type Trend string

const (
	TrendBullish Trend = "bullish"
	TrendBearish Trend = "bearish"
	TrendNeutral Trend = "neutral"
)

// Technicals are indicators computed from the closes of a History.
// Indicators whose lookback exceeds the series are unavailable.
type Technicals struct {
	SMA20          Value  `json:"sma20"`
	SMA50          Value  `json:"sma50"`
	SMA200         Value  `json:"sma200"`
	RSI14          Value  `json:"rsi14"`
	High           Value  `json:"high"`
	Low            Value  `json:"low"`
	MaxDrawdownPct Value  `json:"max_drawdown_pct"`
	Crossover      string `json:"crossover"` // golden_cross, death_cross or none
	Trend          Trend  `json:"trend"`
}

// WatchItem is a watched instrument with its latest close and day change.
type WatchItem struct {
	Symbol       string  `json:"symbol"`
	Category     string  `json:"category"`
	ExpenseRatio float64 `json:"expense_ratio"`
	Description  string  `json:"description"`
	LastClose    Value   `json:"last_close"`
	DayChangePct Value   `json:"day_change_pct"`
}

// MarketRule expands a logical symbol carrying Suffix into candidate
// provider symbols, one per variant suffix, in order. An empty variant
// yields the bare base symbol.
type MarketRule struct {
	Suffix   string   `json:"suffix" toml:"suffix"`
	Variants []string `json:"variants" toml:"variants"`
}
