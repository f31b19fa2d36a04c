// Package signals provides technical indicator calculations over daily closes.
//
// Every function takes closes ordered newest first, as returned by Closes.
package signals

import (
	"github.com/bobmcallan/folio/internal/models"
)

// Closes returns the known closes of s, newest first.
func Closes(s models.TimeSeries) []float64 {
	valid := s.ValidBars()
	out := make([]float64, len(valid))
	for i, b := range valid {
		c, _ := b.Close.Get()
		out[len(valid)-1-i] = c
	}
	return out
}

// SMA calculates Simple Moving Average for the given period
func SMA(closes []float64, period int) models.Value {
	if period <= 0 || len(closes) < period {
		return models.Unavailable
	}

	sum := 0.0
	for i := 0; i < period; i++ {
		sum += closes[i]
	}
	return models.Known(sum / float64(period))
}

// EMA calculates Exponential Moving Average for the given period
func EMA(closes []float64, period int) models.Value {
	seed, ok := SMA(closes[max(len(closes)-period, 0):], period).Get()
	if !ok {
		return models.Unavailable
	}

	multiplier := 2.0 / float64(period+1)
	ema := seed
	// oldest to newest within the period
	for i := period - 1; i >= 0; i-- {
		ema = (closes[i]-ema)*multiplier + ema
	}
	return models.Known(ema)
}

// RSI calculates Relative Strength Index
func RSI(closes []float64, period int) models.Value {
	if period <= 0 || len(closes) < period+1 {
		return models.Unavailable
	}

	var gains, losses float64
	for i := 0; i < period; i++ {
		change := closes[i] - closes[i+1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}

	if gains == 0 && losses == 0 {
		return models.Known(50)
	}
	avgLoss := losses / float64(period)
	if avgLoss == 0 {
		return models.Known(100)
	}

	rs := (gains / float64(period)) / avgLoss
	return models.Known(100 - (100 / (1 + rs)))
}

// High returns the highest close.
func High(closes []float64) models.Value {
	if len(closes) == 0 {
		return models.Unavailable
	}
	high := closes[0]
	for _, c := range closes[1:] {
		high = max(high, c)
	}
	return models.Known(high)
}

// Low returns the lowest close.
func Low(closes []float64) models.Value {
	if len(closes) == 0 {
		return models.Unavailable
	}
	low := closes[0]
	for _, c := range closes[1:] {
		low = min(low, c)
	}
	return models.Known(low)
}

// MaxDrawdown returns the largest peak-to-trough fall as a non-positive
// percentage.
func MaxDrawdown(closes []float64) models.Value {
	if len(closes) < 2 {
		return models.Unavailable
	}

	peak := closes[len(closes)-1]
	worst := 0.0
	for i := len(closes) - 1; i >= 0; i-- {
		c := closes[i]
		if c > peak {
			peak = c
			continue
		}
		if peak > 0 {
			worst = min(worst, (c-peak)/peak*100)
		}
	}
	return models.Known(worst)
}

// DetectCrossover detects SMA crossovers on the latest close.
// Returns "golden_cross", "death_cross", or "none"
func DetectCrossover(closes []float64, shortPeriod, longPeriod int) string {
	if len(closes) < longPeriod+1 {
		return "none"
	}

	shortSMA, _ := SMA(closes, shortPeriod).Get()
	longSMA, _ := SMA(closes, longPeriod).Get()
	prevShortSMA, _ := SMA(closes[1:], shortPeriod).Get()
	prevLongSMA, _ := SMA(closes[1:], longPeriod).Get()

	// Golden cross: short crosses above long
	if prevShortSMA <= prevLongSMA && shortSMA > longSMA {
		return "golden_cross"
	}

	// Death cross: short crosses below long
	if prevShortSMA >= prevLongSMA && shortSMA < longSMA {
		return "death_cross"
	}

	return "none"
}

// ClassifyRSI classifies RSI value
func ClassifyRSI(rsi float64) string {
	if rsi >= 70 {
		return "overbought"
	}
	if rsi <= 30 {
		return "oversold"
	}
	return "neutral"
}

// DetermineTrend classifies the overall trend. Missing averages are neutral.
func DetermineTrend(price float64, sma20, sma50, sma200 models.Value) models.Trend {
	s20, ok20 := sma20.Get()
	s50, ok50 := sma50.Get()
	s200, ok200 := sma200.Get()
	if !ok20 || !ok50 || !ok200 {
		return models.TrendNeutral
	}

	// BULLISH: Price > SMA200 AND SMA20 > SMA50
	if price > s200 && s20 > s50 {
		return models.TrendBullish
	}

	// BEARISH: Price < SMA200 AND SMA20 < SMA50
	if price < s200 && s20 < s50 {
		return models.TrendBearish
	}

	return models.TrendNeutral
}

// Compute derives the indicator summary of a series.
func Compute(s models.TimeSeries) models.Technicals {
	closes := Closes(s)
	t := models.Technicals{
		SMA20:          SMA(closes, 20),
		SMA50:          SMA(closes, 50),
		SMA200:         SMA(closes, 200),
		RSI14:          RSI(closes, 14),
		High:           High(closes),
		Low:            Low(closes),
		MaxDrawdownPct: MaxDrawdown(closes),
		Crossover:      DetectCrossover(closes, 20, 50),
		Trend:          models.TrendNeutral,
	}
	if len(closes) > 0 {
		t.Trend = DetermineTrend(closes[0], t.SMA20, t.SMA50, t.SMA200)
	}
	return t
}
