package common

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/bobmcallan/folio/internal/models"
	"github.com/shopspring/decimal"
)

// NotAvailable is how an unavailable figure is displayed.
const NotAvailable = "N/A"

// FormatMoney formats an amount in its currency's display convention,
// e.g. 1234.5 USD -> "$1,234.50". Unknown currency codes fall back to
// "1234.50 XYZ".
func FormatMoney(v float64, currency string) string {
	code := strings.ToUpper(currency)
	cur := money.GetCurrency(code)
	if cur == nil {
		return decimal.NewFromFloat(v).StringFixed(2) + " " + code
	}
	minor := decimal.NewFromFloat(v).Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(minor, cur.Code).Display()
}

// FormatValueMoney formats an optional amount, rendering unavailable as N/A.
func FormatValueMoney(v models.Value, currency string) string {
	f, ok := v.Get()
	if !ok {
		return NotAvailable
	}
	return FormatMoney(f, currency)
}

// FormatNumber renders v with a fixed number of decimals.
func FormatNumber(v float64, places int32) string {
	return decimal.NewFromFloat(v).StringFixed(places)
}

// FormatValue renders an optional number with two decimals.
func FormatValue(v models.Value) string {
	f, ok := v.Get()
	if !ok {
		return NotAvailable
	}
	return FormatNumber(f, 2)
}

// FormatPct formats a percentage with two decimals.
func FormatPct(v float64) string {
	return FormatNumber(v, 2) + "%"
}

// FormatValuePct formats an optional percentage.
func FormatValuePct(v models.Value) string {
	f, ok := v.Get()
	if !ok {
		return NotAvailable
	}
	return FormatPct(f)
}

// FormatSignedPct formats a percentage with +/- prefix
func FormatSignedPct(v float64) string {
	if v >= 0 {
		return "+" + FormatPct(v)
	}
	return FormatPct(v)
}
