// Package models defines data structures for Folio
package models

import (
	"encoding/json"
	"strconv"
)

// Value is a number that may be unavailable. The zero Value is Unavailable,
// so a missing price can never be mistaken for a price of zero.
type Value struct {
	v     float64
	known bool
}

// Unavailable is the absent value.
var Unavailable = Value{}

// Known wraps a number as an available value.
func Known(v float64) Value {
	return Value{v: v, known: true}
}

// Get returns the number and whether it is available.
func (x Value) Get() (float64, bool) {
	return x.v, x.known
}

// IsKnown reports whether the value is available.
func (x Value) IsKnown() bool {
	return x.known
}

// Or returns the number, or def when unavailable.
func (x Value) Or(def float64) float64 {
	if !x.known {
		return def
	}
	return x.v
}

// Map applies fn to a known value. Unavailable stays unavailable.
func (x Value) Map(fn func(float64) float64) Value {
	if !x.known {
		return Unavailable
	}
	return Known(fn(x.v))
}

// String renders the value with two decimals, or "N/A".
func (x Value) String() string {
	if !x.known {
		return "N/A"
	}
	return strconv.FormatFloat(x.v, 'f', 2, 64)
}

// MarshalJSON encodes an unavailable value as null.
func (x Value) MarshalJSON() ([]byte, error) {
	if !x.known {
		return []byte("null"), nil
	}
	return json.Marshal(x.v)
}

// UnmarshalJSON accepts a number or null.
func (x *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*x = Unavailable
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*x = Known(f)
	return nil
}
