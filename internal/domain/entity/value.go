package entity

import (
	"encoding/json"
	"math"
	"strconv"
)

// Value is an optional numeric value. A zero Value is missing.
type Value struct {
	Float float64
	Valid bool
}

// Num returns a present Value. NaN and infinities are treated as missing so
// they never leak into sums or exported tables.
func Num(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}
	}
	return Value{Float: f, Valid: true}
}

// Missing returns a missing Value.
func Missing() Value {
	return Value{}
}

// OrZero folds a missing value to zero.
func (v Value) OrZero() float64 {
	if !v.Valid {
		return 0
	}
	return v.Float
}

// Equals reports whether v is present and equal to f.
func (v Value) Equals(f float64) bool {
	return v.Valid && v.Float == f
}

// String formats the value for delimited text; missing values are empty.
func (v Value) String() string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatFloat(v.Float, 'f', -1, 64)
}

// MarshalJSON encodes missing values as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(v.Float)
}

// UnmarshalJSON accepts a number or null.
func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Value{}
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = Num(f)
	return nil
}

// SafeRatio divides num by den and returns a missing Value when den is zero.
func SafeRatio(num, den float64) Value {
	if den == 0 {
		return Value{}
	}
	return Num(num / den)
}
