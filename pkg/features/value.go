package features

import (
	"math"
	"strconv"
	"strings"
)

// Value is a measurement that may be missing. A missing value is never
// conflated with a reported zero.
type Value struct {
	V     float64
	Valid bool
}

// Float returns a present value
func Float(v float64) Value {
	return Value{V: v, Valid: true}
}

// Missing returns a missing value
func Missing() Value {
	return Value{}
}

// ParseValue parses a numeric token. Anything that is not a finite float,
// including the literal NaN spellings and the ARFF "?" marker, is missing.
func ParseValue(token string) Value {
	token = strings.TrimSpace(token)
	if token == "" || token == "?" || token == "--undefined--" {
		return Missing()
	}
	f, err := strconv.ParseFloat(token, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return Missing()
	}
	return Float(f)
}

// IsZero reports whether the value is present and exactly zero
func (v Value) IsZero() bool {
	return v.Valid && v.V == 0
}

// String formats the value for delimited output; missing is the empty string
func (v Value) String() string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatFloat(v.V, 'g', -1, 64)
}
