package form

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// dateLayouts are tried in order. "2006-1-2" also accepts zero-padded parts.
var dateLayouts = []string{
	"2006-1-2",
	time.RFC3339,
}

// ExpenseData is the typed result of a successful submit.
type ExpenseData struct {
	Amount      float64
	Date        time.Time
	Description string
}

// Validity holds the outcome of the three independent field checks.
type Validity struct {
	Amount      bool
	Date        bool
	Description bool
}

// OK reports whether every field passed.
func (v Validity) OK() bool {
	return v.Amount && v.Date && v.Description
}

// Of returns the result for a single field.
func (v Validity) Of(f Field) bool {
	switch f {
	case FieldAmount:
		return v.Amount
	case FieldDate:
		return v.Date
	case FieldDescription:
		return v.Description
	}
	return false
}

// Parse coerces the three raw values and checks each of them independently.
// The returned data is only meaningful for fields whose validity is true.
func Parse(amount, date, description string) (ExpenseData, Validity) {
	var data ExpenseData
	var v Validity
	data.Amount, v.Amount = ParseAmount(amount)
	data.Date, v.Date = ParseDate(date)
	data.Description = description
	v.Description = len(strings.TrimSpace(description)) > 0
	return data, v
}

// ParseAmount coerces s to a number. Surrounding whitespace is ignored and
// the empty string coerces to 0. The amount is valid when it is finite and
// strictly positive.
func ParseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if strings.HasPrefix(strings.ToLower(strings.TrimLeft(s, "+-")), "0x") {
		return math.NaN(), false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN(), false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return n, false
	}
	return n, n > 0
}

// ParseDate parses s as a calendar date. Impossible dates such as
// 2024-02-30 are rejected rather than rolled over.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
