// Package core provides the accounting records exchanged with the backend
// and the amount type used to carry money through forms and JSON.
package core

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Amount is a decimal quantity. It decodes JSON numbers and numeric strings
// and always encodes as a bare JSON number.
type Amount struct {
	d decimal.Decimal
}

// NewAmount builds an Amount from a float.
func NewAmount(f float64) Amount {
	return Amount{d: decimal.NewFromFloat(f)}
}

// AmountFromDecimal wraps d.
func AmountFromDecimal(d decimal.Decimal) Amount {
	return Amount{d: d}
}

// ParseAmount parses a form value as floating point.
//
// A single decimal comma with at most two digits after it is accepted
// (12,34). Any other comma, such as a thousands separator in "1,234" or
// "1,234.50", is rejected along with empty input, NaN and infinities.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, ','); i >= 0 {
		frac := s[i+1:]
		if strings.Contains(s[:i], ".") || strings.ContainsAny(frac, ",.") || len(frac) == 0 || len(frac) > 2 {
			return Amount{}, ErrInvalidAmount
		}
		s = s[:i] + "." + frac
	}
	if s == "" {
		return Amount{}, ErrInvalidAmount
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return Amount{}, ErrInvalidAmount
	}
	return NewAmount(f), nil
}

func (a Amount) Decimal() decimal.Decimal { return a.d }

func (a Amount) IsPositive() bool { return a.d.IsPositive() }

func (a Amount) IsNegative() bool { return a.d.IsNegative() }

func (a Amount) Sub(b Amount) Amount { return Amount{d: a.d.Sub(b.d)} }

// String is the plain form used to prefill edit forms ("100", "12.5").
func (a Amount) String() string { return a.d.String() }

func (a Amount) Float64() float64 {
	f, _ := a.d.Float64()
	return f
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.d.String()), nil
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	if string(b) == "null" || string(b) == `""` {
		a.d = decimal.Zero
		return nil
	}
	return a.d.UnmarshalJSON(b)
}

var currencyPrinter = message.NewPrinter(language.AmericanEnglish)

// FormatCurrency renders d as US dollars with two decimals and digit grouping.
func FormatCurrency(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	f, _ := d.Round(2).Float64()
	return sign + "$" + currencyPrinter.Sprintf("%.2f", f)
}

// Format renders a with FormatCurrency.
func (a Amount) Format() string {
	return FormatCurrency(a.d)
}
