package core

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"100", "100", true},
		{"12.5", "12.5", true},
		{"12,34", "12.34", true},
		{"120,5", "120.5", true},
		{"1,234", "", false},
		{"1,234.50", "", false},
		{"1.234,50", "", false},
		{"1,2,3", "", false},
		{"12,", "", false},
		{" 0.01 ", "0.01", true},
		{"-3", "-3", true},
		{"", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"NaN", "", false},
		{"Inf", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.String() != tc.out {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
			continue
		}
		if !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("%q expected ErrInvalidAmount, got %v", tc.in, err)
		}
	}
}

func TestAmountJSON(t *testing.T) {
	b, err := json.Marshal(IncomeInput{Description: "x", Amount: NewAmount(150.5)})
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatal(err)
	}
	if _, isNumber := raw["amount"].(float64); !isNumber {
		t.Fatalf("amount must encode as a JSON number, got %T in %s", raw["amount"], b)
	}

	for _, in := range []string{`{"amount":100}`, `{"amount":"100.00"}`} {
		var rec IncomeRecord
		if err := json.Unmarshal([]byte(in), &rec); err != nil {
			t.Fatalf("%s: %v", in, err)
		}
		if !rec.Amount.Decimal().Equal(decimal.NewFromInt(100)) {
			t.Fatalf("%s decoded to %s", in, rec.Amount)
		}
	}
}

func TestFormatCurrency(t *testing.T) {
	cases := map[string]decimal.Decimal{
		"$150.00": decimal.NewFromInt(150),
		"$0.50":   decimal.RequireFromString("0.5"),
		"-$30.25": decimal.RequireFromString("-30.25"),
	}
	for want, in := range cases {
		if got := FormatCurrency(in); got != want {
			t.Fatalf("FormatCurrency(%s) = %q, want %q", in, got, want)
		}
	}
}
