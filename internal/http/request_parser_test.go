package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestFormValues(t *testing.T) {
	form := url.Values{
		"description": {"  Consulting \x00fee "},
		"amount":      {"1000.50", "ignored"},
		"empty":       {},
	}
	got := FormValues(form)

	if got["description"] != "Consulting fee" {
		t.Errorf("description = %q", got["description"])
	}
	if got["amount"] != "1000.50" {
		t.Errorf("amount = %q, want first value", got["amount"])
	}
	if _, ok := got["empty"]; ok {
		t.Errorf("empty field should be skipped")
	}
}

func TestParseReportPeriod(t *testing.T) {
	now := time.Date(2025, 3, 18, 15, 4, 5, 0, time.UTC)

	tests := []struct {
		name      string
		query     url.Values
		wantStart string
		wantEnd   string
	}{
		{"defaults", url.Values{}, "2025-03-01", "2025-03-18"},
		{"explicit range", url.Values{"from": {"2024-01-01"}, "to": {"2024-12-31"}}, "2024-01-01", "2024-12-31"},
		{"only end", url.Values{"to": {"2025-03-10"}}, "2025-03-01", "2025-03-10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ParseReportPeriod(tt.query, now)
			if p.StartDate != tt.wantStart || p.EndDate != tt.wantEnd {
				t.Errorf("period = %s..%s, want %s..%s", p.StartDate, p.EndDate, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestPathID(t *testing.T) {
	tests := []struct {
		raw     string
		want    int64
		wantErr bool
	}{
		{"42", 42, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.SetPathValue("id", tt.raw)
		got, err := PathID(r, "id")
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("PathID(%q) = %d, %v", tt.raw, got, err)
		}
	}
}

func TestConfirmed(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("confirm=yes"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if !Confirmed(r) {
		t.Error("form confirm=yes should confirm")
	}

	r = httptest.NewRequest(http.MethodDelete, "/x?confirm=YES", nil)
	if !Confirmed(r) {
		t.Error("query confirm=YES should confirm")
	}

	r = httptest.NewRequest(http.MethodDelete, "/x", nil)
	if Confirmed(r) {
		t.Error("missing confirm should not confirm")
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := sanitizeInput(" a\tb\x07c\n "); got != "a\tbc" {
		t.Errorf("sanitizeInput = %q", got)
	}
}
