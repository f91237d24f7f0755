// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data.

package http

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ledgerdash/internal/core"
	"ledgerdash/internal/screen"
)

var errInvalidID = errors.New("invalid id")

// maxFormBytes bounds form bodies; invoices with many item lines stay well below it.
const maxFormBytes = 64 << 10

// FormValues flattens a parsed form into screen values, keeping the first
// value of each field.
func FormValues(form url.Values) screen.Values {
	out := make(screen.Values, len(form))
	for k, vs := range form {
		if len(vs) == 0 {
			continue
		}
		out[k] = sanitizeInput(vs[0])
	}
	return out
}

// ParseReportPeriod reads from/to query values. Missing values default to
// the first day of the current month and today.
func ParseReportPeriod(query url.Values, now time.Time) core.ReportPeriod {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	p := core.ReportPeriod{
		StartDate: first.Format(core.DateLayout),
		EndDate:   now.Format(core.DateLayout),
	}
	if v := strings.TrimSpace(query.Get("from")); v != "" {
		p.StartDate = v
	}
	if v := strings.TrimSpace(query.Get("to")); v != "" {
		p.EndDate = v
	}
	return p
}

// PathID parses a positive integer path value.
func PathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}

// Confirmed reports whether the request carries confirm=yes, in the query
// or the form body.
func Confirmed(r *http.Request) bool {
	return strings.EqualFold(strings.TrimSpace(r.FormValue("confirm")), "yes")
}

// IsHTMX reports whether the request was issued by htmx.
func IsHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// ParseFormOrFail parses the request form and returns an error response on failure.
// Returns nil on success.
func ParseFormOrFail(w http.ResponseWriter, r *http.Request) *HTMXResponseBuilder {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		return BadRequestError("Invalid request format")
	}
	return nil
}

// sanitizeInput drops control characters other than tab and newlines and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
