package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"

	"ledgerdash/internal/apiclient"
	"ledgerdash/internal/log"
)

// Connection states shown by the banner.
const (
	ConnChecking     = "checking"
	ConnConnected    = "connected"
	ConnDisconnected = "disconnected"
)

// handleConnection probes the backend health endpoint and renders the banner.
func (s *Server) handleConnection(w http.ResponseWriter, r *http.Request) {
	status := ConnDisconnected
	if s.deps.API != nil {
		ctx, cancel := context.WithTimeout(r.Context(), s.opts.HealthTimeout)
		defer cancel()
		if _, err := s.deps.API.Health(ctx); err == nil {
			status = ConnConnected
		} else {
			log.FromContext(ctx).DebugContext(ctx, "Backend health probe failed",
				log.FieldErrorType, apiclient.Kind(err), log.FieldError, err.Error())
		}
	}
	w.Header().Set("Cache-Control", "no-store")
	s.render(w, r, http.StatusOK, "connection", status)
}

// handleMetrics exposes plain text counters, one "name value" per line.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	tm := s.tracer.GetMetrics()
	rl := s.limiter.GetMetrics()
	sec := s.detector.GetMetrics()
	published, failed := s.deps.Activity.Counts()

	var b strings.Builder
	line := func(name string, v int64) { fmt.Fprintf(&b, "%s %d\n", name, v) }
	line("http_requests_total", tm.TotalRequests)
	line("http_server_errors_total", tm.ServerErrors)
	line("http_last_response_time_us", tm.AverageResponseTime)
	line("rate_limit_hits_total", rl.LimitedHits)
	line("rate_limit_clients", rl.ClientCount)
	line("security_suspicious_requests_total", sec.SuspiciousRequests)
	line("security_spoofed_forwards_total", sec.SpoofedForwards)
	if s.deps.Sessions != nil {
		line("sessions_active", int64(s.deps.Sessions.Active()))
	}
	line("logins_total", atomic.LoadInt64(&s.appMetrics.logins))
	line("record_mutations_total", atomic.LoadInt64(&s.appMetrics.mutations))
	line("invoice_pdfs_total", atomic.LoadInt64(&s.appMetrics.pdfs))
	line("activity_published_total", published)
	line("activity_failed_total", failed)
	up := int64(0)
	if s.deps.Activity.BrokerUp() {
		up = 1
	}
	line("activity_broker_up", up)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write([]byte(b.String()))
}
