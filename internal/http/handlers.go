package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"gastos/internal/log"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).String(),
	})
}

// handleReady checks templates and that the ledger store can be read.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]interface{})

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if err := s.ledger.Check(ctx); err != nil {
		checks["ledger_store"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["ledger_store"] = "ok"
	}

	checks["rate_limiter"] = map[string]interface{}{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}

	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics provides application metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	traceMetrics := s.traceMiddleware.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	records := len(s.ledger.Records())

	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", traceMetrics.TotalRequests)

	fmt.Fprintf(w, "# HELP http_errors_total HTTP responses with error status\n")
	fmt.Fprintf(w, "# TYPE http_errors_total counter\n")
	fmt.Fprintf(w, "http_errors_total{class=\"4xx\"} %d\n", traceMetrics.ClientErrors)
	fmt.Fprintf(w, "http_errors_total{class=\"5xx\"} %d\n\n", traceMetrics.ServerErrors)

	fmt.Fprintf(w, "# HELP ledger_records Current number of records in the ledger\n")
	fmt.Fprintf(w, "# TYPE ledger_records gauge\n")
	fmt.Fprintf(w, "ledger_records %d\n\n", records)

	fmt.Fprintf(w, "# HELP expenses_submitted_total Records created by submit\n")
	fmt.Fprintf(w, "# TYPE expenses_submitted_total counter\n")
	fmt.Fprintf(w, "expenses_submitted_total %d\n\n", s.appMetrics.submitted.Load())

	fmt.Fprintf(w, "# HELP submissions_rejected_total Submits refused for missing fields\n")
	fmt.Fprintf(w, "# TYPE submissions_rejected_total counter\n")
	fmt.Fprintf(w, "submissions_rejected_total %d\n\n", s.appMetrics.rejected.Load())

	fmt.Fprintf(w, "# HELP draft_edits_total Input panel changes\n")
	fmt.Fprintf(w, "# TYPE draft_edits_total counter\n")
	fmt.Fprintf(w, "draft_edits_total %d\n\n", s.appMetrics.draftEdits.Load())

	fmt.Fprintf(w, "# HELP ledger_resets_total Ledger resets\n")
	fmt.Fprintf(w, "# TYPE ledger_resets_total counter\n")
	fmt.Fprintf(w, "ledger_resets_total %d\n\n", s.appMetrics.resets.Load())

	fmt.Fprintf(w, "# HELP rate_limit_hits_total Total rate limit hits\n")
	fmt.Fprintf(w, "# TYPE rate_limit_hits_total counter\n")
	fmt.Fprintf(w, "rate_limit_hits_total %d\n\n", rateLimitMetrics.TotalHits)

	fmt.Fprintf(w, "# HELP active_rate_limit_clients Currently tracked rate limit clients\n")
	fmt.Fprintf(w, "# TYPE active_rate_limit_clients gauge\n")
	fmt.Fprintf(w, "active_rate_limit_clients %d\n\n", rateLimitMetrics.ClientCount)

	cacheHits, cacheMisses := s.workbooks.Stats()
	fmt.Fprintf(w, "# HELP export_cache_requests_total Workbook cache lookups\n")
	fmt.Fprintf(w, "# TYPE export_cache_requests_total counter\n")
	fmt.Fprintf(w, "export_cache_requests_total{result=\"hit\"} %d\n", cacheHits)
	fmt.Fprintf(w, "export_cache_requests_total{result=\"miss\"} %d\n\n", cacheMisses)

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n", time.Since(s.appMetrics.uptime).Seconds())
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if resp := RequireMethod(r, http.MethodGet, http.MethodHead); resp != nil {
		resp.Write(w)
		return
	}
	s.renderIndex(w, r, http.StatusOK, "")
}

// renderIndex writes the full page. alert, when set, is shown inline for
// clients without JavaScript.
func (s *Server) renderIndex(w http.ResponseWriter, r *http.Request, status int, alert string) {
	data := s.pageData()
	data.Alert = alert
	s.render(w, r, "index.html", status, data)
}

func (s *Server) handleLedgerPartial(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}
	s.render(w, r, "ledger.html", http.StatusOK, s.pageData())
}

func (s *Server) handleClockPartial(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	s.render(w, r, "clock.html", http.StatusOK, s.clock.Now())
}

func (s *Server) pageData() PageData {
	data := buildPageData(s.ledger.Snapshot(), s.view)
	data.Clock = s.clock.Now()
	data.ClockPollSeconds = s.clockPollSecs
	return data
}

// render executes a template into a buffer so a failure never leaves a
// half-written page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, status int, data interface{}) {
	s.renderWith(NewHTMXResponse(), w, r, name, status, data)
}

func (s *Server) renderWith(b *HTMXResponseBuilder, w http.ResponseWriter, r *http.Request, name string, status int, data interface{}) {
	logger := log.FromContext(r.Context())
	if s.templates == nil {
		logger.ErrorContext(r.Context(), "Templates not loaded",
			log.FieldPath, r.URL.Path,
			log.FieldOperation, log.OpRender)
		InternalServerError("templates not loaded").Write(w)
		return
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		logger.ErrorContext(r.Context(), "Template execution failed",
			log.FieldError, err,
			"template", name,
			log.FieldOperation, log.OpRender)
		InternalServerError("render failed").Write(w)
		return
	}
	b.Status(status).BodyHTML(buf.String()).Write(w)
}
