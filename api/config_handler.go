package api

import (
	"net/http"

	"github.com/seenimoa/ratiobench/internal/report"
)

// ConfigResponse is the payload returned by GET /api/v1/config. It shows
// the settings that shape comparisons so clients can explain results.
type ConfigResponse struct {
	Sources           []string `json:"sources"` // fallback order
	ConcurrentFetches int      `json:"concurrent_fetches"`
	TimeoutSec        int      `json:"timeout_sec"`
	RateLimit         int      `json:"rate_limit"`
	ReportFormat      string   `json:"report_format"`
	Decimals          int      `json:"decimals"`
	Formats           []string `json:"formats"`
	TracingEnabled    bool     `json:"tracing_enabled"`
}

// handleGetConfig returns the running configuration.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	if s.cfg == nil {
		writeError(w, http.StatusServiceUnavailable, "configuration not loaded")
		return
	}

	resp := ConfigResponse{
		Sources:           s.cfg.DataSource.Sources(),
		ConcurrentFetches: s.cfg.DataSource.ConcurrentFetches,
		TimeoutSec:        s.cfg.DataSource.TimeoutSec,
		RateLimit:         s.cfg.DataSource.RateLimit,
		ReportFormat:      s.cfg.Report.DefaultFormat,
		Decimals:          s.cfg.Report.Decimals,
		TracingEnabled:    s.cfg.Tracing.Enabled,
	}
	for _, f := range report.Formats() {
		resp.Formats = append(resp.Formats, string(f))
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: resp})
}
