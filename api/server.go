// Package api provides the HTTP REST API server for ratiobench.
//
// It exposes endpoints for peer comparisons, single-company ratio sets,
// rendered reports, the company directory and the ratio catalogue.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/seenimoa/ratiobench/internal/analysis/fundamental"
	"github.com/seenimoa/ratiobench/internal/config"
	"github.com/seenimoa/ratiobench/internal/logger"
	"github.com/seenimoa/ratiobench/internal/report"
	"github.com/seenimoa/ratiobench/internal/service"
	"github.com/seenimoa/ratiobench/pkg/utils"
	"github.com/seenimoa/ratiobench/web"
)

// Server is the HTTP API server.
type Server struct {
	router   chi.Router
	cfg      *config.Config
	comparer *service.Comparer
	version  string
	serveUI  bool // when true, serve the embedded landing page at /
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg *config.Config, comparer *service.Comparer, version string) *Server {
	srv := &Server{
		cfg:      cfg,
		comparer: comparer,
		version:  version,
		serveUI:  true,
	}
	srv.router = srv.buildRouter()
	return srv
}

// SetServeUI controls whether the embedded landing page is served.
// Must be called before ListenAndServe.
func (s *Server) SetServeUI(enabled bool) {
	s.serveUI = enabled
	s.router = s.buildRouter()
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe starts the HTTP server and blocks until SIGINT/SIGTERM or
// ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: s.requestTimeout() + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.L().Info("api server listening", zap.String("addr", addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	logger.L().Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

func (s *Server) requestTimeout() time.Duration {
	if s.cfg != nil && s.cfg.API.TimeoutSec > 0 {
		return time.Duration(s.cfg.API.TimeoutSec) * time.Second
	}
	return 60 * time.Second
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.requestTimeout()))

	// CORS
	origins := []string{"*"}
	if s.cfg != nil && len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	// Health check
	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Comparisons
		r.Post("/compare", s.handleCompare)
		r.Get("/compare/report", s.handleCompareReport)

		// Ratios
		r.Get("/ratios", s.handleRatioCatalogue)
		r.Get("/ratios/{ticker}", s.handleRatios)

		// Directory
		r.Get("/companies", s.handleCompanies)

		// Effective configuration
		r.Get("/config", s.handleGetConfig)
	})

	if s.serveUI {
		r.Get("/", s.handleIndex)
	}

	return r
}

// handleIndex serves the embedded landing page with the comparison form.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data, err := web.Index()
	if err != nil {
		http.Error(w, "web UI not available", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	w.Write(data) //nolint:errcheck
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// CompareRequest is the body for POST /api/v1/compare. When Sector is set
// and Peers is empty, the target's sector peers from the directory are used.
type CompareRequest struct {
	Ticker string   `json:"ticker"`
	Peers  []string `json:"peers"`
	Sector bool     `json:"sector,omitempty"`
}

// HealthStatus is the payload of the health endpoints.
type HealthStatus struct {
	Status  string   `json:"status"`
	Version string   `json:"version"`
	Sources []string `json:"sources"`
	Time    string   `json:"time"`
}

// RatioInfo describes one ratio in the catalogue.
type RatioInfo struct {
	Ratio     string                `json:"ratio"`
	Label     string                `json:"label"`
	Direction fundamental.Direction `json:"direction"`
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	var sources []string
	if s.comparer != nil {
		sources = s.comparer.Sources()
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: HealthStatus{
			Status:  "ok",
			Version: s.version,
			Sources: sources,
			Time:    utils.FormatDateTimeIST(utils.NowIST()),
		},
	})
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req CompareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := s.compare(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: res})
}

// handleCompareReport renders a comparison in the requested format. Query
// parameters: ticker, peers (comma separated), sector, format.
func (s *Server) handleCompareReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	format := report.FormatHTML
	if v := q.Get("format"); v != "" {
		f, err := report.ParseFormat(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		format = f
	}

	sector, _ := strconv.ParseBool(q.Get("sector"))
	res, err := s.compare(r.Context(), CompareRequest{
		Ticker: q.Get("ticker"),
		Peers:  utils.SplitTickerList(q.Get("peers")),
		Sector: sector,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var buf bytes.Buffer
	cfg := report.Config{Format: format, Decimals: s.decimals()}
	if err := report.Render(&buf, res, cfg); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes()) //nolint:errcheck
}

func (s *Server) handleRatios(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}
	if s.comparer == nil {
		writeError(w, http.StatusServiceUnavailable, "comparison service not configured")
		return
	}

	res, err := s.comparer.Ratios(r.Context(), ticker)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: res})
}

func (s *Server) handleRatioCatalogue(w http.ResponseWriter, r *http.Request) {
	policy := fundamental.DefaultPolicy()
	if s.comparer != nil {
		policy = s.comparer.Policy()
	}
	out := make([]RatioInfo, 0, len(fundamental.AllRatios()))
	for _, ratio := range fundamental.AllRatios() {
		out = append(out, RatioInfo{
			Ratio:     ratio.String(),
			Label:     ratio.Label(),
			Direction: policy.Direction(ratio),
		})
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: out})
}

func (s *Server) handleCompanies(w http.ResponseWriter, r *http.Request) {
	if s.comparer == nil || s.comparer.Directory() == nil {
		writeError(w, http.StatusServiceUnavailable, "company directory not available")
		return
	}

	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, 50)
	}

	companies, err := s.comparer.Directory().Search(r.URL.Query().Get("q"), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: companies})
}

// ============================================================
// Helpers
// ============================================================

func (s *Server) compare(ctx context.Context, req CompareRequest) (*service.Result, error) {
	if s.comparer == nil {
		return nil, errors.New("comparison service not configured")
	}
	peers := req.Peers
	if len(peers) == 0 && req.Sector {
		peers = s.comparer.SectorPeers(req.Ticker)
	}
	return s.comparer.Compare(ctx, service.CompareRequest{Ticker: req.Ticker, Peers: peers})
}

func (s *Server) decimals() int {
	if s.cfg != nil {
		return s.cfg.Report.Decimals
	}
	return 2
}

// statusFor maps a comparison error to an HTTP status.
func statusFor(err error) int {
	var targetErr *service.TargetUnavailableError
	var peersErr *service.NoPeersAvailableError
	switch {
	case errors.Is(err, service.ErrMissingTarget), errors.Is(err, service.ErrNoPeers):
		return http.StatusBadRequest
	case errors.As(err, &targetErr):
		return http.StatusBadGateway
	case errors.As(err, &peersErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := APIResponse{Success: false, Error: err.Error()}

	var peersErr *service.NoPeersAvailableError
	if errors.As(err, &peersErr) {
		resp.Data = peersErr.Peers
	}
	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).Warn("request failed", zap.Int("status", status), zap.Error(err))
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.L().Error("failed to write JSON response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}
