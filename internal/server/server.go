// Package server exposes the batch pipeline and the cache over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vidmeta/internal/batch"
	"vidmeta/internal/cache"
	"vidmeta/internal/httputil"
	"vidmeta/internal/media"
	"vidmeta/internal/report"
)

const maxRequestBody = 1 << 20

// Options configures request handling.
type Options struct {
	// MaxURLs caps the URLs accepted per batch; 0 means no cap.
	MaxURLs int
	// Workers is the default concurrency bound for a batch.
	Workers int
	// MaxWorkers caps the per-request workers override.
	MaxWorkers int
}

// Server serves the HTTP API.
type Server struct {
	orch     *batch.Orchestrator
	store    cache.Store
	gatherer prometheus.Gatherer
	log      *slog.Logger
	opts     Options
}

// New creates a server. gatherer may be nil to disable /metrics.
func New(orch *batch.Orchestrator, store cache.Store, gatherer prometheus.Gatherer, logger *slog.Logger, opts Options) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.MaxWorkers < opts.Workers {
		opts.MaxWorkers = opts.Workers
	}
	return &Server{orch: orch, store: store, gatherer: gatherer, log: logger, opts: opts}
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/v1").Subrouter()
	api.HandleFunc("/batches", s.handleCreateBatch).Methods(http.MethodPost)
	api.HandleFunc("/cache", s.handleCacheStats).Methods(http.MethodGet)
	api.HandleFunc("/cache/{id}", s.handleCacheEntry).Methods(http.MethodGet)

	r.Use(s.logRequests)
	return r
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	}
}

type batchRequest struct {
	URLs        []string `json:"urls"`
	Text        string   `json:"text"`
	BypassCache bool     `json:"bypass_cache"`
	Workers     int      `json:"workers"`
}

type batchResponse struct {
	*batch.Report
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
	Ignored   int          `json:"ignored,omitempty"`
	Summary   string       `json:"summary,omitempty"`
	Stats     report.Stats `json:"stats"`
}

func (s *Server) handleCreateBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	all := append(req.URLs, batch.SplitLines(req.Text)...)
	urls, _ := batch.Limit(all, s.opts.MaxURLs)
	ignored := len(all) - len(urls)

	workers := s.opts.Workers
	if req.Workers > 0 {
		workers = min(req.Workers, s.opts.MaxWorkers)
	}

	rep, err := s.orch.Run(r.Context(), urls, batch.Options{Bypass: req.BypassCache, Workers: workers})
	if errors.Is(err, batch.ErrNoVideoIDs) {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	sum := report.Summarize(rep.Results)
	msg := sum.FailureMessage()
	if sum.Succeeded == 0 {
		msg = report.NoSuccessMessage
	}
	writeJSON(w, http.StatusOK, batchResponse{
		Report:    rep,
		Succeeded: sum.Succeeded,
		Failed:    sum.Failed(),
		Ignored:   ignored,
		Summary:   msg,
		Stats:     report.ComputeStats(rep.Videos(), report.DefaultTopN),
	})
}

type cacheStats struct {
	Entries int      `json:"entries"`
	IDs     []string `json:"ids"`
	Warning string   `json:"warning,omitempty"`
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.Load(r.Context())
	stats := cacheStats{Entries: len(entries), IDs: cache.IDs(entries)}
	if err != nil {
		if !errors.Is(err, cache.ErrCorrupt) {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		stats.Warning = err.Error()
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleCacheEntry(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := httputil.ValidateVideoID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := s.store.Load(r.Context())
	if err != nil && !errors.Is(err, cache.ErrCorrupt) {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	v, ok := entries[id]
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("video %s is not cached", id))
		return
	}
	writeJSON(w, http.StatusOK, media.Succeeded(v))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
