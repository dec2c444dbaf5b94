// Package server is the development server of watch mode: it serves the
// output directory, pushes live-reload notifications and exposes health,
// metrics and build history endpoints.
package server

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/postforge/internal/foundation/errors"
	"git.home.luguber.info/inful/postforge/internal/history"
	"git.home.luguber.info/inful/postforge/internal/logfields"
	"git.home.luguber.info/inful/postforge/internal/metrics"
	"git.home.luguber.info/inful/postforge/internal/version"
)

// PassLister returns recently recorded passes.
type PassLister interface {
	Recent(ctx context.Context, limit int) ([]history.Entry, error)
}

// Options configures a Server.
type Options struct {
	// Root is the output directory served read-only.
	Root       string
	LiveReload bool
	// Registry enables the metrics endpoint when set.
	Registry    *prom.Registry
	MetricsPath string
	// History enables /api/passes when set.
	History  PassLister
	Recorder metrics.Recorder
}

// Server serves a built site during development.
type Server struct {
	opts    Options
	hub     *Hub
	started time.Time
	srv     *http.Server
}

// New returns a server for opts.
func New(opts Options) *Server {
	if opts.MetricsPath == "" {
		opts.MetricsPath = "/metrics"
	}
	return &Server{opts: opts, hub: NewHub(opts.Recorder), started: time.Now()}
}

// Hub returns the live-reload hub.
func (s *Server) Hub() *Hub { return s.hub }

// Handler returns the complete routing tree.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	site := http.FileServer(http.Dir(s.opts.Root))
	if s.opts.LiveReload {
		site = injectLiveReload(site)
		mux.Handle("/__livereload", s.hub)
		mux.HandleFunc("/__livereload.js", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
			w.Header().Set("Cache-Control", "no-cache")
			_, _ = w.Write([]byte(ClientScript))
		})
	}
	mux.Handle("/", noCache(site))
	mux.HandleFunc("/__generation", s.handleGeneration)
	mux.HandleFunc("/healthz", s.handleHealth)
	if s.opts.Registry != nil {
		mux.Handle(s.opts.MetricsPath, metrics.HTTPHandler(s.opts.Registry))
	}
	if s.opts.History != nil {
		mux.HandleFunc("/api/passes", s.handlePasses)
	}
	return chain(mux)
}

// Serve accepts connections on ln until ctx is canceled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.srv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(ln) }()
	slog.Info("Development server listening", logfields.Addr(ln.Addr().String()))

	select {
	case err := <-errCh:
		if err != nil && !stdErrors.Is(err, http.ErrServerClosed) {
			return errors.RuntimeError("development server failed").WithCause(err).Build()
		}
		return nil
	case <-ctx.Done():
	}
	s.hub.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return errors.RuntimeError("development server shutdown failed").WithCause(err).Build()
	}
	slog.Info("Development server stopped")
	return nil
}

// ListenAndServe binds addr and serves until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return errors.RuntimeError("failed to bind development server").
			WithCause(err).
			WithContext("addr", addr).
			UserAction().
			Build()
	}
	return s.Serve(ctx, ln)
}

func (s *Server) handleGeneration(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, http.StatusOK, s.hub.Current())
}

type healthResponse struct {
	Status     string  `json:"status"`
	Version    string  `json:"version"`
	Uptime     float64 `json:"uptime"`
	Generation uint64  `json:"generation"`
	LastError  bool    `json:"last_error"`
	Clients    int     `json:"clients"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	snap := s.hub.Current()
	writeJSON(w, http.StatusOK, healthResponse{
		Status:     "ok",
		Version:    version.Version,
		Uptime:     time.Since(s.started).Seconds(),
		Generation: snap.Generation,
		LastError:  snap.Error,
		Clients:    s.hub.Clients(),
	})
}

func (s *Server) handlePasses(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, 500)
	}
	entries, err := s.opts.History.Recent(r.Context(), limit)
	if err != nil {
		slog.Warn("Build history query failed", logfields.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "history unavailable"})
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func noCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("JSON response write failed", logfields.Error(err))
	}
}
