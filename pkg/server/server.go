// Package server is the exporter's HTTP surface: /metrics in Prometheus
// text format, /health(y|z) liveness, / as a human-readable options dump,
// and a 404 for everything else. http.Server is wired directly rather
// than through a framework.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server is the exporter's HTTP listener, tuned for a metrics endpoint
// scraped every few seconds by many Prometheus replicas: keep-alives on,
// small idle timeout, bounded header size.
type Server struct {
	httpServer *http.Server
	logger     *zap.SugaredLogger
}

// Options are the HTTP surface's connection tunables, kept as plain
// fields since package config's mapping-valued options don't cover
// connection-level knobs.
type Options struct {
	Bind              string
	ReadHeaderTimeout time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
}

// DefaultOptions mirrors the ballpark a busy Prometheus metrics endpoint
// runs at: generous enough not to clip legitimate scrapers, tight enough
// that a slow client can't hold a connection open indefinitely.
func DefaultOptions(bind string) Options {
	return Options{
		Bind:              bind,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       2 * time.Minute,
		MaxHeaderBytes:    1 << 20,
	}
}

// New builds a Server that exposes reg on /metrics and optionsPage's
// result on /, instrumenting every handler's latency via observeLatency
// (usually *exporter.Exporter.ObserveHTTPRequest).
func New(opts Options, reg prometheus.Gatherer, optionsPage func() string, observeLatency func(handler string, elapsed time.Duration), logger *zap.SugaredLogger) *Server {
	mux := http.NewServeMux()

	instrument := func(name string, h http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			h(w, r)
			if observeLatency != nil {
				observeLatency(name, time.Since(start))
			}
		}
	}

	healthHandler := instrument("health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("Ok"))
	})
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/healthy", healthHandler)
	mux.HandleFunc("/healthz", healthHandler)

	mux.Handle("/metrics", instrument("metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{ErrorLog: stdLogAdapter{logger}}).ServeHTTP(w, r)
	}))

	mux.HandleFunc("/", instrument("index", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = fmt.Fprintf(w, "Path %s not found", r.URL.Path)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(optionsPage()))
	}))

	httpServer := &http.Server{
		Addr:              opts.Bind,
		Handler:           mux,
		ReadHeaderTimeout: opts.ReadHeaderTimeout,
		IdleTimeout:       opts.IdleTimeout,
		MaxHeaderBytes:    opts.MaxHeaderBytes,
	}
	httpServer.SetKeepAlivesEnabled(true)

	return &Server{httpServer: httpServer, logger: logger}
}

// ListenAndServe binds opts.Bind and serves until the listener is closed
// by Shutdown. TCP_NODELAY is on for every accepted connection; Go's
// *net.TCPListener already sets it by default.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("server: listening on %s: %w", s.httpServer.Addr, err)
	}
	err = s.httpServer.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting new connections and waits up to the given
// context's deadline for in-flight requests to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.logger != nil {
		s.logger.Info("shutting down HTTP server")
	}
	return s.httpServer.Shutdown(ctx)
}

// stdLogAdapter lets promhttp log encoding failures through zap instead of
// the standard log package.
type stdLogAdapter struct {
	logger *zap.SugaredLogger
}

func (a stdLogAdapter) Println(v ...interface{}) {
	if a.logger != nil {
		a.logger.Errorw("metrics handler error", "msg", fmt.Sprint(v...))
	}
}
