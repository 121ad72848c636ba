// Package server exposes a bins.Bins store over HTTP: bin management under
// /rusqbins and capture of any request carrying the X-Rusqbin-Id header.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jnovack/rusqbin/pkg/bins"
	"github.com/jnovack/rusqbin/pkg/capture"
)

// Metrics is the minimal set of counters the server reports to.
// admin.Metrics implements it.
type Metrics interface {
	InflightAdd(id, desc string)
	InflightRemove(id string)
	ObserveRequest(op string, code int, seconds float64)
	IncBins()
	DecBins()
	IncCaptured()
}

// Config holds the behavior/configuration of a Server.
type Config struct {
	Addr              string
	Store             bins.Bins
	Metrics           Metrics
	Normalizer        *capture.Normalizer
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

// Server serves the bin API.
type Server struct {
	cfg   Config
	store bins.Bins
	norm  *capture.Normalizer
	m     Metrics
}

// New returns a Server for cfg. A nil Store gets a fresh in-memory store.
func New(cfg Config) *Server {
	if cfg.Store == nil {
		cfg.Store = bins.NewInMemory()
	}
	if cfg.Normalizer == nil {
		cfg.Normalizer = &capture.Normalizer{}
	}
	if cfg.Metrics == nil {
		cfg.Metrics = nopMetrics{}
	}
	if cfg.ReadHeaderTimeout == 0 {
		cfg.ReadHeaderTimeout = 15 * time.Second
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	return &Server{
		cfg:   cfg,
		store: cfg.Store,
		norm:  cfg.Normalizer,
		m:     cfg.Metrics,
	}
}

// Store returns the store the server dispatches to.
func (s *Server) Store() bins.Bins { return s.store }

// Serve listens on cfg.Addr and serves until ctx is canceled, then shuts down
// gracefully within cfg.ShutdownTimeout.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener is Serve on an existing listener.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Routes(),
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}
	return RunHTTPServer(ctx, srv, ln, s.cfg.ShutdownTimeout)
}

// RunHTTPServer serves srv on ln until ctx is canceled, then shuts it down.
// http.ErrServerClosed is not reported as an error.
func RunHTTPServer(ctx context.Context, srv *http.Server, ln net.Listener, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	log.Info().Str("addr", ln.Addr().String()).Msg("http server started")

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shCtx); err != nil {
		return fmt.Errorf("shutdown %s: %w", ln.Addr(), err)
	}
	log.Info().Str("addr", ln.Addr().String()).Msg("http server stopped")
	return nil
}

// instrument gives every request an id and a request-scoped logger, and
// reports its outcome to the metrics.
func (s *Server) instrument(op Op, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := uuid.Must(uuid.NewV7()).String()

		logger := log.With().
			Str("request_id", reqID).
			Str("op", string(op)).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Logger()
		r = r.WithContext(logger.WithContext(r.Context()))

		s.m.InflightAdd(reqID, r.Method+" "+r.URL.RequestURI())
		defer s.m.InflightRemove(reqID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.m.ObserveRequest(string(op), rec.status, time.Since(start).Seconds())
		logger.Debug().Int("status", rec.status).Dur("latency", time.Since(start)).Msg("served")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func reqLogger(r *http.Request) *zerolog.Logger {
	return zerolog.Ctx(r.Context())
}

type nopMetrics struct{}

func (nopMetrics) InflightAdd(string, string)          {}
func (nopMetrics) InflightRemove(string)               {}
func (nopMetrics) ObserveRequest(string, int, float64) {}
func (nopMetrics) IncBins()                            {}
func (nopMetrics) DecBins()                            {}
func (nopMetrics) IncCaptured()                        {}
