// Package server exposes interactive cluster views over HTTP.
//
// Every client creates its own session, then drives it with the same events
// the interactive canvas produces: node clicks, hide toggles, and resets.
// Responses carry the recomputed view, and /svg returns the rendered
// drawing through the render cache.
//
//	POST   /sessions                                   create a session
//	GET    /sessions/{id}                              current view
//	POST   /sessions/{id}/nodes/{nodeID}/click         toggle collapse
//	POST   /sessions/{id}/clusters/{clusterID}/hide    toggle hidden
//	POST   /sessions/{id}/reset                        initial state
//	GET    /sessions/{id}/svg                          rendered view
//	DELETE /sessions/{id}                              end the session
//	GET    /healthz, /metrics
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/clusterview/pkg/graph"
	"github.com/matzehuels/clusterview/pkg/session"
)

// Options configures a Server.
type Options struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// RenderCache is optional; without it every /svg request renders.
	RenderCache *session.RenderCache

	// Gatherer backs /metrics. Defaults to the global Prometheus registry.
	Gatherer prometheus.Gatherer

	Logger *log.Logger
}

// Server serves sessions of a single dataset.
type Server struct {
	data     *graph.Dataset
	registry *session.Registry
	opts     Options
	logger   *log.Logger
	router   chi.Router
}

// New creates a server for d. Session options apply to every session.
func New(d *graph.Dataset, opts Options, sessOpts ...session.Option) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	s := &Server{
		data:     d,
		registry: session.NewRegistry(append([]session.Option{session.WithLogger(opts.Logger)}, sessOpts...)...),
		opts:     opts,
		logger:   opts.Logger,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger(s.logger))

	r.Get("/healthz", s.health)
	r.Handle("/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.createSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", s.getSession)
			r.Delete("/", s.deleteSession)
			r.Post("/nodes/{nodeID}/click", s.clickNode)
			r.Post("/clusters/{clusterID}/hide", s.toggleHidden)
			r.Post("/reset", s.reset)
			r.Get("/svg", s.svg)
		})
	})
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Registry returns the live sessions.
func (s *Server) Registry() *session.Registry { return s.registry }

// Run listens on the configured address until ctx is canceled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.opts.Addr,
		Handler:      s.router,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.opts.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down", "sessions", s.registry.Len())
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
