// Package server exposes the generation pipeline and the canvas store over
// HTTP.
//
// Routes:
//
//	POST   /api/ai/generate   {prompt, existingDrawingsJson} → {drawingJson}
//	GET    /api/canvas        → [{id, name, createdAt, updatedAt}]
//	GET    /api/canvas/{id}   → {canvasId, canvasName, drawings}
//	POST   /api/canvas        {canvasName, drawings} → 201 {canvasId}
//	PUT    /api/canvas/{id}   {canvasName?, drawings} → 204
//	DELETE /api/canvas/{id}   → 204
//	GET    /healthz           → 200 ok
//
// Browser calls are allowed from the configured origins only.
//
// Errors are JSON objects {error, code} where code is one of the
// machine-readable codes from the errors package.
package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/sketchcanvas/pkg/canvas"
	"github.com/matzehuels/sketchcanvas/pkg/config"
)

const maxBodyBytes = 1 << 20

// Generator produces a JSON array of shapes for a prompt.
// [*generate.Generator] implements it.
type Generator interface {
	GenerateJSON(ctx context.Context, prompt, existingJSON string) (string, error)
}

// Server is the HTTP API.
type Server struct {
	cfg    config.Server
	gen    Generator
	store  canvas.Store
	logger *log.Logger
	router chi.Router
}

// New wires the routes. A nil logger discards request logs.
func New(cfg config.Server, gen Generator, store canvas.Store, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := &Server{cfg: cfg, gen: gen, store: store, logger: logger}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{"Location"},
		MaxAge:         600,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok")
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/ai/generate", s.handleGenerate)

		r.Route("/canvas", func(r chi.Router) {
			r.Get("/", s.handleListCanvases)
			r.Post("/", s.handleCreateCanvas)
			r.Get("/{id}", s.handleGetCanvas)
			r.Put("/{id}", s.handleReplaceCanvas)
			r.Delete("/{id}", s.handleDeleteCanvas)
		})
	})
	return r
}

// Run serves on cfg.Addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.cfg.WriteTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		timeout := s.cfg.ShutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
