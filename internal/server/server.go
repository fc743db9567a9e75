// Package server exposes the analysis service over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/KaramelBytes/csvsentry/internal/logging"
	"github.com/KaramelBytes/csvsentry/internal/metrics"
	"github.com/KaramelBytes/csvsentry/internal/service"
	"github.com/KaramelBytes/csvsentry/internal/utils"
)

// Options tunes the HTTP layer.
type Options struct {
	// Timeout bounds each request. Zero disables the timeout middleware.
	Timeout        time.Duration
	MaxUploadBytes int64
	// ShutdownTimeout bounds graceful shutdown in ListenAndServe.
	ShutdownTimeout time.Duration
}

// Server holds the router and its dependencies.
type Server struct {
	svc      *service.Service
	logger   *zap.Logger
	metrics  *metrics.Recorder
	validate *validator.Validate
	opts     Options
	router   chi.Router
}

// New builds the router. rec may be nil, in which case /metrics is not mounted.
func New(svc *service.Service, logger *zap.Logger, rec *metrics.Recorder, opts Options) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 32 << 20
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 15 * time.Second
	}
	s := &Server{
		svc:      svc,
		logger:   logging.Component(logger, "server"),
		metrics:  rec,
		validate: newValidator(),
		opts:     opts,
	}
	s.router = s.routes(logger)
	return s
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("filename", func(fl validator.FieldLevel) bool {
		return utils.CheckName(fl.Field().String()) == nil
	})
	return v
}

func (s *Server) routes(logger *zap.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.Middleware(logger))
	r.Use(middleware.Recoverer)
	if s.opts.Timeout > 0 {
		r.Use(middleware.Timeout(s.opts.Timeout))
	}
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "ok"})
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/upload", func(r chi.Router) {
		r.Post("/", s.handleUpload)
		r.Get("/", s.handleListFiles)
	})
	r.Route("/analysis", func(r chi.Router) {
		r.Post("/{fileName}", s.handleAnalyze)
		r.Get("/{fileName}", s.handleGetResult)
	})
	r.Post("/notification", s.handleNotification)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		renderError(w, r, NewAPIError(http.StatusNotFound, "NOT_FOUND", "Cannot "+r.Method+" "+r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		renderError(w, r, NewAPIError(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed"))
	})
	return r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
