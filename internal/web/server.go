// Package web serves deep-dive results over a local HTTP API.
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/huangsam/deepdive/core"
	"github.com/huangsam/deepdive/internal/contract"
	"github.com/rs/zerolog"
)

// maxBodyBytes caps request bodies accepted by the JSON endpoints.
const maxBodyBytes = 10 << 20

const shutdownTimeout = 5 * time.Second

// Server is the local HTTP surface over the core operations.
type Server struct {
	cfg    *contract.Config
	svc    *core.Services
	router *chi.Mux
	log    zerolog.Logger
}

// NewServer wires routes and middleware for the given services.
func NewServer(cfg *contract.Config, svc *core.Services) *Server {
	s := &Server{
		cfg:    cfg,
		svc:    svc,
		router: chi.NewRouter(),
		log:    contract.ComponentLogger("web"),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/dimensions", s.handleDimensions)
		r.Get("/results", s.handleGetResults)
		r.Delete("/results", s.handleClearResults)
		r.Post("/deep-dive", s.handleDeepDive)
		r.Post("/compare", s.handleCompare)
	})

	s.router.Get("/report", s.handleReportHTML)
	s.router.Get("/report.pdf", s.handleReportPDF)
}

// Handler returns the router for use with http.Server or httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("Serving deepdive API")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// requestLogger logs one line per request through zerolog.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("elapsed", time.Since(start)).
			Msg("HTTP request")
	})
}
