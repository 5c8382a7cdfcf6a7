package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/akolanti/pharmadoc/internal/adapter/utils"
	"github.com/akolanti/pharmadoc/internal/config"
	"github.com/akolanti/pharmadoc/internal/handlers"
	"github.com/akolanti/pharmadoc/internal/middleware"
	"github.com/akolanti/pharmadoc/pkg/logger_i"
)

type Server struct {
	http   *http.Server
	logger *logger_i.Logger
}

// NewRouter mounts the API. mcpHandler may be nil.
func NewRouter(h *handlers.Handler, mw *middleware.Middleware, mcpHandler http.Handler) *chi.Mux {
	r := utils.NewRouter()

	r.Get("/health", h.HealthHandler)
	r.Post("/upload", mw.Wrap(h.UploadHandler))
	r.Post("/ingest", mw.Wrap(h.PostIngestHandler))
	r.Get("/status/{id}", mw.Wrap(h.GetStatusHandler))
	r.Post("/chat", mw.Wrap(h.ChatHandler))
	r.Post("/chat/stream", mw.Wrap(h.ChatStreamHandler))
	r.Get("/history/{session_id}", mw.Wrap(h.HistoryHandler))
	if mcpHandler != nil {
		r.Handle("/mcp", mw.Handler(mcpHandler))
	}
	return r
}

func New(listenAddr string, handler http.Handler) *Server {
	return &Server{
		http: &http.Server{
			Addr:         listenAddr,
			Handler:      handler,
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
			IdleTimeout:  config.IdleTimeout,
		},
		logger: logger_i.NewLogger("Server"),
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests for at most
// ShutdownContextTimeout.
func (s *Server) Run(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("Server is listening at", "address", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			s.logger.Error("Server crashed", "error", err, "addr", s.http.Addr)
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Server is shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownContextTimeout)
	defer cancel()

	s.http.SetKeepAlivesEnabled(false)
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("Could not shutdown gracefully", "error", err)
		return err
	}
	s.logger.Info("Server stopped gracefully")
	return nil
}
