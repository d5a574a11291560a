package public

import (
	"context"
	"encoding/json"
	"errors"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/langowen/converter/deploy/config"
	mwLogger "github.com/langowen/converter/internal/converter/ports/http/public/middleware/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"html/template"
	"log/slog"
	"net/http"
	"time"
)

const (
	sessionCookie = "converter_session"
	sessionHeader = "X-Session-ID"
	maxWait       = 15 * time.Second
	pollSeconds   = 1
)

type Server struct {
	Server   *http.Server
	cfg      *config.Config
	sessions Sessions
	page     *template.Template
}

func NewServer(cfg *config.Config, sessions Sessions) *Server {
	s := &Server{
		cfg:      cfg,
		sessions: sessions,
		page:     pageTemplate,
	}

	s.Server = &http.Server{
		Addr:         ":" + cfg.HTTPServer.Port,
		Handler:      s.Router(),
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	return s
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mwLogger.New())
	r.Use(middleware.Recoverer)

	r.Handle("/metrics", promhttp.Handler())

	r.Get("/", s.ShowWidget)
	r.Post("/", s.SubmitWidget)
	r.Post("/unmount", s.UnmountWidget)

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.GetState)
		r.Patch("/state", s.UpdateState)
		r.Delete("/state", s.DeleteState)
		r.Post("/convert", s.Convert)
		r.Post("/refresh", s.Refresh)
	})

	return r
}

// StartServer serves until ctx is done. The returned channel is closed once
// the server has shut down.
func StartServer(ctx context.Context, sessions Sessions, cfg *config.Config) <-chan struct{} {
	server := NewServer(cfg, sessions)

	doneChan := make(chan struct{})

	go func() {
		if err := server.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Http server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to stop server", "error", err)
		}

		close(doneChan)
	}()

	return doneChan
}

func RespondWithJSON(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")

	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func RespondWithError(w http.ResponseWriter, code int, message string, details ...string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)

	errorText := message
	if len(details) > 0 {
		errorText += "\nDetails: " + details[0]
	}

	if _, err := w.Write([]byte(errorText)); err != nil {
		slog.Error("Failed to write error response", "error", err)
	}
}
