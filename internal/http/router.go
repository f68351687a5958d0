package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// ReadinessFunc reports whether the service can process transcripts.
type ReadinessFunc func(ctx context.Context) error

// NewRouter constructs the HTTP router for the service.
func NewRouter(h *Handler, ready ReadinessFunc) http.Handler {
	r := chi.NewRouter()

	// Basic middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors)

	// Health endpoints
	r.Get("/v1/liveness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/v1/readiness", func(w http.ResponseWriter, r *http.Request) {
		if ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
			defer cancel()
			if err := ready(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("not ready: " + err.Error()))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Post("/upload-transcript", h.UploadTranscript)
		r.Post("/save-transcript", h.SaveTranscript)
		r.Post("/transcribe", h.Transcribe)
		r.Get("/transcripts/{name}", h.GetTranscript)
		r.Get("/schema/structured-transcript", h.Schema)
	})

	return r
}
