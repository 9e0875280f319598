package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/notafacil/nfce-collector/internal/feedback"
	"github.com/notafacil/nfce-collector/internal/ingestion"
)

// NewRouter creates the Chi router with all routes mounted.
func NewRouter(ingestionSvc *ingestion.Service, feedbackQueue *feedback.Queue) http.Handler {
	h := &Handlers{
		ingestionSvc: ingestionSvc,
		feedback:     feedbackQueue,
	}

	r := chi.NewRouter()

	// Middleware.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/", h.Health)
	r.Post("/nota", h.CreateNota)
	r.Get("/feedback", h.PopFeedback)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
