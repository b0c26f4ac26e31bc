package workflowtest

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// AdminRouter exposes engine state over HTTP: /healthz, /metrics (from
// gatherer, or the default registry when nil), /handles and /handles/{token}.
func (e *Engine) AdminRouter(gatherer prometheus.Gatherer) http.Handler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]any{
			"status": "ok",
			"live":   len(e.Live()),
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})
	router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	router.Route("/handles", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			respondJSON(w, http.StatusOK, map[string]any{
				"handles": e.Handles(),
				"deletes": e.Deletes(),
			})
		})
		r.Get("/{token}", func(w http.ResponseWriter, r *http.Request) {
			handle, ok := e.Lookup(chi.URLParam(r, "token"))
			if !ok {
				respondJSON(w, http.StatusNotFound, map[string]string{"error": "workflow not found"})
				return
			}
			respondJSON(w, http.StatusOK, handle)
		})
	})
	return router
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
