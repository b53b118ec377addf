package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nicu-finder/internal/api/handlers"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// Handlers stay unaware of concrete adapters.
func NewRouter(searcher handlers.Searcher) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware)
	r.Use(middleware.Recoverer)

	search := &handlers.SearchHandler{Searcher: searcher}
	metrics := promhttp.Handler()

	r.Get("/health", handlers.Health)
	r.Get("/api/search-nicus", search.Search)
	r.Method(http.MethodGet, "/metrics", metrics)
	r.Method(http.MethodGet, "/api/metrics", metrics)

	return r
}
