package handlers

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"nicu-finder/internal/api/dto"
	"nicu-finder/internal/domain"
	"nicu-finder/internal/platform/obs"
	"nicu-finder/internal/services"
)

// Searcher runs one NICU search. *services.Pipeline satisfies it.
type Searcher interface {
	Search(ctx context.Context, q services.Query) ([]domain.Candidate, error)
}

type SearchHandler struct {
	Searcher Searcher
}

// Search serves GET /api/search-nicus?location=&radius=&includeDetails=1.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	q := services.Query{
		Location:       params.Get("location"),
		IncludeDetails: params.Get("includeDetails") == "1",
	}
	if raw := strings.TrimSpace(params.Get("radius")); raw != "" {
		radius, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			// Rejected by the pipeline as an invalid radius.
			radius = math.NaN()
		}
		q.RadiusMiles = &radius
	}

	results, err := h.Searcher.Search(r.Context(), q)
	if err != nil {
		status, msg := searchError(err)
		if status >= http.StatusInternalServerError {
			slog.ErrorContext(r.Context(), "search failed", "req_id", obs.RequestID(r.Context()), "status", status, "err", err)
		}
		writeError(w, r, status, msg)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.NewSearchResponse(results))
}

// searchError maps the error taxonomy onto a status and a client-safe message.
// Provider causes stay in the log.
func searchError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrConfig):
		return http.StatusInternalServerError, "API key not configured"
	case errors.Is(err, domain.ErrInvalidRadius):
		return http.StatusBadRequest, "Radius must be a positive number"
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "Location parameter is required"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "Location not found"
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusServiceUnavailable, "Rate limit exceeded, try again later"
	default:
		return http.StatusInternalServerError, "Failed to search for NICU facilities"
	}
}
