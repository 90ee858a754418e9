// Package v0 provides the REST API handlers for the sync engine.
package v0

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/bandroom-dev/bandroom-sync-server/internal/logger"
	"github.com/bandroom-dev/bandroom-sync-server/internal/review"
	"github.com/bandroom-dev/bandroom-sync-server/internal/store"
	syncpkg "github.com/bandroom-dev/bandroom-sync-server/internal/sync"
	"github.com/bandroom-dev/bandroom-sync-server/internal/versions"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// CancelResponse acknowledges a cancel request
type CancelResponse struct {
	SyncID uuid.UUID      `json:"syncId"`
	Status syncpkg.Status `json:"status"`
}

// ResolveRequest is the body for a review resolution
type ResolveRequest struct {
	Decision          review.Decision     `json:"decision"`
	ChosenAlternative *store.CatalogMatch `json:"chosenAlternative,omitempty"`
}

// Routes defines the routes for the sync API with dependency injection
type Routes struct {
	registry     syncpkg.Registry
	orchestrator *syncpkg.Orchestrator
	reviews      review.Service
}

// NewRoutes creates a new Routes instance with the provided components
func NewRoutes(registry syncpkg.Registry, orchestrator *syncpkg.Orchestrator, reviews review.Service) *Routes {
	return &Routes{
		registry:     registry,
		orchestrator: orchestrator,
		reviews:      reviews,
	}
}

// Router creates a new router for the sync API
func Router(registry syncpkg.Registry, orchestrator *syncpkg.Orchestrator, reviews review.Service) http.Handler {
	routes := NewRoutes(registry, orchestrator, reviews)

	r := chi.NewRouter()

	r.Post("/sync", routes.startSync)
	r.Post("/sync/cancel", routes.cancelSync)
	r.Get("/sync/{syncId}", routes.getSyncStatus)

	r.Get("/reviews", routes.getPendingReview)
	r.Get("/reviews/{reviewId}", routes.getReview)
	r.Post("/reviews/{reviewId}/resolve", routes.resolveReview)

	return r
}

// startSync handles POST /api/v0/sync
//
// The response is a server-sent-event stream; the first frame carries the
// sync id. The job runs on this goroutine but is detached from the request
// context, so a dropped client connection does not stop it.
func (rr *Routes) startSync(w http.ResponseWriter, r *http.Request) {
	var req syncpkg.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rr.writeErrorResponse(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		rr.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	job := rr.registry.Create(req.Kind)
	enc := syncpkg.NewEncoder(w)

	// The job lifecycle is independent of the viewing connection; only an
	// explicit cancel call stops it.
	rr.orchestrator.Run(context.WithoutCancel(r.Context()), job, req, enc)
}

// cancelSync handles POST /api/v0/sync/cancel?syncId=...
//
// Cancellation is acknowledged here and observed by the running job at its
// next unit boundary. Cancelling a finished job is a no-op.
func (rr *Routes) cancelSync(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.URL.Query().Get("syncId"))
	if err != nil {
		rr.writeErrorResponse(w, "Invalid or missing syncId", http.StatusBadRequest)
		return
	}

	job, err := rr.registry.RequestCancel(id)
	if err != nil {
		if errors.Is(err, syncpkg.ErrJobNotFound) {
			rr.writeErrorResponse(w, "Sync job not found", http.StatusNotFound)
			return
		}
		logger.Errorf("Failed to cancel sync %s: %v", id, err)
		rr.writeErrorResponse(w, "Failed to cancel sync", http.StatusInternalServerError)
		return
	}

	rr.writeJSONResponse(w, CancelResponse{SyncID: job.ID, Status: job.Status})
}

// getSyncStatus handles GET /api/v0/sync/{syncId}
func (rr *Routes) getSyncStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "syncId"))
	if err != nil {
		rr.writeErrorResponse(w, "Invalid syncId", http.StatusBadRequest)
		return
	}

	job, ok := rr.registry.Get(id)
	if !ok {
		rr.writeErrorResponse(w, "Sync job not found", http.StatusNotFound)
		return
	}

	rr.writeJSONResponse(w, job)
}

// getPendingReview handles GET /api/v0/reviews?songId=...
func (rr *Routes) getPendingReview(w http.ResponseWriter, r *http.Request) {
	songID, err := uuid.Parse(r.URL.Query().Get("songId"))
	if err != nil {
		rr.writeErrorResponse(w, "Invalid or missing songId", http.StatusBadRequest)
		return
	}

	candidate, err := rr.reviews.GetPendingForSong(r.Context(), songID)
	if err != nil {
		if errors.Is(err, review.ErrNotFound) {
			rr.writeErrorResponse(w, "No pending review for song", http.StatusNotFound)
			return
		}
		logger.Errorf("Failed to fetch pending review for song %s: %v", songID, err)
		rr.writeErrorResponse(w, "Failed to fetch review", http.StatusInternalServerError)
		return
	}

	rr.writeJSONResponse(w, candidate)
}

// getReview handles GET /api/v0/reviews/{reviewId}
func (rr *Routes) getReview(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "reviewId"))
	if err != nil {
		rr.writeErrorResponse(w, "Invalid reviewId", http.StatusBadRequest)
		return
	}

	candidate, err := rr.reviews.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, review.ErrNotFound) {
			rr.writeErrorResponse(w, "Review not found", http.StatusNotFound)
			return
		}
		logger.Errorf("Failed to fetch review %s: %v", id, err)
		rr.writeErrorResponse(w, "Failed to fetch review", http.StatusInternalServerError)
		return
	}

	rr.writeJSONResponse(w, candidate)
}

// resolveReview handles POST /api/v0/reviews/{reviewId}/resolve
func (rr *Routes) resolveReview(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "reviewId"))
	if err != nil {
		rr.writeErrorResponse(w, "Invalid reviewId", http.StatusBadRequest)
		return
	}

	var req ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rr.writeErrorResponse(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if !req.Decision.Valid() {
		rr.writeErrorResponse(w, "Decision must be APPROVE or REJECT", http.StatusBadRequest)
		return
	}

	err = rr.reviews.Resolve(r.Context(), id, req.Decision, req.ChosenAlternative)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, review.ErrNotFound):
		rr.writeErrorResponse(w, "Review not found", http.StatusNotFound)
	case errors.Is(err, review.ErrAlreadyResolved):
		rr.writeErrorResponse(w, "Review already resolved", http.StatusConflict)
	default:
		logger.Errorf("Failed to resolve review %s: %v", id, err)
		rr.writeErrorResponse(w, "Failed to resolve review", http.StatusInternalServerError)
	}
}

// HealthRouter creates a router for health check endpoints
func HealthRouter(st store.Store) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", healthHandler)
	r.Get("/readiness", readinessHandler(st))
	r.Get("/version", versionHandler)

	return r
}

// healthHandler handles health check requests
func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

// readinessHandler handles readiness check requests
func readinessHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := st.Ping(r.Context()); err != nil {
			errorResp := ErrorResponse{
				Error: "Store not ready: " + err.Error(),
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			if encodeErr := json.NewEncoder(w).Encode(errorResp); encodeErr != nil {
				logger.Errorf("Failed to encode readiness error response: %v", encodeErr)
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	}
}

// versionHandler handles version information requests
func versionHandler(w http.ResponseWriter, _ *http.Request) {
	info := versions.GetVersionInfo()

	response := map[string]string{
		"version":    info.Version,
		"commit":     info.Commit,
		"build_date": info.BuildDate,
		"go_version": info.GoVersion,
		"platform":   info.Platform,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Errorf("Failed to encode version info: %v", err)
	}
}

// writeJSONResponse writes a JSON response with the given data
func (*Routes) writeJSONResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Errorf("Failed to encode JSON response: %v", err)
	}
}

// writeErrorResponse writes a standardized error response
func (*Routes) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	errorResp := ErrorResponse{
		Error: message,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(errorResp); err != nil {
		logger.Errorf("Failed to encode error response: %v", err)
	}
}
