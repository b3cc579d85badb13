package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"putrace/internal/httputil"
	"putrace/internal/model"
	"putrace/internal/service"
	"putrace/internal/transport/http/middleware"
)

// AvailabilityHandler groups availability signal endpoints.
type AvailabilityHandler struct {
	contentService *service.ContentService
}

// NewAvailabilityHandler wires dependencies for availability endpoints.
func NewAvailabilityHandler(contentService *service.ContentService) *AvailabilityHandler {
	return &AvailabilityHandler{contentService: contentService}
}

// Upsert sets the caller's availability signal. Opening the signal triggers
// an async fan-out to the configured audience.
// PUT /availability
func (h *AvailabilityHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	var req model.UpsertAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	av, err := h.contentService.UpsertAvailability(r.Context(), userID, &req)
	if err != nil {
		if errors.Is(err, model.ErrInvalidVisibility) {
			httputil.WriteBadRequest(w, "Invalid audience rule")
			return
		}
		httputil.WriteInternalError(w, "Failed to update availability")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, av)
}

// Get returns the caller's current availability signal, or an empty closed
// signal when none has ever been set.
// GET /availability
func (h *AvailabilityHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	av, err := h.contentService.GetAvailability(r.Context(), userID)
	if err != nil {
		httputil.WriteInternalError(w, "Failed to get availability")
		return
	}
	if av == nil {
		av = &model.Availability{UserID: userID, Open: false}
	}

	httputil.WriteJSON(w, http.StatusOK, av)
}
