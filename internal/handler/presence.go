package handler

import (
	"encoding/json"
	"net/http"

	"putrace/internal/httputil"
	"putrace/internal/model"
	"putrace/internal/service"
	"putrace/internal/transport/http/middleware"
)

// PresenceHandler exposes the presence heartbeat endpoint.
type PresenceHandler struct {
	presenceService *service.PresenceService
}

// NewPresenceHandler wires dependencies for presence endpoints.
func NewPresenceHandler(presenceService *service.PresenceService) *PresenceHandler {
	return &PresenceHandler{presenceService: presenceService}
}

// Heartbeat records a coarse location heartbeat with a bounded TTL.
// POST /presence/heartbeat
func (h *PresenceHandler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	var req model.HeartbeatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	if req.GeoHash == "" {
		httputil.WriteBadRequest(w, "geo_hash is required")
		return
	}

	presence, err := h.presenceService.Heartbeat(r.Context(), userID, req.GeoHash, req.TTLSeconds)
	if err != nil {
		httputil.WriteInternalError(w, "Failed to record heartbeat")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, presence)
}
