package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"putrace/internal/httputil"
	"putrace/internal/model"
	"putrace/internal/service"
	"putrace/internal/transport/http/middleware"
)

// maxProximityTokenTTL bounds client-supplied broadcast token lifetimes.
const maxProximityTokenTTL = 24 * time.Hour

// ProximityHandler exposes broadcast token publish and resolve endpoints.
type ProximityHandler struct {
	proximityService *service.ProximityService
}

// NewProximityHandler wires dependencies for proximity endpoints.
func NewProximityHandler(proximityService *service.ProximityService) *ProximityHandler {
	return &ProximityHandler{proximityService: proximityService}
}

// Publish registers a token the caller is currently broadcasting.
// POST /proximity/publish
func (h *ProximityHandler) Publish(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	var req model.PublishTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	if req.Token == "" {
		httputil.WriteBadRequest(w, "Token is required")
		return
	}

	ttl := time.Duration(req.TTLSeconds) * time.Second
	if ttl < 0 || ttl > maxProximityTokenTTL {
		httputil.WriteBadRequest(w, "Invalid ttl_seconds")
		return
	}

	if err := h.proximityService.Publish(r.Context(), userID, req.Token, ttl); err != nil {
		httputil.WriteInternalError(w, "Failed to publish token")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, map[string]string{
		"message": "Token published",
	})
}

// Resolve maps an overheard token to a masked identity. Denials are a normal
// 200 response with allowed=false; the caller learns nothing else.
// POST /proximity/resolve
func (h *ProximityHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	var req model.ResolveTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	if req.Token == "" {
		httputil.WriteBadRequest(w, "Token is required")
		return
	}

	resp, err := h.proximityService.Resolve(r.Context(), userID, req.Token)
	if err != nil {
		httputil.WriteInternalError(w, "Failed to resolve token")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}
