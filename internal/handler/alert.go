package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"putrace/internal/httputil"
	"putrace/internal/model"
	"putrace/internal/service"
	"putrace/internal/transport/http/middleware"
)

// AlertHandler groups alert inbox and device token endpoints.
type AlertHandler struct {
	alertService *service.AlertService
}

// NewAlertHandler wires dependencies for alert endpoints.
func NewAlertHandler(alertService *service.AlertService) *AlertHandler {
	return &AlertHandler{alertService: alertService}
}

// List returns the caller's alerts, newest first.
// GET /alerts?limit=20
func (h *AlertHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			httputil.WriteBadRequest(w, "Invalid limit")
			return
		}
		limit = parsed
	}

	resp, err := h.alertService.ListAlerts(r.Context(), userID, limit)
	if err != nil {
		httputil.WriteInternalError(w, "Failed to list alerts")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

// RegisterDeviceToken registers an FCM device token for the caller.
// POST /device-tokens
func (h *AlertHandler) RegisterDeviceToken(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	var req model.RegisterTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	if req.Token == "" {
		httputil.WriteBadRequest(w, "Token is required")
		return
	}

	if err := h.alertService.RegisterDeviceToken(r.Context(), userID, req.Token, req.Platform); err != nil {
		httputil.WriteInternalError(w, "Failed to register device token")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, map[string]string{
		"message": "Device token registered",
	})
}

// RemoveDeviceToken deletes a device token, typically on logout.
// DELETE /device-tokens
func (h *AlertHandler) RemoveDeviceToken(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetUserIDFromContext(r.Context()); !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	var req model.RegisterTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	if req.Token == "" {
		httputil.WriteBadRequest(w, "Token is required")
		return
	}

	if err := h.alertService.RemoveDeviceToken(r.Context(), req.Token); err != nil {
		httputil.WriteInternalError(w, "Failed to remove device token")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Device token removed",
	})
}
