package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"putrace/internal/httputil"
	"putrace/internal/model"
	"putrace/internal/service"
	"putrace/internal/transport/http/middleware"
)

// GroupHandler groups audience group CRUD endpoints.
type GroupHandler struct {
	contentService *service.ContentService
}

// NewGroupHandler wires dependencies for audience group endpoints.
func NewGroupHandler(contentService *service.ContentService) *GroupHandler {
	return &GroupHandler{contentService: contentService}
}

// Create creates a new audience group owned by the caller.
// POST /groups
func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	var req model.UpsertGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	group, err := h.contentService.CreateGroup(r.Context(), userID, &req)
	if err != nil {
		httputil.WriteInternalError(w, "Failed to create group")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, group)
}

// Update replaces a group's name and members. Posts referencing the group
// get their audiences recomputed asynchronously.
// PUT /groups/{groupID}
func (h *GroupHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	groupID := chi.URLParam(r, "groupID")

	var req model.UpsertGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	group, err := h.contentService.UpdateGroup(r.Context(), userID, groupID, &req)
	if err != nil {
		if errors.Is(err, model.ErrGroupNotFound) {
			httputil.WriteNotFound(w, "Group not found")
			return
		}
		httputil.WriteInternalError(w, "Failed to update group")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, group)
}

// Delete removes a group. Posts referencing it keep their remaining groups.
// DELETE /groups/{groupID}
func (h *GroupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	groupID := chi.URLParam(r, "groupID")

	if err := h.contentService.DeleteGroup(r.Context(), userID, groupID); err != nil {
		if errors.Is(err, model.ErrGroupNotFound) {
			httputil.WriteNotFound(w, "Group not found")
			return
		}
		httputil.WriteInternalError(w, "Failed to delete group")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Group deleted",
	})
}

// List returns all groups owned by the caller.
// GET /groups
func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	groups, err := h.contentService.ListGroups(r.Context(), userID)
	if err != nil {
		httputil.WriteInternalError(w, "Failed to list groups")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"groups": groups,
	})
}
