package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"putrace/internal/httputil"
	"putrace/internal/model"
	"putrace/internal/service"
	"putrace/internal/transport/http/middleware"
)

// PostHandler groups post-related HTTP endpoints.
type PostHandler struct {
	contentService *service.ContentService
}

// NewPostHandler wires dependencies for post endpoints.
func NewPostHandler(contentService *service.ContentService) *PostHandler {
	return &PostHandler{contentService: contentService}
}

// Create handles post creation. The derived audience is resolved
// asynchronously by the content workers.
// POST /posts
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	var req model.CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	post, err := h.contentService.CreatePost(r.Context(), userID, &req)
	if err != nil {
		writePostError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, post)
}

// Update replaces a post's content and visibility rule.
// PUT /posts/{postID}
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	postID, err := strconv.ParseInt(chi.URLParam(r, "postID"), 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid post ID")
		return
	}

	var req model.UpdatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	post, err := h.contentService.UpdatePost(r.Context(), userID, postID, &req)
	if err != nil {
		writePostError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, post)
}

// Get returns a single post if the viewer is the author or in its audience.
// GET /posts/{postID}
func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	postID, err := strconv.ParseInt(chi.URLParam(r, "postID"), 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid post ID")
		return
	}

	post, err := h.contentService.GetPost(r.Context(), userID, postID)
	if err != nil {
		writePostError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, post)
}

func writePostError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrPostNotFound):
		httputil.WriteNotFound(w, "Post not found")
	case errors.Is(err, model.ErrNotPostAuthor):
		httputil.WriteForbidden(w, "Not the author of this post")
	case errors.Is(err, model.ErrInvalidVisibility):
		httputil.WriteBadRequest(w, "Invalid visibility rule")
	case errors.Is(err, model.ErrInvalidWindow):
		httputil.WriteBadRequest(w, "end_at must not precede start_at")
	case errors.Is(err, model.ErrTextTooLong):
		httputil.WriteBadRequest(w, "Post text too long")
	default:
		httputil.WriteInternalError(w, "Failed to process post")
	}
}
