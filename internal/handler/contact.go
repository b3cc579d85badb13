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

// ContactHandler exposes the contact export import endpoint.
type ContactHandler struct {
	importService *service.ImportService
}

// NewContactHandler wires dependencies for contact endpoints.
func NewContactHandler(importService *service.ImportService) *ContactHandler {
	return &ContactHandler{importService: importService}
}

// Import parses a previously uploaded contact export and replaces the
// caller's contact tokens. The upload path must belong to the caller.
// POST /contacts/import
func (h *ContactHandler) Import(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	var req model.ImportContactsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	if req.FilePath == "" {
		httputil.WriteBadRequest(w, "file_path is required")
		return
	}
	if req.BucketName == "" {
		httputil.WriteBadRequest(w, "bucket_name is required")
		return
	}

	count, err := h.importService.ImportExport(r.Context(), userID, req.FilePath, req.BucketName)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidExportPath):
			httputil.WriteForbidden(w, "Upload path does not belong to the caller")
		case errors.Is(err, service.ErrUnsupportedExport):
			httputil.WriteBadRequest(w, "Unsupported export format")
		case errors.Is(err, service.ErrMissingBucket):
			httputil.WriteBadRequest(w, "bucket_name is required")
		default:
			httputil.WriteInternalError(w, "Failed to import contacts")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, model.ImportContactsResponse{
		TokensWritten: count,
	})
}
