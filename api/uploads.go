package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/washtrack/washtrack/internal/config"
	"github.com/washtrack/washtrack/internal/storage"
	"github.com/washtrack/washtrack/internal/validate"
	"github.com/washtrack/washtrack/pkg/models"
)

type UploadsHandler struct {
	store     storage.ObjectStore
	validator *validate.Validator
	cfg       config.StorageConfig
	maxBytes  int64
}

func NewUploadsHandler(store storage.ObjectStore, v *validate.Validator, scfg config.StorageConfig, ucfg config.UploadConfig) *UploadsHandler {
	return &UploadsHandler{
		store:     store,
		validator: v,
		cfg:       scfg,
		maxBytes:  int64(ucfg.MaxSizeMB) * 1024 * 1024,
	}
}

type uploadRequest struct {
	FileType  string           `json:"fileType"`
	ImageType models.ImageType `json:"imageType"`
	FileSize  int64            `json:"fileSize"`
}

type uploadResponse struct {
	UploadURL string `json:"uploadUrl"`
	Key       string `json:"key"`
	ViewURL   string `json:"viewUrl"`
}

// CreateUpload validates the announced file and mints a presigned write
// URL plus a longer-lived read URL for a fresh namespaced key. Validation
// failures return before any storage call.
func (h *UploadsHandler) CreateUpload(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	if err := h.validator.Check(ctx, validate.UploadRequest, body); err != nil {
		http.Error(w, "Missing required fields", http.StatusBadRequest)
		return
	}

	var req uploadRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	if err := storage.ValidateUpload(req.FileType, req.ImageType, req.FileSize, h.maxBytes); err != nil {
		switch {
		case errors.Is(err, storage.ErrInvalidFileType),
			errors.Is(err, storage.ErrFileTooLarge),
			errors.Is(err, storage.ErrInvalidImageSlot):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			http.Error(w, "Invalid upload request", http.StatusBadRequest)
		}
		return
	}

	key := storage.ObjectKey(h.cfg.Prefix, sess.UserID, req.ImageType, req.FileType, time.Now())

	uploadURL, err := h.store.PresignPut(ctx, key, h.cfg.UploadExpiry)
	if err != nil {
		http.Error(w, "Failed to generate upload URL", http.StatusInternalServerError)
		return
	}

	viewURL, err := h.store.PresignGet(ctx, key, h.cfg.ViewExpiry)
	if err != nil {
		http.Error(w, "Failed to generate upload URL", http.StatusInternalServerError)
		return
	}

	writeJSON(w, uploadResponse{UploadURL: uploadURL, Key: key, ViewURL: viewURL}, http.StatusOK)
}

type viewURLRequest struct {
	Key string `json:"key"`
}

// ViewURL re-mints a read URL for an existing key, for rendering stored
// photos after the original view URL expired.
func (h *UploadsHandler) ViewURL(w http.ResponseWriter, r *http.Request) {
	var req viewURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.Key == "" {
		http.Error(w, "Missing key", http.StatusBadRequest)
		return
	}

	viewURL, err := h.store.PresignGet(r.Context(), req.Key, h.cfg.ViewExpiry)
	if err != nil {
		http.Error(w, "Failed to generate view URL", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]string{"viewUrl": viewURL}, http.StatusOK)
}
