package storage

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/washtrack/washtrack/pkg/models"
)

// Upload validation errors, detected before any storage call is made.
var (
	ErrInvalidFileType  = errors.New("invalid file type")
	ErrFileTooLarge     = errors.New("file too large")
	ErrInvalidImageSlot = errors.New("invalid image type")
)

// AllowedContentTypes is the MIME allow-list for photo uploads. Clients
// compress to JPEG in practice; the HEIC/HEIF entries cover phones that
// skip compression.
var AllowedContentTypes = []string{
	"image/jpeg",
	"image/png",
	"image/webp",
	"image/heic",
	"image/heif",
}

// ValidateUpload checks the requested content type, image slot and size
// against the allow-list and maxBytes.
func ValidateUpload(fileType string, imageType models.ImageType, fileSize, maxBytes int64) error {
	allowed := false
	for _, t := range AllowedContentTypes {
		if t == fileType {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("%w: %s (allowed: %s)", ErrInvalidFileType, fileType, strings.Join(AllowedContentTypes, ", "))
	}

	if !imageType.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidImageSlot, imageType)
	}

	if fileSize > maxBytes {
		return fmt.Errorf("%w: maximum size %d bytes", ErrFileTooLarge, maxBytes)
	}

	return nil
}

// ObjectKey builds the storage key for a fresh upload:
// {prefix}/{userID}/{YYYY-MM-DD}/{before|after}/{uuid}.{ext}.
// The per-user and per-date partitions keep objects groupable and the
// random filename avoids collisions.
func ObjectKey(prefix string, userID int64, imageType models.ImageType, fileType string, at time.Time) string {
	ext := strings.TrimPrefix(fileType, "image/")
	name := uuid.NewString() + "." + ext
	return fmt.Sprintf("%s/%d/%s/%s/%s", prefix, userID, at.UTC().Format("2006-01-02"), imageType, name)
}
