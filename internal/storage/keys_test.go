package storage_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/washtrack/washtrack/internal/storage"
	"github.com/washtrack/washtrack/pkg/models"
)

const maxBytes = int64(1024 * 1024)

func TestValidateUpload(t *testing.T) {
	tests := []struct {
		name      string
		fileType  string
		imageType models.ImageType
		fileSize  int64
		wantErr   error
	}{
		{"JPEG", "image/jpeg", models.ImageBefore, 1000, nil},
		{"PNG", "image/png", models.ImageAfter, 1000, nil},
		{"WebP", "image/webp", models.ImageBefore, 1000, nil},
		{"HEIC", "image/heic", models.ImageBefore, 1000, nil},
		{"HEIF", "image/heif", models.ImageAfter, 1000, nil},
		{"AtSizeLimit", "image/jpeg", models.ImageBefore, maxBytes, nil},
		{"TextPlain", "text/plain", models.ImageBefore, 1000, storage.ErrInvalidFileType},
		{"GIF", "image/gif", models.ImageBefore, 1000, storage.ErrInvalidFileType},
		{"EmptyType", "", models.ImageBefore, 1000, storage.ErrInvalidFileType},
		{"UnknownSlot", "image/jpeg", models.ImageType("during"), 1000, storage.ErrInvalidImageSlot},
		{"OverSizeLimit", "image/jpeg", models.ImageAfter, maxBytes + 1, storage.ErrFileTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := storage.ValidateUpload(tt.fileType, tt.imageType, tt.fileSize, maxBytes)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestObjectKey(t *testing.T) {
	at := time.Date(2026, 8, 28, 23, 59, 0, 0, time.UTC)
	key := storage.ObjectKey("washes", 42, models.ImageBefore, "image/jpeg", at)

	parts := strings.Split(key, "/")
	if len(parts) != 5 {
		t.Fatalf("expected 5 path segments, got %d: %q", len(parts), key)
	}
	if parts[0] != "washes" || parts[1] != "42" || parts[2] != "2026-08-28" || parts[3] != "before" {
		t.Fatalf("unexpected key layout: %q", key)
	}
	if !strings.HasSuffix(parts[4], ".jpeg") {
		t.Fatalf("expected extension from content type, got %q", parts[4])
	}

	// filenames are random: two keys for the same inputs never collide
	other := storage.ObjectKey("washes", 42, models.ImageBefore, "image/jpeg", at)
	if key == other {
		t.Fatalf("expected unique filenames, got %q twice", key)
	}
}

func TestObjectKey_UTCDate(t *testing.T) {
	// a local timestamp lands in the bucket of its UTC day
	loc := time.FixedZone("UTC+10", 10*60*60)
	at := time.Date(2026, 8, 29, 5, 0, 0, 0, loc) // 2026-08-28T19:00Z
	key := storage.ObjectKey("washes", 1, models.ImageAfter, "image/png", at)
	if !strings.Contains(key, "/2026-08-28/") {
		t.Fatalf("expected UTC date partition, got %q", key)
	}
}
