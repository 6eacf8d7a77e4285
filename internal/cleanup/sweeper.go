package cleanup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/washtrack/washtrack/internal/storage"
	"github.com/washtrack/washtrack/pkg/repository"
)

// ErrInvalidDaysOld rejects sweeps with a non-positive age threshold.
var ErrInvalidDaysOld = errors.New("daysOld must be at least 1")

// Sweeper removes aged, unreferenced photo objects from storage. An object
// survives the sweep if it is newer than the cutoff or if any wash_images
// row still references its key.
type Sweeper struct {
	store  storage.ObjectStore
	washes repository.WashRepo
	prefix string
	logger *slog.Logger
}

func NewSweeper(store storage.ObjectStore, washes repository.WashRepo, prefix string, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{store: store, washes: washes, prefix: prefix, logger: logger}
}

// Run deletes every object under the sweep prefix whose last-modified time
// is strictly older than now minus daysOld days and whose key is not in
// use. It returns the number of objects deleted. Listing or deletion
// failures fail the whole sweep; there is no partial-success tracking.
func (s *Sweeper) Run(ctx context.Context, daysOld int) (int, error) {
	if daysOld < 1 {
		return 0, ErrInvalidDaysOld
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -daysOld)

	keys, err := s.washes.ListImageKeys(ctx)
	if err != nil {
		return 0, fmt.Errorf("list in-use keys: %w", err)
	}
	inUse := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		inUse[k] = struct{}{}
	}

	objects, err := s.store.List(ctx, s.prefix)
	if err != nil {
		return 0, fmt.Errorf("list objects: %w", err)
	}

	var candidates []string
	for _, obj := range objects {
		if !obj.LastModified.Before(cutoff) {
			continue
		}
		if _, ok := inUse[obj.Key]; ok {
			continue
		}
		candidates = append(candidates, obj.Key)
	}

	if len(candidates) == 0 {
		s.logger.Info("cleanup sweep found nothing to delete", slog.Int("days_old", daysOld))
		return 0, nil
	}

	if err := s.store.RemoveAll(ctx, candidates); err != nil {
		return 0, fmt.Errorf("bulk delete: %w", err)
	}

	s.logger.Info("cleanup sweep deleted objects",
		slog.Int("deleted", len(candidates)),
		slog.Int("days_old", daysOld),
	)

	return len(candidates), nil
}
