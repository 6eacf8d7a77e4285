package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/washtrack/washtrack/internal/cleanup"
)

type CleanupHandler struct {
	sweeper *cleanup.Sweeper
}

func NewCleanupHandler(s *cleanup.Sweeper) *CleanupHandler {
	return &CleanupHandler{sweeper: s}
}

type cleanupRequest struct {
	DaysOld int `json:"daysOld"`
}

// RunCleanup triggers the storage sweep. Unlike the best-effort deletes in
// the wash flow, a failing sweep is reported as a failure.
func (h *CleanupHandler) RunCleanup(w http.ResponseWriter, r *http.Request) {
	var req cleanupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	deleted, err := h.sweeper.Run(r.Context(), req.DaysOld)
	if errors.Is(err, cleanup.ErrInvalidDaysOld) {
		http.Error(w, "Invalid daysOld parameter", http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, "Failed to cleanup old images", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]string{
		"message": fmt.Sprintf("Successfully deleted %d unreferenced images older than %d days", deleted, req.DaysOld),
	}, http.StatusOK)
}
