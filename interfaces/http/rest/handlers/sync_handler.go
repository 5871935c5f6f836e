package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/indiafamilytree/familytree/application/services"
)

// SyncHandler handles sync-related HTTP requests
type SyncHandler struct {
	sync   *services.SyncService
	logger *zap.Logger
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(sync *services.SyncService, logger *zap.Logger) *SyncHandler {
	return &SyncHandler{
		sync:   sync,
		logger: logger,
	}
}

// Flush handles POST /sync, running one pass immediately instead of
// waiting for the debounce window.
func (h *SyncHandler) Flush(w http.ResponseWriter, r *http.Request) {
	if err := h.sync.Flush(r.Context()); err != nil {
		// Unconfirmed records retry on the next pass; the caller only
		// needs to know this pass did not fully converge.
		h.logger.Warn("Manual sync pass incomplete", zap.Error(err))
		h.respondJSON(w, http.StatusBadGateway, map[string]interface{}{
			"error":   true,
			"message": err.Error(),
			"code":    http.StatusBadGateway,
		})
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Sync complete",
	})
}

func (h *SyncHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}
