package transport

import (
	"fmt"
	"net/http"

	"product-dashboard/internal/middleware"
	"product-dashboard/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// SyncResponse is returned after a successful catalog synchronization
type SyncResponse struct {
	Message string `json:"message"`
	RunID   string `json:"runId"`
	Saved   int    `json:"saved"`
	Skipped int    `json:"skipped"`
}

// SyncHandler handles HTTP requests that pull the external catalog into the store
type SyncHandler struct {
	syncService service.SyncService
	logger      *zap.Logger
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(syncService service.SyncService, logger *zap.Logger) *SyncHandler {
	return &SyncHandler{
		syncService: syncService,
		logger:      logger,
	}
}

// RegisterRoutes registers the sync route behind the given guards
func (h *SyncHandler) RegisterRoutes(r chi.Router, guards ...func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(guards...)
		r.Get("/sync", h.Sync)
	})
}

// Sync fetches the catalog and upserts every product
func (h *SyncHandler) Sync(w http.ResponseWriter, r *http.Request) {
	result, err := h.syncService.Synchronize(r.Context())
	if err != nil {
		h.logger.Error("Catalog synchronization failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to synchronize products from the external catalog")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, SyncResponse{
		Message: fmt.Sprintf("Sync completed: %d products saved/updated.", result.Saved),
		RunID:   result.RunID.String(),
		Saved:   result.Saved,
		Skipped: result.Skipped,
	})
}
