package transport

import (
	"net/http"

	"product-dashboard/internal/domain"
	"product-dashboard/internal/middleware"
	"product-dashboard/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CategoryStat is one byCategory entry. The group key is exposed both as
// "_id", which existing dashboards read, and as "category".
type CategoryStat struct {
	ID       string `json:"_id"`
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// StatsResponse is the shared view model of the JSON API and the HTML dashboard
type StatsResponse struct {
	TotalProducts int            `json:"totalProducts"`
	AvgPrice      float64        `json:"avgPrice"`
	ByCategory    []CategoryStat `json:"byCategory"`
}

// NewStatsResponse converts domain stats to the response DTO
func NewStatsResponse(stats *domain.Stats) StatsResponse {
	resp := StatsResponse{
		TotalProducts: stats.TotalProducts,
		AvgPrice:      stats.AvgPrice,
		ByCategory:    make([]CategoryStat, 0, len(stats.ByCategory)),
	}
	for _, c := range stats.ByCategory {
		resp.ByCategory = append(resp.ByCategory, CategoryStat{
			ID:       c.Category,
			Category: c.Category,
			Count:    c.Count,
		})
	}
	return resp
}

// StatsHandler serves aggregated product statistics as JSON
type StatsHandler struct {
	statsService service.StatsService
	logger       *zap.Logger
}

// NewStatsHandler creates a new StatsHandler
func NewStatsHandler(statsService service.StatsService, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{
		statsService: statsService,
		logger:       logger,
	}
}

// RegisterRoutes registers the stats API routes
func (h *StatsHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/stats", h.GetStats)
	})
}

// GetStats returns total count, mean price and per-category counts
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.statsService.ComputeStats(r.Context())
	if err != nil {
		h.logger.Error("Failed to compute stats", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to compute product statistics")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, NewStatsResponse(stats))
}
