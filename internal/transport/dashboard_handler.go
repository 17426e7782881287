package transport

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"product-dashboard/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

//go:embed templates/dashboard.html
var templateFS embed.FS

var dashboardTemplate = template.Must(
	template.New("dashboard.html").
		Funcs(template.FuncMap{"share": share}).
		ParseFS(templateFS, "templates/dashboard.html"),
)

// share is the percentage of total taken by count, used for the bar widths
func share(count, total int) int {
	if total <= 0 {
		return 0
	}
	return count * 100 / total
}

// DashboardHandler renders the stats as an HTML page
type DashboardHandler struct {
	statsService service.StatsService
	logger       *zap.Logger
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(statsService service.StatsService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		statsService: statsService,
		logger:       logger,
	}
}

// RegisterRoutes registers the dashboard and the root redirect
func (h *DashboardHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Root)
	r.Get("/dashboard", h.Dashboard)
}

// Root redirects to the dashboard
func (h *DashboardHandler) Root(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

// Dashboard renders the same view model as GET /api/stats
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.statsService.ComputeStats(r.Context())
	if err != nil {
		h.logger.Error("Failed to load dashboard", zap.Error(err))
		http.Error(w, "Failed to load dashboard.", http.StatusInternalServerError)
		return
	}

	// Render into a buffer so a template failure still yields a clean 500
	var buf bytes.Buffer
	if err := dashboardTemplate.Execute(&buf, NewStatsResponse(stats)); err != nil {
		h.logger.Error("Failed to render dashboard", zap.Error(err))
		http.Error(w, "Failed to load dashboard.", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}
