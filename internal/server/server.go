package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"product-dashboard/internal/catalog"
	"product-dashboard/internal/config"
	"product-dashboard/internal/events"
	"product-dashboard/internal/metrics"
	custommiddleware "product-dashboard/internal/middleware"
	"product-dashboard/internal/repository"
	"product-dashboard/internal/service"
	"product-dashboard/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// HealthFunc reports the state of the product store
type HealthFunc func(ctx context.Context) map[string]string

// Dependencies are the collaborators built by main. Closers are released by Close in order.
type Dependencies struct {
	Products  repository.ProductRepository
	Catalog   catalog.Source
	Publisher events.Publisher
	Redis     *redis.Client
	Metrics   *metrics.Metrics
	Health    HealthFunc
	Closers   []io.Closer
}

type Server struct {
	*http.Server
	config  *config.Config
	logger  *zap.Logger
	closers []io.Closer
}

func NewServer(cfg *config.Config, logger *zap.Logger, deps Dependencies) *Server {
	router := NewRouter(cfg, logger, deps)

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config:  cfg,
		logger:  logger,
		closers: deps.Closers,
	}

	return server
}

// NewRouter wires services, handlers and middleware onto a chi router
func NewRouter(cfg *config.Config, logger *zap.Logger, deps Dependencies) http.Handler {
	router := chi.NewRouter()

	router.Use(custommiddleware.DefaultMiddlewareStack()...)
	router.Use(custommiddleware.LoggingMiddleware(logger, deps.Metrics))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, !cfg.Server.IsProduction()))

	router.Get("/health", healthHandler(deps.Health, logger))
	if deps.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	// Initialize services
	syncService := service.NewSyncService(deps.Catalog, deps.Products, deps.Publisher, deps.Metrics, logger)
	statsService := service.NewStatsService(deps.Products, deps.Metrics)

	// Initialize handlers
	syncHandler := transport.NewSyncHandler(syncService, logger)
	statsHandler := transport.NewStatsHandler(statsService, logger)
	dashboardHandler := transport.NewDashboardHandler(statsService, logger)

	rateLimit := custommiddleware.RateLimitMiddleware(deps.Redis, custommiddleware.RateLimitConfig{
		RequestsPerWindow: cfg.RateLimit.Requests,
		Window:            cfg.RateLimit.Window,
		KeyPrefix:         "rate_limit:sync",
	}, logger)

	// Register routes
	syncHandler.RegisterRoutes(router,
		custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger),
		custommiddleware.RequireScope(custommiddleware.ScopeSync, cfg.JWT.Secret, logger),
		rateLimit,
	)
	statsHandler.RegisterRoutes(router)
	dashboardHandler.RegisterRoutes(router)

	return router
}

func healthHandler(health HealthFunc, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if health == nil {
			custommiddleware.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
			return
		}

		store := health(r.Context())
		if store["status"] != "up" {
			logger.Warn("Store health check failed", zap.String("error", store["error"]))
			delete(store, "error")
			custommiddleware.RespondWithJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"status": "unavailable",
				"store":  store,
			})
			return
		}

		custommiddleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
			"status": "ok",
			"store":  store,
		})
	}
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	var firstErr error
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			s.logger.Error("Failed to close resource", zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	s.logger.Sync()
	return firstErr
}
