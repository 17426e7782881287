package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"product-dashboard/internal/catalog"
	"product-dashboard/internal/config"
	"product-dashboard/internal/database"
	"product-dashboard/internal/events"
	"product-dashboard/internal/logger"
	"product-dashboard/internal/metrics"
	"product-dashboard/internal/repository"
	"product-dashboard/internal/server"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func gracefulShutdown(apiServer *server.Server, logger *zap.Logger, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	logger.Info("Shutting down gracefully, press Ctrl+C again to force")
	stop() // Allow Ctrl+C to force shutdown

	// The context is used to inform the server it has 30 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	if err := apiServer.Close(); err != nil {
		logger.Error("Error closing server resources", zap.Error(err))
	}

	logger.Info("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

// openStore connects the configured store and prepares its schema
func openStore(ctx context.Context, cfg config.StoreConfig, log *zap.Logger) (repository.ProductRepository, server.HealthFunc, io.Closer, error) {
	switch cfg.Driver {
	case config.StoreDriverMongo:
		client, db, err := database.NewMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, nil, nil, err
		}
		closer := closerFunc(func() error { return client.Disconnect(context.Background()) })

		if err := database.EnsureMongoIndexes(ctx, db, log); err != nil {
			closer.Close()
			return nil, nil, nil, err
		}

		health := func(ctx context.Context) map[string]string { return database.MongoHealth(ctx, client) }
		return repository.NewMongoProductRepository(db), health, closer, nil

	case config.StoreDriverPostgres:
		dbService, err := database.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		log.Info("Database health check", zap.Any("health", dbService.Health(ctx)))

		if err := database.RunMigrations(dbService.DB(), cfg.MigrationsDir, log); err != nil {
			dbService.Close()
			return nil, nil, nil, err
		}
		log.Info("Database migrations completed successfully")

		return repository.NewProductRepository(dbService.DB()), dbService.Health, dbService, nil

	default:
		return nil, nil, nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}
}

func main() {
	cfg := config.Load()

	log := logger.NewWithDefaults(cfg.Server.Env)
	defer log.Sync()

	log.Info("Starting product dashboard API",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
		zap.String("store", cfg.Store.Driver),
	)

	ctx := context.Background()

	products, health, storeCloser, err := openStore(ctx, cfg.Store, log)
	if err != nil {
		log.Fatal("Failed to initialize product store", zap.Error(err))
	}

	closers := []io.Closer{storeCloser}

	publisher := events.NewNopPublisher()
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		closers = append(closers, publisher)
		log.Info("Sync events enabled",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic),
		)
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			// The limiter fails open, so an unreachable Redis is not fatal
			log.Warn("Redis unreachable, sync rate limit will not be enforced", zap.Error(err))
		}
		closers = append(closers, redisClient)
	}

	if cfg.JWT.Secret == "" {
		log.Warn("SYNC_JWT_SECRET not set, /sync is unauthenticated")
	}

	srv := server.NewServer(cfg, log, server.Dependencies{
		Products:  products,
		Catalog:   catalog.NewClient(cfg.Catalog.BaseURL, cfg.Catalog.Timeout, log),
		Publisher: publisher,
		Redis:     redisClient,
		Metrics:   metrics.New(),
		Health:    health,
		Closers:   closers,
	})

	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	go gracefulShutdown(srv, log, done)

	log.Info("Server listening", zap.String("addr", srv.Addr))

	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		log.Fatal("HTTP server error", zap.Error(err))
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Info("Graceful shutdown complete")
}
