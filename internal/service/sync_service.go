package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"product-dashboard/internal/catalog"
	"product-dashboard/internal/domain"
	"product-dashboard/internal/events"
	"product-dashboard/internal/metrics"
	"product-dashboard/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const publishTimeout = 5 * time.Second

// SyncService pulls the upstream catalog into the product store
type SyncService interface {
	Synchronize(ctx context.Context) (*domain.SyncResult, error)
}

type syncService struct {
	source    catalog.Source
	repo      repository.ProductRepository
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

// NewSyncService creates a new instance of SyncService
func NewSyncService(
	source catalog.Source,
	repo repository.ProductRepository,
	publisher events.Publisher,
	m *metrics.Metrics,
	logger *zap.Logger,
) SyncService {
	if publisher == nil {
		publisher = events.NewNopPublisher()
	}
	return &syncService{
		source:    source,
		repo:      repo,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

// Synchronize fetches every upstream product and upserts it by id.
// The first failed write aborts the run; rows written before it stay in place.
func (s *syncService) Synchronize(ctx context.Context) (*domain.SyncResult, error) {
	result := &domain.SyncResult{
		RunID:     uuid.New(),
		StartedAt: s.now(),
	}
	log := s.logger.With(zap.String("run_id", result.RunID.String()))

	fetched, err := s.source.FetchProducts(ctx)
	if err != nil {
		s.metrics.ObserveSync(metrics.SyncFetchError, 0, 0, s.since(result.StartedAt))
		if !errors.Is(err, domain.ErrExternalFetch) {
			err = fmt.Errorf("%w: %w", domain.ErrExternalFetch, err)
		}
		return nil, err
	}
	result.Skipped = fetched.Skipped

	for i := range fetched.Products {
		product := fetched.Products[i]
		if err := s.repo.Upsert(ctx, &product); err != nil {
			log.Error("Sync aborted on failed upsert",
				zap.Int64("product_id", product.ID),
				zap.Int("saved_before_failure", result.Saved),
				zap.Error(err),
			)
			s.metrics.ObserveSync(metrics.SyncPersistError, result.Saved, result.Skipped, s.since(result.StartedAt))
			return nil, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
		}
		result.Saved++
	}

	result.Duration = s.since(result.StartedAt)
	s.metrics.ObserveSync(metrics.SyncSuccess, result.Saved, result.Skipped, result.Duration)

	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := s.publisher.PublishSynced(publishCtx, result); err != nil {
		log.Warn("Failed to publish sync event", zap.Error(err))
	}

	log.Info("Catalog synchronized",
		zap.Int("saved", result.Saved),
		zap.Int("skipped", result.Skipped),
		zap.Duration("duration", result.Duration),
	)

	return result, nil
}

func (s *syncService) since(start time.Time) time.Duration {
	return s.now().Sub(start)
}
