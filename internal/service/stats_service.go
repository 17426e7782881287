package service

import (
	"context"
	"fmt"
	"time"

	"product-dashboard/internal/domain"
	"product-dashboard/internal/metrics"
	"product-dashboard/internal/repository"

	"github.com/shopspring/decimal"
)

// StatsService summarizes the product store
type StatsService interface {
	ComputeStats(ctx context.Context) (*domain.Stats, error)
}

type statsService struct {
	repo    repository.ProductRepository
	metrics *metrics.Metrics
}

// NewStatsService creates a new instance of StatsService
func NewStatsService(repo repository.ProductRepository, m *metrics.Metrics) StatsService {
	return &statsService{repo: repo, metrics: m}
}

// ComputeStats returns the product count, the mean price rounded to cents
// and per-category counts ordered by count descending.
func (s *statsService) ComputeStats(ctx context.Context) (*domain.Stats, error) {
	start := time.Now()
	agg, err := s.repo.Aggregate(ctx)
	s.metrics.ObserveStats(err, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrQuery, err)
	}

	stats := &domain.Stats{
		TotalProducts: agg.TotalProducts,
		ByCategory:    make([]domain.CategoryCount, 0, len(agg.ByCategory)),
	}
	if agg.TotalProducts > 0 {
		stats.AvgPrice = RoundPrice(agg.AvgPrice)
	}
	stats.ByCategory = append(stats.ByCategory, agg.ByCategory...)

	return stats, nil
}

// RoundPrice rounds half away from zero to two decimal places
func RoundPrice(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
