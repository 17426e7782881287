package transport

import (
	"context"
	"errors"

	"product-dashboard/internal/domain"
)

var errUpstream = errors.New(`dial tcp 104.21.0.1:443: connect: connection refused`)

type mockSyncService struct {
	result *domain.SyncResult
	err    error
	calls  int
}

func (m *mockSyncService) Synchronize(ctx context.Context) (*domain.SyncResult, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

type mockStatsService struct {
	stats *domain.Stats
	err   error
}

func (m *mockStatsService) ComputeStats(ctx context.Context) (*domain.Stats, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.stats, nil
}

func seededStats() *domain.Stats {
	return &domain.Stats{
		TotalProducts: 3,
		AvgPrice:      20,
		ByCategory: []domain.CategoryCount{
			{Category: "electronics", Count: 2},
			{Category: "jewelery", Count: 1},
		},
	}
}
