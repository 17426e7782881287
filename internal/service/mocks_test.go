package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"product-dashboard/internal/catalog"
	"product-dashboard/internal/domain"
	"product-dashboard/internal/repository"

	"github.com/shopspring/decimal"
)

// Mock repositories for testing
type mockProductRepository struct {
	mu        sync.Mutex
	products  map[int64]domain.Product
	upserts   int
	failOnID  int64
	aggErr    error
	aggResult *repository.ProductAggregate
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{products: make(map[int64]domain.Product)}
}

var errWriteFailed = errors.New("write failed")

func (m *mockProductRepository) Upsert(ctx context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failOnID != 0 && product.ID == m.failOnID {
		return errWriteFailed
	}

	now := time.Now()
	existing, ok := m.products[product.ID]
	product.CreatedAt = now
	if ok {
		product.CreatedAt = existing.CreatedAt
	}
	product.UpdatedAt = now
	m.products[product.ID] = *product
	m.upserts++
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	product, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return &product, nil
}

func (m *mockProductRepository) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.products), nil
}

// Aggregate mimics the store query: count, exact mean and groups by count desc, category asc
func (m *mockProductRepository) Aggregate(ctx context.Context) (*repository.ProductAggregate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.aggErr != nil {
		return nil, m.aggErr
	}
	if m.aggResult != nil {
		return m.aggResult, nil
	}

	agg := &repository.ProductAggregate{AvgPrice: decimal.Zero, ByCategory: []domain.CategoryCount{}}
	sum := decimal.Zero
	counts := map[string]int{}
	for _, p := range m.products {
		sum = sum.Add(decimal.NewFromFloat(p.Price))
		counts[p.Category]++
	}
	agg.TotalProducts = len(m.products)
	if agg.TotalProducts > 0 {
		agg.AvgPrice = sum.Div(decimal.NewFromInt(int64(agg.TotalProducts)))
	}
	for category, count := range counts {
		agg.ByCategory = append(agg.ByCategory, domain.CategoryCount{Category: category, Count: count})
	}
	sort.Slice(agg.ByCategory, func(i, j int) bool {
		a, b := agg.ByCategory[i], agg.ByCategory[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Category < b.Category
	})
	return agg, nil
}

type mockSource struct {
	products []domain.Product
	skipped  int
	err      error
	calls    int
}

func (m *mockSource) FetchProducts(ctx context.Context) (*catalog.FetchResult, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	products := make([]domain.Product, len(m.products))
	copy(products, m.products)
	return &catalog.FetchResult{Products: products, Skipped: m.skipped}, nil
}

type mockPublisher struct {
	published []*domain.SyncResult
	err       error
}

func (m *mockPublisher) PublishSynced(ctx context.Context, result *domain.SyncResult) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, result)
	return nil
}

func (m *mockPublisher) Close() error { return nil }
