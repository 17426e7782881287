package service

import (
	"context"
	"errors"
	"testing"

	"product-dashboard/internal/domain"
	"product-dashboard/internal/metrics"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"go.uber.org/zap"
)

func upstreamProducts() []domain.Product {
	return []domain.Product{
		{ID: 1, Title: "Backpack", Price: 109.95, Category: "men's clothing"},
		{ID: 2, Title: "T-Shirt", Price: 22.3, Category: "men's clothing"},
		{ID: 5, Title: "Bracelet", Price: 695, Category: "jewelery"},
		{ID: 9, Title: "Hard Drive", Price: 64, Category: "electronics"},
	}
}

func TestSynchronize_SavesEveryProduct(t *testing.T) {
	repo := newMockProductRepository()
	source := &mockSource{products: upstreamProducts(), skipped: 2}
	publisher := &mockPublisher{}
	svc := NewSyncService(source, repo, publisher, metrics.New(), zap.NewNop())

	result, err := svc.Synchronize(context.Background())
	if err != nil {
		t.Fatalf("Synchronize failed: %v", err)
	}

	if result.Saved != 4 {
		t.Errorf("expected 4 saved, got %d", result.Saved)
	}
	if result.Skipped != 2 {
		t.Errorf("expected 2 skipped, got %d", result.Skipped)
	}
	if result.RunID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Error("run id should be set")
	}
	if total, _ := repo.Count(context.Background()); total != 4 {
		t.Errorf("expected 4 stored products, got %d", total)
	}
	if len(publisher.published) != 1 || publisher.published[0] != result {
		t.Errorf("expected one published event for the run, got %d", len(publisher.published))
	}
}

func TestSynchronize_IsIdempotent(t *testing.T) {
	repo := newMockProductRepository()
	source := &mockSource{products: upstreamProducts()}
	svc := NewSyncService(source, repo, nil, nil, zap.NewNop())

	if _, err := svc.Synchronize(context.Background()); err != nil {
		t.Fatalf("first sync failed: %v", err)
	}
	first, _ := repo.FindByID(context.Background(), 5)

	second, err := svc.Synchronize(context.Background())
	if err != nil {
		t.Fatalf("second sync failed: %v", err)
	}

	if second.Saved != 4 {
		t.Errorf("every item is processed on each run, got %d", second.Saved)
	}
	if total, _ := repo.Count(context.Background()); total != 4 {
		t.Errorf("second sync must not duplicate rows, got %d", total)
	}
	again, _ := repo.FindByID(context.Background(), 5)
	if again.Title != first.Title || again.Price != first.Price || again.Category != first.Category {
		t.Errorf("values changed across identical syncs: %+v -> %+v", first, again)
	}
}

func TestSynchronize_UpdatesExistingProductInPlace(t *testing.T) {
	repo := newMockProductRepository()
	existing := domain.Product{ID: 1, Title: "Old title", Price: 1, Category: "old"}
	if err := repo.Upsert(context.Background(), &existing); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	source := &mockSource{products: upstreamProducts()[:1]}
	svc := NewSyncService(source, repo, nil, nil, zap.NewNop())

	if _, err := svc.Synchronize(context.Background()); err != nil {
		t.Fatalf("Synchronize failed: %v", err)
	}

	stored, _ := repo.FindByID(context.Background(), 1)
	if stored.Title != "Backpack" || stored.Price != 109.95 || stored.Category != "men's clothing" {
		t.Errorf("product not updated in place: %+v", stored)
	}
	if !stored.CreatedAt.Equal(existing.CreatedAt) {
		t.Error("createdAt should survive an update")
	}
	if total, _ := repo.Count(context.Background()); total != 1 {
		t.Errorf("expected 1 row, got %d", total)
	}
}

func TestSynchronize_FetchFailureLeavesStoreUntouched(t *testing.T) {
	repo := newMockProductRepository()
	existing := domain.Product{ID: 42, Title: "Kept", Price: 10, Category: "misc"}
	repo.Upsert(context.Background(), &existing)
	upserts := repo.upserts

	publisher := &mockPublisher{}
	source := &mockSource{err: errors.New("dial tcp: connection refused")}
	svc := NewSyncService(source, repo, publisher, metrics.New(), zap.NewNop())

	result, err := svc.Synchronize(context.Background())
	if result != nil {
		t.Errorf("expected no result, got %+v", result)
	}
	if !errors.Is(err, domain.ErrExternalFetch) {
		t.Errorf("expected ErrExternalFetch, got %v", err)
	}
	if repo.upserts != upserts {
		t.Error("store must not be written when the fetch fails")
	}
	stored, _ := repo.FindByID(context.Background(), 42)
	if stored.Title != "Kept" {
		t.Errorf("existing record changed: %+v", stored)
	}
	if len(publisher.published) != 0 {
		t.Error("failed runs must not publish events")
	}
}

func TestSynchronize_AbortsOnFirstWriteFailure(t *testing.T) {
	repo := newMockProductRepository()
	repo.failOnID = 5
	source := &mockSource{products: upstreamProducts()}
	svc := NewSyncService(source, repo, nil, nil, zap.NewNop())

	_, err := svc.Synchronize(context.Background())
	if !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	if !errors.Is(err, errWriteFailed) {
		t.Errorf("underlying error should stay in the chain, got %v", err)
	}

	// Items before the failure stay applied, items after it are never attempted
	if _, err := repo.FindByID(context.Background(), 2); err != nil {
		t.Error("product 2 should have been saved before the failure")
	}
	if _, err := repo.FindByID(context.Background(), 9); err == nil {
		t.Error("product 9 comes after the failure and must not be saved")
	}
}

func TestSynchronize_PublishFailureDoesNotFailRun(t *testing.T) {
	repo := newMockProductRepository()
	source := &mockSource{products: upstreamProducts()}
	publisher := &mockPublisher{err: errors.New("broker unavailable")}
	svc := NewSyncService(source, repo, publisher, nil, zap.NewNop())

	result, err := svc.Synchronize(context.Background())
	if err != nil {
		t.Fatalf("publish errors must not fail the sync, got %v", err)
	}
	if result.Saved != 4 {
		t.Errorf("expected 4 saved, got %d", result.Saved)
	}
}

func TestProperty_SyncSavedCountMatchesUpstream(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("saved equals upstream size and rows equal distinct ids", prop.ForAll(
		func(ids []int64) bool {
			products := make([]domain.Product, 0, len(ids))
			distinct := map[int64]bool{}
			for _, id := range ids {
				products = append(products, domain.Product{ID: id, Title: "item", Price: 1, Category: "c"})
				distinct[id] = true
			}

			repo := newMockProductRepository()
			svc := NewSyncService(&mockSource{products: products}, repo, nil, nil, zap.NewNop())

			result, err := svc.Synchronize(context.Background())
			if err != nil {
				return false
			}
			total, _ := repo.Count(context.Background())
			return result.Saved == len(products) && total == len(distinct)
		},
		gen.SliceOf(gen.Int64Range(1, 50)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
