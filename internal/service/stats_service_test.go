package service

import (
	"context"
	"errors"
	"testing"

	"product-dashboard/internal/domain"
	"product-dashboard/internal/repository"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
)

func TestComputeStats_SeededStore(t *testing.T) {
	repo := newMockProductRepository()
	for _, p := range []domain.Product{
		{ID: 1, Title: "A", Price: 10, Category: "electronics"},
		{ID: 2, Title: "B", Price: 20, Category: "electronics"},
		{ID: 3, Title: "C", Price: 30, Category: "jewelery"},
	} {
		p := p
		repo.Upsert(context.Background(), &p)
	}

	stats, err := NewStatsService(repo, nil).ComputeStats(context.Background())
	if err != nil {
		t.Fatalf("ComputeStats failed: %v", err)
	}

	if stats.TotalProducts != 3 {
		t.Errorf("expected 3, got %d", stats.TotalProducts)
	}
	if stats.AvgPrice != 20 {
		t.Errorf("expected 20, got %v", stats.AvgPrice)
	}
	expected := []domain.CategoryCount{{Category: "electronics", Count: 2}, {Category: "jewelery", Count: 1}}
	if len(stats.ByCategory) != 2 || stats.ByCategory[0] != expected[0] || stats.ByCategory[1] != expected[1] {
		t.Errorf("unexpected groups %+v", stats.ByCategory)
	}
}

func TestComputeStats_EmptyStore(t *testing.T) {
	stats, err := NewStatsService(newMockProductRepository(), nil).ComputeStats(context.Background())
	if err != nil {
		t.Fatalf("ComputeStats failed: %v", err)
	}
	if stats.TotalProducts != 0 || stats.AvgPrice != 0 {
		t.Errorf("expected zero stats, got %+v", stats)
	}
	if stats.ByCategory == nil || len(stats.ByCategory) != 0 {
		t.Errorf("expected empty non-nil groups, got %#v", stats.ByCategory)
	}
}

func TestComputeStats_NilGroupsBecomeEmpty(t *testing.T) {
	repo := newMockProductRepository()
	repo.aggResult = &repository.ProductAggregate{TotalProducts: 0, AvgPrice: decimal.Zero}

	stats, err := NewStatsService(repo, nil).ComputeStats(context.Background())
	if err != nil {
		t.Fatalf("ComputeStats failed: %v", err)
	}
	if stats.ByCategory == nil {
		t.Error("byCategory must never be nil")
	}
}

func TestComputeStats_QueryFailure(t *testing.T) {
	repo := newMockProductRepository()
	repo.aggErr = errors.New("connection reset by peer")

	_, err := NewStatsService(repo, nil).ComputeStats(context.Background())
	if !errors.Is(err, domain.ErrQuery) {
		t.Errorf("expected ErrQuery, got %v", err)
	}
}

func TestRoundPrice(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"20", 20},
		{"20.0000000000000000", 20},
		{"162.3566666666666667", 162.36},
		{"10.005", 10.01},
		{"10.004999", 10},
		{"0.125", 0.13},
		{"0", 0},
	}

	for _, tt := range tests {
		got := RoundPrice(decimal.RequireFromString(tt.in))
		if got != tt.want {
			t.Errorf("RoundPrice(%s) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestProperty_AvgPriceHasTwoDecimals(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("avgPrice equals the rounded mean and has at most two decimals", prop.ForAll(
		func(cents []int64) bool {
			repo := newMockProductRepository()
			sum := decimal.Zero
			for i, c := range cents {
				price := decimal.New(c, -2)
				sum = sum.Add(price)
				p := domain.Product{ID: int64(i + 1), Title: "t", Price: price.InexactFloat64(), Category: "c"}
				repo.Upsert(context.Background(), &p)
			}

			stats, err := NewStatsService(repo, nil).ComputeStats(context.Background())
			if err != nil {
				return false
			}

			if len(cents) == 0 {
				return stats.AvgPrice == 0
			}

			want := sum.Div(decimal.NewFromInt(int64(len(cents)))).Round(2)
			got := decimal.NewFromFloat(stats.AvgPrice)
			return got.Equal(want) && got.Exponent() >= -2
		},
		gen.SliceOf(gen.Int64Range(0, 100000)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
