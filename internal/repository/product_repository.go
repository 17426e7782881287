package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"product-dashboard/internal/domain"

	"github.com/shopspring/decimal"
)

var (
	ErrProductNotFound = errors.New("product not found")
)

// ProductAggregate is the raw result of the facet-style stats query.
// AvgPrice is unrounded; rounding is a presentation concern of the stats service.
type ProductAggregate struct {
	TotalProducts int
	AvgPrice      decimal.Decimal
	ByCategory    []domain.CategoryCount
}

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Upsert(ctx context.Context, product *domain.Product) error
	// FindByID and Count are read back by the repository tests; no handler uses them
	FindByID(ctx context.Context, id int64) (*domain.Product, error)
	Count(ctx context.Context) (int, error)
	Aggregate(ctx context.Context) (*ProductAggregate, error)
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a PostgreSQL backed ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

// Upsert inserts the product or replaces title, price and category of the row with the same id.
// Timestamps are maintained by the database and copied back into product.
func (r *productRepository) Upsert(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (id, title, price, category)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET title = EXCLUDED.title,
		    price = EXCLUDED.price,
		    category = EXCLUDED.category
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		product.ID,
		product.Title,
		decimal.NewFromFloat(product.Price),
		product.Category,
	).Scan(&product.CreatedAt, &product.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert product %d: %w", product.ID, err)
	}

	return nil
}

// FindByID retrieves a product by its external id
func (r *productRepository) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `
		SELECT id, title, price, category, created_at, updated_at
		FROM products
		WHERE id = $1
	`

	var price decimal.Decimal
	product := &domain.Product{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&product.ID,
		&product.Title,
		&price,
		&product.Category,
		&product.CreatedAt,
		&product.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	product.Price = price.InexactFloat64()
	return product, nil
}

func (r *productRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return total, nil
}

// Aggregate computes count, mean price and per-category counts in a single statement,
// so all three branches observe the same snapshot.
// Groups are ordered by count descending, then by category in byte order.
func (r *productRepository) Aggregate(ctx context.Context) (*ProductAggregate, error) {
	query := `
		WITH totals AS (
			SELECT COUNT(*) AS total, COALESCE(AVG(price), 0) AS avg_price
			FROM products
		),
		groups AS (
			SELECT category, COUNT(*) AS cnt
			FROM products
			GROUP BY category
		)
		SELECT t.total, t.avg_price, g.category, g.cnt
		FROM totals t
		LEFT JOIN groups g ON TRUE
		ORDER BY g.cnt DESC NULLS LAST, g.category COLLATE "C" ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate products: %w", err)
	}
	defer rows.Close()

	agg := &ProductAggregate{ByCategory: []domain.CategoryCount{}}
	for rows.Next() {
		var (
			category sql.NullString
			count    sql.NullInt64
		)
		if err := rows.Scan(&agg.TotalProducts, &agg.AvgPrice, &category, &count); err != nil {
			return nil, fmt.Errorf("failed to scan aggregate row: %w", err)
		}

		// An empty table yields a single row with no group
		if !category.Valid {
			continue
		}

		agg.ByCategory = append(agg.ByCategory, domain.CategoryCount{
			Category: category.String,
			Count:    int(count.Int64),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating aggregate rows: %w", err)
	}

	return agg, nil
}
