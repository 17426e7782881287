package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"product-dashboard/internal/database"
	"product-dashboard/internal/domain"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoProductRepository struct {
	products *mongo.Collection
	now      func() time.Time
}

// NewMongoProductRepository creates a MongoDB backed ProductRepository
func NewMongoProductRepository(db *mongo.Database) ProductRepository {
	return &mongoProductRepository{
		products: db.Collection(database.ProductsCollection),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (r *mongoProductRepository) Upsert(ctx context.Context, product *domain.Product) error {
	now := r.now()

	filter := bson.M{"id": product.ID}
	update := bson.M{
		"$set": bson.M{
			"title":     product.Title,
			"price":     product.Price,
			"category":  product.Category,
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{
			"createdAt": now,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var stored domain.Product
	if err := r.products.FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored); err != nil {
		return fmt.Errorf("failed to upsert product %d: %w", product.ID, err)
	}

	product.CreatedAt = stored.CreatedAt
	product.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *mongoProductRepository) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	var product domain.Product
	err := r.products.FindOne(ctx, bson.M{"id": id}).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}
	return &product, nil
}

func (r *mongoProductRepository) Count(ctx context.Context) (int, error) {
	total, err := r.products.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return int(total), nil
}

type facetResult struct {
	Totals []struct {
		Count int     `bson:"count"`
		Avg   float64 `bson:"avg"`
	} `bson:"totals"`
	ByCategory []struct {
		Category string `bson:"_id"`
		Count    int    `bson:"count"`
	} `bson:"byCategory"`
}

// Aggregate runs one $facet pipeline with a totals branch and a group-by-category branch
func (r *mongoProductRepository) Aggregate(ctx context.Context) (*ProductAggregate, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$facet", Value: bson.D{
			{Key: "totals", Value: bson.A{
				bson.D{{Key: "$group", Value: bson.D{
					{Key: "_id", Value: nil},
					{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
					{Key: "avg", Value: bson.D{{Key: "$avg", Value: "$price"}}},
				}}},
			}},
			{Key: "byCategory", Value: bson.A{
				bson.D{{Key: "$group", Value: bson.D{
					{Key: "_id", Value: "$category"},
					{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
				}}},
				bson.D{{Key: "$sort", Value: bson.D{
					{Key: "count", Value: -1},
					{Key: "_id", Value: 1},
				}}},
			}},
		}}},
	}

	cursor, err := r.products.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate products: %w", err)
	}
	defer cursor.Close(ctx)

	var results []facetResult
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode aggregate result: %w", err)
	}

	agg := &ProductAggregate{
		AvgPrice:   decimal.Zero,
		ByCategory: []domain.CategoryCount{},
	}
	if len(results) == 0 {
		return agg, nil
	}

	facet := results[0]
	if len(facet.Totals) > 0 {
		agg.TotalProducts = facet.Totals[0].Count
		agg.AvgPrice = decimal.NewFromFloat(facet.Totals[0].Avg)
	}
	for _, group := range facet.ByCategory {
		agg.ByCategory = append(agg.ByCategory, domain.CategoryCount{
			Category: group.Category,
			Count:    group.Count,
		})
	}

	return agg, nil
}
