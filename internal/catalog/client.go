// Package catalog fetches the product list from the upstream catalog API.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"product-dashboard/internal/domain"

	"github.com/go-playground/validator/v10"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const productsPath = "/products"

// Source is anything that can return the full upstream product list
type Source interface {
	FetchProducts(ctx context.Context) (*FetchResult, error)
}

// FetchResult holds the products that passed validation and the number that did not
type FetchResult struct {
	Products []domain.Product
	Skipped  int
}

// Item is the wire shape of one upstream product. Unknown fields are ignored.
type Item struct {
	ID       *int64   `json:"id" validate:"required"`
	Title    string   `json:"title" validate:"required"`
	Price    *float64 `json:"price" validate:"required,gte=0"`
	Category string   `json:"category" validate:"required"`
}

type Client struct {
	http     *resty.Client
	validate *validator.Validate
	logger   *zap.Logger
}

// NewClient creates a catalog client for baseURL with the given request timeout
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "product-dashboard/1.0")

	return &Client{
		http:     httpClient,
		validate: validator.New(),
		logger:   logger,
	}
}

// FetchProducts retrieves the complete collection in a single request.
// Transport failures, non-2xx answers and bodies that are not a JSON array wrap domain.ErrExternalFetch.
func (c *Client) FetchProducts(ctx context.Context) (*FetchResult, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		Get(productsPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrExternalFetch, err)
	}

	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: unexpected status %d", domain.ErrExternalFetch, resp.StatusCode())
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(resp.Body(), &raw); err != nil {
		return nil, fmt.Errorf("%w: decode product list: %w", domain.ErrExternalFetch, err)
	}

	result := &FetchResult{Products: make([]domain.Product, 0, len(raw))}
	for i, entry := range raw {
		product, err := c.toProduct(entry)
		if err != nil {
			result.Skipped++
			c.logger.Warn("Skipping malformed catalog item",
				zap.Int("index", i),
				zap.Error(err),
			)
			continue
		}
		result.Products = append(result.Products, product)
	}

	c.logger.Debug("Fetched catalog products",
		zap.Int("received", len(raw)),
		zap.Int("valid", len(result.Products)),
		zap.Int("skipped", result.Skipped),
	)

	return result, nil
}

// toProduct maps one untyped upstream entry into a Product, rejecting incomplete items
func (c *Client) toProduct(entry json.RawMessage) (domain.Product, error) {
	var item Item
	if err := json.Unmarshal(entry, &item); err != nil {
		return domain.Product{}, fmt.Errorf("decode item: %w", err)
	}

	if err := c.validate.Struct(item); err != nil {
		return domain.Product{}, fmt.Errorf("invalid item: %w", err)
	}

	return domain.Product{
		ID:       *item.ID,
		Title:    item.Title,
		Price:    *item.Price,
		Category: item.Category,
	}, nil
}
