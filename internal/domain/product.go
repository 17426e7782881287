package domain

import (
	"time"

	"github.com/google/uuid"
)

// Product represents a catalog product mirrored from the upstream source
type Product struct {
	ID        int64     `json:"id" db:"id" bson:"id"`
	Title     string    `json:"title" db:"title" bson:"title"`
	Price     float64   `json:"price" db:"price" bson:"price"`
	Category  string    `json:"category" db:"category" bson:"category"`
	CreatedAt time.Time `json:"createdAt" db:"created_at" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at" bson:"updatedAt"`
}

// CategoryCount is the number of products sharing a category
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Stats summarizes the whole product store
type Stats struct {
	TotalProducts int             `json:"totalProducts"`
	AvgPrice      float64         `json:"avgPrice"`
	ByCategory    []CategoryCount `json:"byCategory"`
}

// SyncResult describes one synchronization run
type SyncResult struct {
	RunID     uuid.UUID     `json:"run_id"`
	Saved     int           `json:"saved"`
	Skipped   int           `json:"skipped"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}
