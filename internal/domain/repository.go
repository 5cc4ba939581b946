package domain

import (
	"context"
	"errors"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrDuplicateProduct = errors.New("product with this id already exists")
)

// ProductStore defines the contract of the persistent document store
type ProductStore interface {
	// Find returns products matching the query's tag, sorted by id ascending,
	// after skipping Offset and taking at most Limit.
	Find(ctx context.Context, q ListQuery) ([]*Product, error)
	FindByID(ctx context.Context, id string) (*Product, error)
	Insert(ctx context.Context, product *Product) error
	// Save replaces the stored document with the same id.
	Save(ctx context.Context, product *Product) error
	DeleteOne(ctx context.Context, id string) (int64, error)
	Count(ctx context.Context) (int64, error)
}

// FixtureSource provides the read-only snapshot of sample products
type FixtureSource interface {
	Load(ctx context.Context) ([]*Product, error)
}

// DeleteResult reports how many records a delete removed
type DeleteResult struct {
	DeletedCount int64 `json:"deleted_count"`
}
