package domain

import (
	"context"
)

// RecipeClient defines the interface for interacting with the external recipe API
type RecipeClient interface {
	Search(ctx context.Context, query SearchQuery, offset, pageSize int) (*ResultPage, error)
	GetDetail(ctx context.Context, id int) (*RecipeDetail, error)
}

// KeyValueStore is a durable string slot store.
// Get reports ok=false when the key has never been written.
// Deleting an absent key is not an error.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
