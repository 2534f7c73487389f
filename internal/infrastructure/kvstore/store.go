package kvstore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mealquest/backend/config"
	"github.com/mealquest/backend/internal/domain"
)

// Store is a domain.KeyValueStore that owns resources to release on shutdown
type Store interface {
	domain.KeyValueStore
	Close() error
}

// Open builds the backend selected by cfg.Type
func Open(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (Store, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryStore(), nil
	case "file":
		return NewFileStore(cfg.Path)
	case "sqlite":
		return NewSQLiteStore(cfg.Path)
	case "s3":
		return NewS3StoreFromConfig(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("%w: unknown storage type %q", domain.ErrInvalidRequest, cfg.Type)
	}
}
