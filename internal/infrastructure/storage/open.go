package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fastygo/storefront/internal/config"
)

// OpenBackend builds the local-area backend selected by configuration.
func OpenBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Backend, error) {
	switch cfg.Storage.Driver {
	case config.StorageBolt:
		b, err := OpenBolt(cfg.Storage.Path, cfg.Storage.Bucket)
		if err != nil {
			return nil, fmt.Errorf("open bolt storage %s: %w", cfg.Storage.Path, err)
		}
		return b, nil
	case config.StorageRedis:
		client, err := DialRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		return NewRedis(client, RedisOptions{
			Prefix:     cfg.Redis.Prefix,
			Channel:    cfg.Redis.Channel,
			OwnsClient: true,
			Logger:     logger,
		}), nil
	case config.StorageMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
