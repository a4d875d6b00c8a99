package interfaces

import (
	"context"
	"time"
)

// CacheProvider stores rendered artifacts keyed by route.
type CacheProvider interface {
	Get(ctx context.Context, key string) (any, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// PrefixInvalidator is implemented by caches that can drop every key sharing a prefix.
type PrefixInvalidator interface {
	DeletePrefix(ctx context.Context, prefix string) error
}
