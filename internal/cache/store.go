package cache

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when the backing store cannot serve a request.
var ErrUnavailable = errors.New("cache: store not initialised")

// Store is the namespaced key-value region backing the persistent UI state.
type Store interface {
	Get(ctx context.Context, namespace, key string) ([]byte, bool, error)
	Set(ctx context.Context, namespace, key string, value []byte) error
	Delete(ctx context.Context, namespace string, keys ...string) error
	List(ctx context.Context, namespace string) (map[string][]byte, error)
}

func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
