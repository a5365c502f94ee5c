package application

import "context"

// KeyValueStore is a flat string store, the local counterpart of the app's key-value storage.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Sealer protects values at rest. Open must accept values that were never sealed.
type Sealer interface {
	Seal(plain string) (string, error)
	Open(value string) (string, error)
}
