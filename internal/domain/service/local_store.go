package service

import "context"

// LocalStore is the durable client-side key/value store surviving restarts.
type LocalStore interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)

	Set(ctx context.Context, key, value string) error

	Delete(ctx context.Context, key string) error
}
