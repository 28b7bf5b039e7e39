package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("storage: key not found")

// KVStore is the persistent keyed record store backing the payment ledger
// and the pending-payment stash. Implementations must make each operation
// atomic; callers layer their own read-modify-write locking on top.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
