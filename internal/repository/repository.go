// Package repository defines the key-value storage contract the bin store is
// persisted through. Each backend under this directory holds one opaque blob
// per key and reports a missing key as apperror.ErrNotFound.
package repository

import (
	"context"
)

type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}
