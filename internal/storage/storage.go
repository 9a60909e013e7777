// Package storage defines the keyed blob persistence used by share trackers.
// A blob store plays the role browser local storage plays for the web client:
// small, independently keyed JSON documents read on load and overwritten on change.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Load when no blob exists under the key.
var ErrNotFound = errors.New("blob not found")

// BlobStore persists opaque blobs under string keys.
type BlobStore interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
}
