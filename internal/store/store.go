// Package store provides the key/value persistence boundary of the engine.
// Records are opaque JSON values grouped into named collections. Every
// backend surfaces a single failure mode, ErrStoreUnavailable, so callers
// can degrade uniformly.
package store

import (
	"context"
	"errors"
	"fmt"
)

// Collection names used by the engine.
const (
	CollectionQuestions = "questions"
	CollectionSessions  = "sessions"
	CollectionResults   = "results"
	CollectionSeen      = "seen"
)

// ErrStoreUnavailable is returned (wrapped) when the backing medium failed.
var ErrStoreUnavailable = errors.New("store unavailable")

// Store is the minimal persistence contract the engine consumes.
type Store interface {
	// GetAll returns every record in the collection, keyed by record key.
	GetAll(ctx context.Context, collection string) (map[string][]byte, error)
	// Get returns the record for key, or (nil, nil) when absent.
	Get(ctx context.Context, collection, key string) ([]byte, error)
	Put(ctx context.Context, collection, key string, value []byte) error
	Delete(ctx context.Context, collection, key string) error
	Clear(ctx context.Context, collection string) error
}

// unavailable wraps a backend error into the single store failure mode.
func unavailable(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}
