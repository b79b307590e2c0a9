// Package kvstore provides the named value store: JSON blobs keyed by string
// identifiers. It is the persistence collaborator of the hosting application;
// the scoring and duplicate components never touch it.
package kvstore

import (
	"context"
	"encoding/json"
	"fmt"
)

// Store loads and saves raw values by key.
type Store interface {
	// Load returns the stored bytes and whether the key exists.
	Load(ctx context.Context, key string) ([]byte, bool, error)
	// Save replaces the value stored under key.
	Save(ctx context.Context, key string, value []byte) error
}

// Get decodes the value stored under key, returning def when the key is absent.
func Get[T any](ctx context.Context, s Store, key string, def T) (T, error) {
	raw, ok, err := s.Load(ctx, key)
	if err != nil {
		return def, fmt.Errorf("kvstore get %q: %w", key, err)
	}
	if !ok {
		return def, nil
	}

	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return def, fmt.Errorf("kvstore decode %q: %w", key, err)
	}
	return out, nil
}

// Set encodes value as JSON and stores it under key.
func Set(ctx context.Context, s Store, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("kvstore encode %q: %w", key, err)
	}
	if err := s.Save(ctx, key, raw); err != nil {
		return fmt.Errorf("kvstore set %q: %w", key, err)
	}
	return nil
}
