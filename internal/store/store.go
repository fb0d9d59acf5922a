// Package store persists per-user state as a single document per user.
package store

import (
	"context"
	"errors"

	"pennywise/internal/core"
)

// ErrNotFound is returned by Load when no state exists for the user yet.
var ErrNotFound = errors.New("user state not found")

// Store is the opaque put/get primitive keyed by user identifier.
// Writes are whole-document, last write wins.
type Store interface {
	Load(ctx context.Context, userID string) (*core.UserState, error)
	Save(ctx context.Context, state *core.UserState) error
	Close() error
}
