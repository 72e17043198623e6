// Package session keeps form sessions between HTTP requests.
package session

import (
	"context"

	"servicredit-registro/internal/registro"
)

// Store persists session snapshots. Load returns a SESSION_NOT_FOUND
// StandardError for unknown or expired ids.
type Store interface {
	Load(ctx context.Context, id string) (*registro.Snapshot, error)
	Save(ctx context.Context, snap registro.Snapshot) error
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
	Close() error
}
