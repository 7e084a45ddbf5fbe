// Package storage persists the key-value service's groups: one blob and
// one metadata record per group, stored under separate keys so listing
// and metadata reads never touch blob data.
package storage

import (
	"context"

	"github.com/dmitrijs2005/secretsync/internal/backend"
)

// Hints are the optional upload annotations a client may attach to a blob
// POST. The service folds them into the group's metadata so that even
// bare-bones clients (shell scripts) leave a usable record behind.
type Hints struct {
	FileCount int
	TotalSize int64
}

// Repository is the storage surface the HTTP handler talks to.
type Repository interface {
	// SaveBlob upserts the group's blob. When hints is non-nil the
	// group's metadata is refreshed from it in the same transaction.
	SaveBlob(ctx context.Context, group string, data []byte, hints *Hints) error

	// LoadBlob returns the group's blob or common.ErrNotFound.
	LoadBlob(ctx context.Context, group string) ([]byte, error)

	// DeleteBlob removes the group's blob or returns common.ErrNotFound.
	DeleteBlob(ctx context.Context, group string) error

	// SaveMetadata overwrites the group's metadata record.
	SaveMetadata(ctx context.Context, group string, md *backend.Metadata) error

	// LoadMetadata returns the group's metadata or common.ErrNotFound.
	LoadMetadata(ctx context.Context, group string) (*backend.Metadata, error)

	// DeleteMetadata removes the metadata record or returns
	// common.ErrNotFound.
	DeleteMetadata(ctx context.Context, group string) error

	// ListGroups returns the names of all groups with metadata.
	ListGroups(ctx context.Context) ([]string, error)

	// Close releases the underlying store.
	Close() error
}
