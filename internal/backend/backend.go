// Package backend defines the capability surface a remote secret store
// must expose. The core treats the remote as an opaque get/put/delete/list
// store with eventual durability and no cross-key transactionality.
package backend

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Metadata is the per-group record written as the final, committing step
// of a push and read first on every pull or list.
type Metadata struct {
	FileCount  int       `json:"file_count"`
	TotalSize  int64     `json:"total_size"`
	ChunkCount int       `json:"chunk_count"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Store is implemented by every backend variant. Blob keys are chunk keys
// produced by ChunkKey; how a backend names its items is its own business.
type Store interface {
	// PutBlob stores data under key within group, replacing any
	// previous value.
	PutBlob(ctx context.Context, group, key string, data []byte) error

	// GetBlob returns the value stored under key, or common.ErrNotFound.
	GetBlob(ctx context.Context, group, key string) ([]byte, error)

	// DeleteBlob removes key. Deleting an absent key is not an error.
	DeleteBlob(ctx context.Context, group, key string) error

	// PutMetadata overwrites the group's metadata record.
	PutMetadata(ctx context.Context, group string, md *Metadata) error

	// GetMetadata returns the group's metadata, or common.ErrNotFound.
	GetMetadata(ctx context.Context, group string) (*Metadata, error)

	// DeleteMetadata removes the group's metadata record. Idempotent.
	DeleteMetadata(ctx context.Context, group string) error

	// ListGroups returns the names of all groups with stored metadata.
	ListGroups(ctx context.Context) ([]string, error)

	// MaxBlobSize is the per-item size ceiling in bytes. It drives
	// whether and how the orchestrator chunks.
	MaxBlobSize() int
}

// ChunkBudgeted is implemented by backends with a hard ceiling on chunk
// count. The orchestrator refuses a push that would exceed the budget
// before any remote write.
type ChunkBudgeted interface {
	MaxChunks() int
}

// ChunkKey names the i-th chunk of a group's payload.
func ChunkKey(i int) string {
	return fmt.Sprintf("chunk-%d", i)
}

// ChunkIndex parses a key produced by ChunkKey.
func ChunkIndex(key string) (int, error) {
	s, ok := strings.CutPrefix(key, "chunk-")
	if !ok {
		return 0, fmt.Errorf("not a chunk key: %s", key)
	}
	return strconv.Atoi(s)
}
