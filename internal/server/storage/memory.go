package storage

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/secretsync/internal/backend"
	"github.com/dmitrijs2005/secretsync/internal/common"
)

// MemoryRepository is the in-memory Repository used for tests and for
// running the service without a database. Unlike the CLI, the server is
// concurrent, so access is mutex-guarded.
type MemoryRepository struct {
	mu       sync.RWMutex
	blobs    map[string][]byte
	metadata map[string]*backend.Metadata
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		blobs:    map[string][]byte{},
		metadata: map[string]*backend.Metadata{},
	}
}

func (m *MemoryRepository) SaveBlob(_ context.Context, group string, data []byte, hints *Hints) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blobs[group] = append([]byte(nil), data...)
	if hints != nil {
		m.metadata[group] = &backend.Metadata{
			FileCount:  hints.FileCount,
			TotalSize:  hints.TotalSize,
			ChunkCount: 1,
			UploadedAt: time.Now().UTC(),
		}
	}
	return nil
}

func (m *MemoryRepository) LoadBlob(_ context.Context, group string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.blobs[group]
	if !ok {
		return nil, common.ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (m *MemoryRepository) DeleteBlob(_ context.Context, group string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.blobs[group]; !ok {
		return common.ErrNotFound
	}
	delete(m.blobs, group)
	return nil
}

func (m *MemoryRepository) SaveMetadata(_ context.Context, group string, md *backend.Metadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *md
	m.metadata[group] = &cp
	return nil
}

func (m *MemoryRepository) LoadMetadata(_ context.Context, group string) (*backend.Metadata, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	md, ok := m.metadata[group]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *md
	return &cp, nil
}

func (m *MemoryRepository) DeleteMetadata(_ context.Context, group string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.metadata[group]; !ok {
		return common.ErrNotFound
	}
	delete(m.metadata, group)
	return nil
}

func (m *MemoryRepository) ListGroups(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	groups := make([]string, 0, len(m.metadata))
	for g := range m.metadata {
		groups = append(groups, g)
	}
	return groups, nil
}

func (m *MemoryRepository) Close() error { return nil }
