// Package syncer coordinates push and pull for one named group:
// registry → archive → encrypt → chunk → backend on the way out, and the
// exact reverse on the way back. All state lives in the backend; a run
// carries nothing over from the previous one.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/secretsync/internal/archive"
	"github.com/dmitrijs2005/secretsync/internal/backend"
	"github.com/dmitrijs2005/secretsync/internal/chunk"
	"github.com/dmitrijs2005/secretsync/internal/common"
	"github.com/dmitrijs2005/secretsync/internal/cryptox"
	"github.com/dmitrijs2005/secretsync/internal/logging"
	"github.com/dmitrijs2005/secretsync/internal/registry"
)

// DefaultGroup is used when the CLI is invoked without a group argument.
const DefaultGroup = "default"

// Syncer runs push/pull/list/delete against one injected backend.
type Syncer struct {
	registry *registry.Registry
	store    backend.Store
	logger   logging.Logger
	home     string

	// now is a seam for metadata timestamps in tests.
	now func() time.Time
}

// New wires a Syncer. home is the extraction root on pull and the
// resolution root on push.
func New(reg *registry.Registry, store backend.Store, logger logging.Logger, home string) *Syncer {
	return &Syncer{
		registry: reg,
		store:    store,
		logger:   logger,
		home:     home,
		now:      time.Now,
	}
}

// Push archives the tracked files, encrypts them under passphrase and
// uploads the result to the group. Local validation happens before any
// remote call; the metadata write is the commit point, and orphan chunks
// from a previously larger push are deleted only after it.
//
// Chunk keys are fixed (chunk-0, chunk-1, ...), so chunks are overwritten
// in place. A multi-chunk upload that dies mid-way leaves a mixed chunk
// set under the old metadata: the group fails decryption on pull until a
// push completes, rather than silently serving blended data.
func (s *Syncer) Push(ctx context.Context, group string, passphrase []byte) (*backend.Metadata, error) {
	paths, err := s.registry.List()
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, common.ErrEmptyRegistry
	}

	// Fail closed: a push never uploads a degraded subset.
	statuses, err := s.registry.Status()
	if err != nil {
		return nil, err
	}
	for _, st := range statuses {
		if !st.Exists {
			return nil, fmt.Errorf("%w: %s", common.ErrPathNotFound, st.Path)
		}
	}

	plaintext, fileCount, err := archive.Pack(s.home, paths)
	if err != nil {
		return nil, err
	}

	ciphertext, err := cryptox.Encrypt(plaintext, passphrase)
	if err != nil {
		return nil, err
	}

	chunks, err := chunk.Split(chunk.Encode(ciphertext), s.store.MaxBlobSize())
	if err != nil {
		return nil, err
	}

	if b, ok := s.store.(backend.ChunkBudgeted); ok && len(chunks) > b.MaxChunks() {
		return nil, fmt.Errorf("%w: need %d chunks, backend holds %d",
			common.ErrChunkBudgetExceeded, len(chunks), b.MaxChunks())
	}

	// Remember the previous chunk count so a shrinking update can clean
	// up. A missing record just means first push.
	var previousChunks int
	if old, err := s.store.GetMetadata(ctx, group); err == nil {
		previousChunks = old.ChunkCount
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	s.logger.Debug(ctx, "uploading chunks", "group", group, "chunks", len(chunks))
	for i, c := range chunks {
		if err := s.store.PutBlob(ctx, group, backend.ChunkKey(i), []byte(c)); err != nil {
			// Old metadata still points at the old chunk set, which
			// remains intact and pullable.
			return nil, err
		}
	}

	md := &backend.Metadata{
		FileCount:  fileCount,
		TotalSize:  int64(len(plaintext)),
		ChunkCount: len(chunks),
		UploadedAt: s.now().UTC(),
	}
	if err := s.store.PutMetadata(ctx, group, md); err != nil {
		return nil, err
	}

	// Commit has landed; now stale chunks beyond the new count must go.
	for i := len(chunks); i < previousChunks; i++ {
		if err := s.store.DeleteBlob(ctx, group, backend.ChunkKey(i)); err != nil {
			return nil, err
		}
	}

	s.logger.Info(ctx, "pushed group", "group", group, "files", fileCount, "chunks", len(chunks))
	return md, nil
}

// Pull fetches the group's chunks in index order, reassembles and decrypts
// them, and unpacks the archive under home. Nothing is written to disk
// unless decryption succeeds.
func (s *Syncer) Pull(ctx context.Context, group string, passphrase []byte) (*backend.Metadata, error) {
	md, err := s.store.GetMetadata(ctx, group)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("%w: no secrets found for group %s", common.ErrNotFound, group)
		}
		return nil, err
	}

	chunks := make([]string, 0, md.ChunkCount)
	for i := 0; i < md.ChunkCount; i++ {
		data, err := s.store.GetBlob(ctx, group, backend.ChunkKey(i))
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, string(data))
	}

	ciphertext, err := chunk.Decode(chunk.Join(chunks))
	if err != nil {
		// Undecodable chunk data is corruption, same bucket as a bad MAC.
		return nil, common.ErrDecryption
	}

	plaintext, err := cryptox.Decrypt(ciphertext, passphrase)
	if err != nil {
		return nil, err
	}

	if err := archive.Unpack(plaintext, s.home); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "pulled group", "group", group, "files", md.FileCount)
	return md, nil
}

// List returns the group's metadata without touching blob data.
func (s *Syncer) List(ctx context.Context, group string) (*backend.Metadata, error) {
	return s.store.GetMetadata(ctx, group)
}

// Groups lists all remote group names.
func (s *Syncer) Groups(ctx context.Context) ([]string, error) {
	return s.store.ListGroups(ctx)
}

// Delete removes the group's metadata and chunks. Metadata goes first: if
// the delete is interrupted, the group is already gone from listings and
// any leftover chunks are unreachable stragglers, not a group whose pull
// would fail halfway.
func (s *Syncer) Delete(ctx context.Context, group string) error {
	md, err := s.store.GetMetadata(ctx, group)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return fmt.Errorf("%w: no secrets found for group %s", common.ErrNotFound, group)
		}
		return err
	}

	if err := s.store.DeleteMetadata(ctx, group); err != nil {
		return err
	}
	for i := 0; i < md.ChunkCount; i++ {
		if err := s.store.DeleteBlob(ctx, group, backend.ChunkKey(i)); err != nil {
			return err
		}
	}

	s.logger.Info(ctx, "deleted group", "group", group)
	return nil
}
