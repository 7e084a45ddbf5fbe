package notes

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/secretsync/internal/backend"
	"github.com/dmitrijs2005/secretsync/internal/common"
)

const (
	// maxChunkChars keeps each chunk note comfortably under the
	// service's ~10k character ceiling.
	maxChunkChars = 8000

	// maxChunks caps a group's payload at 48 chunks (~384 KB encoded).
	// Past that, notes are the wrong backend and push must fail closed.
	maxChunks = 48

	// DefaultLabel prefixes every note title written by this tool.
	DefaultLabel = "Secretsync"
)

// Store maps the backend capability surface onto titled notes:
//
//	{label} {group} - Metadata
//	{label} {group} - Chunk {n}
type Store struct {
	client *Client
	label  string
}

// NewStore wraps client with the note naming scheme. An empty label falls
// back to DefaultLabel.
func NewStore(client *Client, label string) *Store {
	if label == "" {
		label = DefaultLabel
	}
	return &Store{client: client, label: label}
}

func (s *Store) chunkTitle(group, key string) (string, error) {
	idx, err := backend.ChunkIndex(key)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %s - Chunk %d", s.label, group, idx), nil
}

func (s *Store) metadataTitle(group string) string {
	return fmt.Sprintf("%s %s - Metadata", s.label, group)
}

func (s *Store) PutBlob(ctx context.Context, group, key string, data []byte) error {
	title, err := s.chunkTitle(group, key)
	if err != nil {
		return err
	}
	return s.client.Upsert(ctx, title, string(data))
}

func (s *Store) GetBlob(ctx context.Context, group, key string) ([]byte, error) {
	title, err := s.chunkTitle(group, key)
	if err != nil {
		return nil, err
	}

	note, err := s.client.Find(ctx, title)
	if err != nil {
		return nil, err
	}
	if note == nil {
		return nil, fmt.Errorf("%w: %s", common.ErrNotFound, title)
	}
	return []byte(note.Content), nil
}

func (s *Store) DeleteBlob(ctx context.Context, group, key string) error {
	title, err := s.chunkTitle(group, key)
	if err != nil {
		return err
	}
	return s.client.Delete(ctx, title)
}

func (s *Store) PutMetadata(ctx context.Context, group string, md *backend.Metadata) error {
	body, err := json.Marshal(md)
	if err != nil {
		return err
	}
	return s.client.Upsert(ctx, s.metadataTitle(group), string(body))
}

func (s *Store) GetMetadata(ctx context.Context, group string) (*backend.Metadata, error) {
	note, err := s.client.Find(ctx, s.metadataTitle(group))
	if err != nil {
		return nil, err
	}
	if note == nil {
		return nil, fmt.Errorf("%w: no metadata for group %s", common.ErrNotFound, group)
	}

	var md backend.Metadata
	if err := json.Unmarshal([]byte(note.Content), &md); err != nil {
		return nil, fmt.Errorf("%w: malformed metadata note: %v", common.ErrBackendUnavailable, err)
	}
	return &md, nil
}

func (s *Store) DeleteMetadata(ctx context.Context, group string) error {
	return s.client.Delete(ctx, s.metadataTitle(group))
}

// ListGroups scans metadata note titles. Chunk notes are ignored: a group
// exists only once its metadata commit landed.
func (s *Store) ListGroups(ctx context.Context) ([]string, error) {
	notes, err := s.client.ListByPrefix(ctx, s.label+" ")
	if err != nil {
		return nil, err
	}

	var groups []string
	for _, n := range notes {
		rest, ok := strings.CutPrefix(n.Title, s.label+" ")
		if !ok {
			continue
		}
		group, ok := strings.CutSuffix(rest, " - Metadata")
		if !ok {
			continue
		}
		groups = append(groups, group)
	}
	return groups, nil
}

func (s *Store) MaxBlobSize() int { return maxChunkChars }

func (s *Store) MaxChunks() int { return maxChunks }
