package notes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/secretsync/internal/backend"
	"github.com/dmitrijs2005/secretsync/internal/common"
)

// fakeNotesAPI emulates the hosted notes service: notes by client-assigned
// ID, lookup by exact title or title prefix.
type fakeNotesAPI struct {
	mu    sync.Mutex
	token string
	notes map[string]Note // by ID
}

func newFakeNotesAPI(token string) *fakeNotesAPI {
	return &fakeNotesAPI{token: token, notes: map[string]Note{}}
}

func (f *fakeNotesAPI) titles() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, n := range f.notes {
		out = append(out, n.Title)
	}
	sort.Strings(out)
	return out
}

func (f *fakeNotesAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer "+f.token {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.URL.Path == "/api/notes" && r.Method == http.MethodGet:
		var out []Note
		title := r.URL.Query().Get("title")
		prefix := r.URL.Query().Get("prefix")
		for _, n := range f.notes {
			if title != "" && n.Title == title {
				out = append(out, n)
			}
			if prefix != "" && strings.HasPrefix(n.Title, prefix) {
				out = append(out, n)
			}
		}
		if out == nil {
			out = []Note{}
		}
		json.NewEncoder(w).Encode(out)

	case strings.HasPrefix(r.URL.Path, "/api/notes/"):
		id := strings.TrimPrefix(r.URL.Path, "/api/notes/")
		switch r.Method {
		case http.MethodPut:
			var n Note
			if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			n.ID = id
			f.notes[id] = n
		case http.MethodDelete:
			if _, ok := f.notes[id]; !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			delete(f.notes, id)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestStore(t *testing.T) (*Store, *fakeNotesAPI) {
	t.Helper()
	api := newFakeNotesAPI("token")
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return NewStore(NewClient(srv.URL, "token", 5*time.Second), ""), api
}

func TestPutBlob_TitleScheme(t *testing.T) {
	s, api := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutBlob(ctx, "default", backend.ChunkKey(0), []byte("AAAA")))
	require.NoError(t, s.PutBlob(ctx, "default", backend.ChunkKey(1), []byte("BBBB")))

	assert.Equal(t, []string{
		"Secretsync default - Chunk 0",
		"Secretsync default - Chunk 1",
	}, api.titles())
}

func TestPutBlob_ReplacesExistingNote(t *testing.T) {
	s, api := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutBlob(ctx, "default", backend.ChunkKey(0), []byte("old")))
	require.NoError(t, s.PutBlob(ctx, "default", backend.ChunkKey(0), []byte("new")))

	require.Len(t, api.titles(), 1)
	got, err := s.GetBlob(ctx, "default", backend.ChunkKey(0))
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), got)
}

func TestGetBlob_NotFound(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.GetBlob(context.Background(), "default", backend.ChunkKey(3))
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDeleteBlob_Idempotent(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutBlob(ctx, "default", backend.ChunkKey(0), []byte("x")))
	require.NoError(t, s.DeleteBlob(ctx, "default", backend.ChunkKey(0)))
	require.NoError(t, s.DeleteBlob(ctx, "default", backend.ChunkKey(0)))
}

func TestMetadataRoundTrip(t *testing.T) {
	s, api := newTestStore(t)
	ctx := context.Background()

	md := &backend.Metadata{
		FileCount:  3,
		TotalSize:  4096,
		ChunkCount: 2,
		UploadedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.PutMetadata(ctx, "work", md))
	assert.Contains(t, api.titles(), "Secretsync work - Metadata")

	got, err := s.GetMetadata(ctx, "work")
	require.NoError(t, err)
	assert.Equal(t, md, got)
}

func TestGetMetadata_NotFound(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.GetMetadata(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestListGroups_OnlyMetadataNotesCount(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	// Chunks without a metadata commit do not make a group visible.
	require.NoError(t, s.PutBlob(ctx, "pending", backend.ChunkKey(0), []byte("x")))

	require.NoError(t, s.PutMetadata(ctx, "default", &backend.Metadata{ChunkCount: 1}))
	require.NoError(t, s.PutMetadata(ctx, "work", &backend.Metadata{ChunkCount: 1}))

	groups, err := s.ListGroups(ctx)
	require.NoError(t, err)
	sort.Strings(groups)
	assert.Equal(t, []string{"default", "work"}, groups)
}

func TestBadToken_Unauthorized(t *testing.T) {
	api := newFakeNotesAPI("right")
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	s := NewStore(NewClient(srv.URL, "wrong", 5*time.Second), "")

	_, err := s.GetMetadata(context.Background(), "default")
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestBudget(t *testing.T) {
	s, _ := newTestStore(t)
	assert.Equal(t, 8000, s.MaxBlobSize())
	assert.Equal(t, 48, s.MaxChunks())
}
