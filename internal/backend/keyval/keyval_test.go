package keyval

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/secretsync/internal/backend"
	"github.com/dmitrijs2005/secretsync/internal/common"
)

// fakeService is a minimal in-memory rendition of the key-value wire
// contract, enough to exercise the client's request shapes and error
// mapping.
type fakeService struct {
	mu       sync.Mutex
	token    string
	blobs    map[string][]byte
	metadata map[string][]byte
}

func newFakeService(token string) *fakeService {
	return &fakeService{
		token:    token,
		blobs:    map[string][]byte{},
		metadata: map[string][]byte{},
	}
}

func (f *fakeService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer "+f.token {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.URL.Path == "/list":
		var groups []string
		for g := range f.metadata {
			groups = append(groups, g)
		}
		if groups == nil {
			groups = []string{}
		}
		json.NewEncoder(w).Encode(groups)

	case strings.HasPrefix(r.URL.Path, "/secrets/"):
		f.handleItem(w, r, f.blobs, strings.TrimPrefix(r.URL.Path, "/secrets/"))

	case strings.HasPrefix(r.URL.Path, "/metadata/"):
		f.handleItem(w, r, f.metadata, strings.TrimPrefix(r.URL.Path, "/metadata/"))

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeService) handleItem(w http.ResponseWriter, r *http.Request, store map[string][]byte, group string) {
	switch r.Method {
	case http.MethodGet:
		data, ok := store[group]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write(data)
	case http.MethodPost:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		store[group] = body
	case http.MethodDelete:
		if _, ok := store[group]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		delete(store, group)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestStore(t *testing.T) (*Store, *fakeService) {
	t.Helper()
	svc := newFakeService("sekrit")
	srv := httptest.NewServer(svc)
	t.Cleanup(srv.Close)
	return New(srv.URL, "sekrit", 5*time.Second), svc
}

func TestBlobRoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutBlob(ctx, "default", backend.ChunkKey(0), []byte("payload")))

	got, err := s.GetBlob(ctx, "default", backend.ChunkKey(0))
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)
}

func TestGetBlob_NotFound(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.GetBlob(context.Background(), "nope", backend.ChunkKey(0))
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDeleteBlob_Idempotent(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutBlob(ctx, "default", backend.ChunkKey(0), []byte("x")))
	require.NoError(t, s.DeleteBlob(ctx, "default", backend.ChunkKey(0)))
	// Absent key is not an error.
	require.NoError(t, s.DeleteBlob(ctx, "default", backend.ChunkKey(0)))
}

func TestMetadataRoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	md := &backend.Metadata{
		FileCount:  2,
		TotalSize:  123,
		ChunkCount: 1,
		UploadedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.PutMetadata(ctx, "default", md))

	got, err := s.GetMetadata(ctx, "default")
	require.NoError(t, err)
	assert.Equal(t, md, got)
}

func TestGetMetadata_NotFound(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.GetMetadata(context.Background(), "nope")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestListGroups(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	groups, err := s.ListGroups(ctx)
	require.NoError(t, err)
	assert.Empty(t, groups)

	require.NoError(t, s.PutMetadata(ctx, "default", &backend.Metadata{ChunkCount: 1}))

	groups, err = s.ListGroups(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"default"}, groups)
}

func TestBadToken_Unauthorized(t *testing.T) {
	svc := newFakeService("right")
	srv := httptest.NewServer(svc)
	t.Cleanup(srv.Close)

	s := New(srv.URL, "wrong", 5*time.Second)

	_, err := s.GetMetadata(context.Background(), "default")
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	err = s.PutBlob(context.Background(), "default", backend.ChunkKey(0), []byte("x"))
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestServerDown_BackendUnavailable(t *testing.T) {
	srv := httptest.NewServer(newFakeService("t"))
	url := srv.URL
	srv.Close()

	s := New(url, "t", time.Second)

	_, err := s.GetMetadata(context.Background(), "default")
	assert.ErrorIs(t, err, common.ErrBackendUnavailable)
}

func TestBudget(t *testing.T) {
	s, _ := newTestStore(t)
	assert.Equal(t, 25<<20, s.MaxBlobSize())
	assert.Equal(t, 1, s.MaxChunks())
}
