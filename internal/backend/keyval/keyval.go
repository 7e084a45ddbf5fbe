// Package keyval implements the backend.Store over the secretsync
// key-value HTTP service. Each group maps to one blob key and one metadata
// key, so listing never pays for a blob fetch. Auth is a shared bearer
// credential checked by the service on every request.
package keyval

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/secretsync/internal/backend"
	"github.com/dmitrijs2005/secretsync/internal/common"
)

// maxBlobSize is the service's per-value ceiling. Generous enough that a
// pushed archive practically never chunks.
const maxBlobSize = 25 << 20

// Store talks to one key-value service instance.
type Store struct {
	baseURL string
	token   string
	client  *http.Client
}

// New returns a Store for the service at baseURL, authenticating with the
// shared bearer token.
func New(baseURL, token string, timeout time.Duration) *Store {
	return &Store{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

// The service stores a single blob per group, so every chunk key maps to
// /secrets/{group}. MaxChunks enforces that only chunk-0 is ever written.

func (s *Store) PutBlob(ctx context.Context, group, _ string, data []byte) error {
	_, err := s.do(ctx, http.MethodPost, s.secretsURL(group), bytes.NewReader(data), nil)
	return err
}

func (s *Store) GetBlob(ctx context.Context, group, _ string) ([]byte, error) {
	return s.do(ctx, http.MethodGet, s.secretsURL(group), nil, nil)
}

func (s *Store) DeleteBlob(ctx context.Context, group, _ string) error {
	_, err := s.do(ctx, http.MethodDelete, s.secretsURL(group), nil, nil)
	if err != nil && !isNotFound(err) {
		return err
	}
	return nil
}

func (s *Store) PutMetadata(ctx context.Context, group string, md *backend.Metadata) error {
	body, err := json.Marshal(md)
	if err != nil {
		return err
	}
	hdr := http.Header{"Content-Type": []string{"application/json"}}
	_, err = s.do(ctx, http.MethodPost, s.metadataURL(group), bytes.NewReader(body), hdr)
	return err
}

func (s *Store) GetMetadata(ctx context.Context, group string) (*backend.Metadata, error) {
	body, err := s.do(ctx, http.MethodGet, s.metadataURL(group), nil, nil)
	if err != nil {
		return nil, err
	}

	var md backend.Metadata
	if err := json.Unmarshal(body, &md); err != nil {
		return nil, fmt.Errorf("%w: malformed metadata: %v", common.ErrBackendUnavailable, err)
	}
	return &md, nil
}

func (s *Store) DeleteMetadata(ctx context.Context, group string) error {
	_, err := s.do(ctx, http.MethodDelete, s.metadataURL(group), nil, nil)
	if err != nil && !isNotFound(err) {
		return err
	}
	return nil
}

func (s *Store) ListGroups(ctx context.Context) ([]string, error) {
	body, err := s.do(ctx, http.MethodGet, s.baseURL+"/list", nil, nil)
	if err != nil {
		return nil, err
	}

	var groups []string
	if err := json.Unmarshal(body, &groups); err != nil {
		return nil, fmt.Errorf("%w: malformed group list: %v", common.ErrBackendUnavailable, err)
	}
	return groups, nil
}

func (s *Store) MaxBlobSize() int { return maxBlobSize }

// MaxChunks is 1: the wire protocol has exactly one blob slot per group.
func (s *Store) MaxChunks() int { return 1 }

func (s *Store) secretsURL(group string) string {
	return s.baseURL + "/secrets/" + url.PathEscape(group)
}

func (s *Store) metadataURL(group string) string {
	return s.baseURL + "/metadata/" + url.PathEscape(group)
}

// do performs one request and maps the response onto the shared error
// taxonomy: 401 → ErrUnauthorized, 404 → ErrNotFound, transport failures
// and unexpected statuses → ErrBackendUnavailable.
func (s *Store) do(ctx context.Context, method, rawURL string, body io.Reader, hdr http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, err
	}
	for k, vs := range hdr {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, common.ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return nil, common.ErrNotFound
	case resp.StatusCode >= 300:
		return nil, fmt.Errorf("%w: unexpected status %d", common.ErrBackendUnavailable, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrBackendUnavailable, err)
	}
	return data, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, common.ErrNotFound)
}
