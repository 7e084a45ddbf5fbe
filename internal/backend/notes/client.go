// Package notes implements the backend.Store over a hosted notes service.
// Notes are small (the service caps them around 10k characters), so a
// pushed archive is stored as a series of base64 chunk notes plus one
// metadata note, all named by a fixed title scheme.
package notes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/secretsync/internal/common"
)

// Note is one item in the notes service.
type Note struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Client is a thin HTTP client for the notes API. IDs are client-assigned
// UUIDs; PUT creates or replaces a note by ID.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient returns a Client for the notes API at baseURL.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

// Find returns the note with exactly the given title, or nil if absent.
// Titles are unique within this tool's naming scheme; if the service ever
// holds duplicates, the first match wins.
func (c *Client) Find(ctx context.Context, title string) (*Note, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/notes?title="+url.QueryEscape(title), nil)
	if err != nil {
		return nil, err
	}

	var found []Note
	if err := json.Unmarshal(body, &found); err != nil {
		return nil, fmt.Errorf("%w: malformed note list: %v", common.ErrBackendUnavailable, err)
	}
	if len(found) == 0 {
		return nil, nil
	}
	return &found[0], nil
}

// ListByPrefix returns every note whose title starts with prefix.
func (c *Client) ListByPrefix(ctx context.Context, prefix string) ([]Note, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/notes?prefix="+url.QueryEscape(prefix), nil)
	if err != nil {
		return nil, err
	}

	var found []Note
	if err := json.Unmarshal(body, &found); err != nil {
		return nil, fmt.Errorf("%w: malformed note list: %v", common.ErrBackendUnavailable, err)
	}
	return found, nil
}

// Upsert writes content under title: replaces the existing note with that
// title, or creates a new one with a fresh UUID.
func (c *Client) Upsert(ctx context.Context, title, content string) error {
	existing, err := c.Find(ctx, title)
	if err != nil {
		return err
	}

	id := uuid.NewString()
	if existing != nil {
		id = existing.ID
	}

	payload, err := json.Marshal(Note{ID: id, Title: title, Content: content})
	if err != nil {
		return err
	}
	_, err = c.do(ctx, http.MethodPut, "/api/notes/"+id, payload)
	return err
}

// Delete removes the note with the given title. Absent notes are ignored.
func (c *Client) Delete(ctx context.Context, title string) error {
	existing, err := c.Find(ctx, title)
	if err != nil {
		return err
	}
	if existing == nil {
		return nil
	}
	_, err = c.do(ctx, http.MethodDelete, "/api/notes/"+existing.ID, nil)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
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
