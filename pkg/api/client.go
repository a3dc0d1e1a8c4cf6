// Package api is a minimal Misskey REST client. Only the endpoints mkstream
// itself needs are implemented; calls are single-shot with no retry.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// defaultTimeout bounds a single REST call.
const defaultTimeout = 30 * time.Second

// Client talks to one Misskey instance.
type Client struct {
	base  string // https://<host>
	token string
	http  *http.Client
}

// New creates a Client for the given instance host and API token.
func New(uri, token string) *Client {
	return &Client{
		base:  "https://" + uri,
		token: token,
		http:  &http.Client{Timeout: defaultTimeout},
	}
}

// SetBaseURL overrides the instance base URL (for tests).
func (c *Client) SetBaseURL(base string) {
	c.base = base
}

// CreateNote posts a new note. Visibility defaults to "public" when empty.
func (c *Client) CreateNote(ctx context.Context, text, visibility string) error {
	if visibility == "" {
		visibility = "public"
	}
	return c.post(ctx, "/api/notes/create", map[string]any{
		"i":          c.token,
		"text":       text,
		"visibility": visibility,
	})
}

func (c *Client) post(ctx context.Context, path string, body map[string]any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("post %s: status %d: %s", path, resp.StatusCode, snippet)
	}
	return nil
}
