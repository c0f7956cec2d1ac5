package naming

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/nfaria/cofre/pkg/api"
)

// ErrNotBound is returned by Lookup when no server is registered at a path.
var ErrNotBound = errors.New("no server bound at path")

// Client talks to the naming registry.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a naming client for the registry at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// Lookup resolves a logical path to the URI bound to it.
func (c *Client) Lookup(ctx context.Context, path string) (string, error) {
	u := c.baseURL + "/naming/lookup?path=" + url.QueryEscape(path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("build lookup request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("naming lookup: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
		var out api.LookupResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return "", fmt.Errorf("decode lookup response: %w", err)
		}
		return out.URI, nil
	case http.StatusNotFound:
		return "", fmt.Errorf("%w: %s", ErrNotBound, path)
	default:
		return "", fmt.Errorf("naming lookup: unexpected status %d", resp.StatusCode)
	}
}

// Bind registers a URI at a path, failing if the path is taken.
func (c *Client) Bind(ctx context.Context, path, uri string) error {
	return c.post(ctx, "/naming/bind", path, uri, http.StatusCreated)
}

// Rebind registers a URI at a path, replacing any existing binding.
func (c *Client) Rebind(ctx context.Context, path, uri string) error {
	return c.post(ctx, "/naming/rebind", path, uri, http.StatusOK)
}

// Unbind removes the binding at path if it still names uri.
func (c *Client) Unbind(ctx context.Context, path, uri string) error {
	return c.post(ctx, "/naming/unbind", path, uri, http.StatusNoContent)
}

func (c *Client) post(ctx context.Context, endpoint, path, uri string, wantStatus int) error {
	body, err := json.Marshal(api.BindRequest{Path: path, URI: uri})
	if err != nil {
		return fmt.Errorf("marshal bind request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("naming %s: %w", endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != wantStatus {
		return fmt.Errorf("naming %s: unexpected status %d", endpoint, resp.StatusCode)
	}
	return nil
}
