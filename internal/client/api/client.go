// Package api is the HTTP client for the file server. It resolves the
// current primary through the naming registry before connecting and retries
// transparently when a failover is in progress.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/nfaria/cofre/internal/naming"
	"github.com/nfaria/cofre/pkg/api"
)

// ServerError is a non-2xx response from the server, carrying the machine
// readable error code from the body.
type ServerError struct {
	Status  int
	Code    string
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error (%d %s): %s", e.Status, e.Code, e.Message)
}

// Client talks to whichever replica the naming registry says is primary.
type Client struct {
	naming      *naming.Client
	primaryPath string
	httpClient  *http.Client

	mu      sync.Mutex
	baseURL string
	token   string
}

// NewClient creates a client that resolves the primary at primaryPath
// through the given naming registry.
func NewClient(namingClient *naming.Client, primaryPath string) *Client {
	return &Client{
		naming:      namingClient,
		primaryPath: primaryPath,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
}

// SetToken stores the session token attached to subsequent requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the current session token.
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// Register creates a new identity on the server.
func (c *Client) Register(ctx context.Context, req api.RegisterRequest) (*api.RegisterResponse, error) {
	var resp api.RegisterResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/register", req, &resp); err != nil {
		return nil, fmt.Errorf("register request failed: %w", err)
	}
	return &resp, nil
}

// Challenge requests a login nonce for the username.
func (c *Client) Challenge(ctx context.Context, username string) (*api.ChallengeResponse, error) {
	var resp api.ChallengeResponse
	req := api.ChallengeRequest{Username: username}
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/challenge", req, &resp); err != nil {
		return nil, fmt.Errorf("challenge request failed: %w", err)
	}
	return &resp, nil
}

// Login exchanges a signed nonce for a session token and stores it.
func (c *Client) Login(ctx context.Context, req api.TokenRequest) (*api.TokenResponse, error) {
	var resp api.TokenResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/token", req, &resp); err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	c.SetToken(resp.Token)
	return &resp, nil
}

// Upload pushes a new ciphertext version of a file.
func (c *Client) Upload(ctx context.Context, req api.UploadRequest) (*api.UploadResponse, error) {
	var resp api.UploadResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/files", req, &resp); err != nil {
		return nil, fmt.Errorf("upload request failed: %w", err)
	}
	return &resp, nil
}

// Download fetches the stored ciphertext and metadata for a file.
func (c *Client) Download(ctx context.Context, name string) (*api.DownloadResponse, error) {
	var resp api.DownloadResponse
	path := "/api/v1/files/" + url.PathEscape(name)
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("download request failed: %w", err)
	}
	return &resp, nil
}

// Certificate fetches another user's public certificate.
func (c *Client) Certificate(ctx context.Context, username string) (*api.CertificateResponse, error) {
	var resp api.CertificateResponse
	path := "/api/v1/users/" + url.PathEscape(username) + "/certificate"
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("certificate request failed: %w", err)
	}
	return &resp, nil
}

// Invite offers another user access to a file via a wrapped key.
func (c *Client) Invite(ctx context.Context, req api.InviteRequest) error {
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/invites", req, nil); err != nil {
		return fmt.Errorf("invite request failed: %w", err)
	}
	return nil
}

// Accept consumes a pending invite and returns the wrapped key.
func (c *Client) Accept(ctx context.Context, fileName string) (*api.AcceptResponse, error) {
	var resp api.AcceptResponse
	req := api.AcceptRequest{FileName: fileName}
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/invites/accept", req, &resp); err != nil {
		return nil, fmt.Errorf("accept request failed: %w", err)
	}
	return &resp, nil
}

// Remove revokes a collaborator and returns the remaining entitled
// collaborators' certificates for re-keying.
func (c *Client) Remove(ctx context.Context, req api.RemoveRequest) (*api.RemoveResponse, error) {
	var resp api.RemoveResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/files/remove", req, &resp); err != nil {
		return nil, fmt.Errorf("remove request failed: %w", err)
	}
	return &resp, nil
}

// doRequest marshals, sends and decodes one API call. Network errors and
// 503s are retried with fibonacci backoff, re-resolving the primary first:
// during a failover the registry briefly points at a dead server until the
// backup rebinds itself.
func (c *Client) doRequest(ctx context.Context, method, path string, body, result any) error {
	var jsonData []byte
	if body != nil {
		var err error
		jsonData, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	backoff := retry.WithMaxRetries(6, retry.NewFibonacci(250*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := c.doOnce(ctx, method, path, jsonData, result)
		if err == nil {
			return nil
		}

		var srvErr *ServerError
		if errors.As(err, &srvErr) && srvErr.Status != http.StatusServiceUnavailable {
			// Domain errors are final; only availability problems warrant
			// another attempt.
			return err
		}

		c.invalidate()
		return retry.RetryableError(err)
	})
}

func (c *Client) doOnce(ctx context.Context, method, path string, jsonData []byte, result any) error {
	baseURL, err := c.resolve(ctx)
	if err != nil {
		return err
	}

	var bodyReader io.Reader
	if jsonData != nil {
		bodyReader = bytes.NewReader(jsonData)
	}
	req, err := http.NewRequestWithContext(ctx, method, baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if jsonData != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		srvErr := &ServerError{Status: resp.StatusCode}
		var errResp api.ErrorResponse
		if json.Unmarshal(respBody, &errResp) == nil {
			srvErr.Code = errResp.Error
			srvErr.Message = errResp.Message
		} else {
			srvErr.Message = string(respBody)
		}
		return srvErr
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) resolve(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.baseURL != "" {
		return c.baseURL, nil
	}
	uri, err := c.naming.Lookup(ctx, c.primaryPath)
	if err != nil {
		return "", fmt.Errorf("resolve primary: %w", err)
	}
	c.baseURL = uri
	return uri, nil
}

func (c *Client) invalidate() {
	c.mu.Lock()
	c.baseURL = ""
	c.mu.Unlock()
}
