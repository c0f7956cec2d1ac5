// Package replication implements the primary/backup pair: the primary
// forwards every mutation to the backup before committing, and the backup
// watches the primary's heartbeat so it can promote itself when the primary
// dies.
package replication

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/nfaria/cofre/internal/naming"
)

// Forwarder replays mutating requests on the backup replica under the
// caller's own credential. Forwarding is best effort: the primary never
// fails a client request because the backup is missing or down. A backup
// that was briefly unreachable re-converges through the duplicate-upload
// acknowledgement on the next overwrite of each file.
type Forwarder struct {
	naming     *naming.Client
	backupPath string
	httpClient *http.Client
	log        *slog.Logger

	mu      sync.Mutex
	baseURL string
}

// NewForwarder creates a Forwarder that resolves the backup through the
// naming registry at backupPath.
func NewForwarder(namingClient *naming.Client, backupPath string, logger *slog.Logger) *Forwarder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Forwarder{
		naming:     namingClient,
		backupPath: backupPath,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        logger,
	}
}

// Forward sends the request to the backup. The resolved backup URL is
// cached; a failed send drops the cache so the next mutation re-resolves.
func (f *Forwarder) Forward(ctx context.Context, method, path string, body []byte, token string) {
	baseURL, err := f.resolve(ctx)
	if err != nil {
		f.log.Warn("backup not resolvable, skipping forward", "path", path, "error", err)
		return
	}

	if err := f.send(ctx, baseURL, method, path, body, token); err != nil {
		f.log.Warn("forward to backup failed", "path", path, "backup", baseURL, "error", err)
		f.invalidate()
	}
}

func (f *Forwarder) resolve(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.baseURL != "" {
		return f.baseURL, nil
	}
	uri, err := f.naming.Lookup(ctx, f.backupPath)
	if err != nil {
		return "", err
	}
	f.baseURL = uri
	return uri, nil
}

func (f *Forwarder) invalidate() {
	f.mu.Lock()
	f.baseURL = ""
	f.mu.Unlock()
}

func (f *Forwarder) send(ctx context.Context, baseURL, method, path string, body []byte, token string) error {
	req, err := http.NewRequestWithContext(ctx, method, baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	// The backup applies the same domain checks the primary is about to
	// run, so any status is acceptable here; it only gets logged upstream
	// when the connection itself fails.
	return nil
}
