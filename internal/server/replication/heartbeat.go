package replication

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/nfaria/cofre/internal/naming"
)

const (
	// DefaultInterval is how often the backup pings the primary.
	DefaultInterval = 5 * time.Second

	// DefaultFailureThreshold is how many consecutive failed pings it takes
	// before the backup declares the primary dead. A single lost ping is
	// routine; three in a row is an outage.
	DefaultFailureThreshold = 3
)

// Heartbeat runs on the backup replica. It pings the primary on a fixed
// interval and, once the failure threshold is reached, promotes itself:
// the primary path in the naming registry is rebound to this replica and
// the backup path is released. Promotion happens at most once.
type Heartbeat struct {
	naming      *naming.Client
	primaryPath string
	backupPath  string
	selfURL     string
	interval    time.Duration
	threshold   int
	httpClient  *http.Client
	log         *slog.Logger
	onPromote   func()

	promoted atomic.Bool
}

// HeartbeatConfig collects the heartbeat's dependencies. Interval and
// Threshold fall back to the defaults when zero; OnPromote may be nil.
type HeartbeatConfig struct {
	Naming      *naming.Client
	PrimaryPath string
	BackupPath  string
	SelfURL     string
	Interval    time.Duration
	Threshold   int
	Logger      *slog.Logger
	OnPromote   func()
}

// NewHeartbeat creates a heartbeat watcher.
func NewHeartbeat(cfg HeartbeatConfig) *Heartbeat {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultFailureThreshold
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Heartbeat{
		naming:      cfg.Naming,
		primaryPath: cfg.PrimaryPath,
		backupPath:  cfg.BackupPath,
		selfURL:     cfg.SelfURL,
		interval:    cfg.Interval,
		threshold:   cfg.Threshold,
		httpClient:  &http.Client{Timeout: 3 * time.Second},
		log:         cfg.Logger,
		onPromote:   cfg.OnPromote,
	}
}

// Promoted reports whether this replica has taken over as primary.
func (h *Heartbeat) Promoted() bool {
	return h.promoted.Load()
}

// Run pings until the context is canceled or the replica promotes itself.
func (h *Heartbeat) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := h.ping(ctx); err != nil {
				failures++
				h.log.Warn("primary ping failed", "failures", failures, "threshold", h.threshold, "error", err)
				if failures >= h.threshold {
					h.promote(ctx)
					return
				}
				continue
			}
			failures = 0
		}
	}
}

func (h *Heartbeat) ping(ctx context.Context) error {
	primaryURL, err := h.naming.Lookup(ctx, h.primaryPath)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, primaryURL+"/api/v1/ping", nil)
	if err != nil {
		return err
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return &statusError{code: resp.StatusCode}
	}
	return nil
}

// promote rebinds the primary path to this replica and releases the backup
// path. Registry errors are logged but do not abort: a promotion with a
// stale backup binding still serves clients, a demoted replica does not.
func (h *Heartbeat) promote(ctx context.Context) {
	h.log.Info("primary declared dead, promoting", "self", h.selfURL)

	if err := h.naming.Rebind(ctx, h.primaryPath, h.selfURL); err != nil {
		h.log.Error("rebind primary path failed", "error", err)
	}
	if err := h.naming.Unbind(ctx, h.backupPath, h.selfURL); err != nil {
		h.log.Warn("unbind backup path failed", "error", err)
	}

	h.promoted.Store(true)
	if h.onPromote != nil {
		h.onPromote()
	}
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return http.StatusText(e.code)
}
