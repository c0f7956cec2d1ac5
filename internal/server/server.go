// Package server wires storage, handlers, middleware and replication into a
// running replica.
package server

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/nfaria/cofre/internal/naming"
	"github.com/nfaria/cofre/internal/server/auth"
	"github.com/nfaria/cofre/internal/server/blob"
	"github.com/nfaria/cofre/internal/server/config"
	"github.com/nfaria/cofre/internal/server/handlers"
	"github.com/nfaria/cofre/internal/server/middleware"
	"github.com/nfaria/cofre/internal/server/replication"
	"github.com/nfaria/cofre/internal/server/storage/sqlite"
)

// Server is one replica: either the primary, which forwards mutations to
// the backup, or the backup, which watches the primary's heartbeat.
type Server struct {
	cfg       *config.Config
	log       *slog.Logger
	storage   *sqlite.Storage
	naming    *naming.Client
	heartbeat *replication.Heartbeat
	httpSrv   *http.Server
	handler   http.Handler
}

// New builds a replica from its configuration.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	store, err := sqlite.New(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	blobs, err := blob.New(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open blob store: %w", err)
	}

	tokenKey, err := loadTokenKey(cfg.TokenKeyFile, logger)
	if err != nil {
		return nil, err
	}
	tokens := handlers.TokenConfig{Key: tokenKey, TTL: cfg.TokenTTL}

	namingClient := naming.NewClient(cfg.NamingURL)

	// Only the primary forwards; the backup applying a forwarded mutation
	// must not bounce it anywhere.
	var replicator handlers.Replicator = handlers.NoopReplicator{}
	if cfg.Role == config.RolePrimary {
		replicator = replication.NewForwarder(namingClient, naming.BackupPath, logger)
	}

	h := handlers.New(handlers.Config{
		Identities: store,
		Files:      store,
		Invites:    store,
		Blobs:      blobs,
		Challenges: auth.NewChallenges(auth.DefaultChallengeTTL),
		Tokens:     tokens,
		Replicator: replicator,
		Logger:     logger,
	})

	s := &Server{
		cfg:     cfg,
		log:     logger,
		storage: store,
		naming:  namingClient,
	}

	if cfg.Role == config.RoleBackup {
		s.heartbeat = replication.NewHeartbeat(replication.HeartbeatConfig{
			Naming:      namingClient,
			PrimaryPath: naming.PrimaryPath,
			BackupPath:  naming.BackupPath,
			SelfURL:     cfg.AdvertiseURL,
			Interval:    cfg.HeartbeatInterval,
			Threshold:   cfg.FailureThreshold,
			Logger:      logger,
		})
	}

	s.handler = s.routes(h, tokens)
	s.httpSrv = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s, nil
}

// Handler returns the fully assembled HTTP handler, used by tests to drive
// a replica without a listener.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes(h *handlers.Handler, tokens handlers.TokenConfig) http.Handler {
	mux := http.NewServeMux()

	// The login surface is the only one reachable without a token; it gets
	// its own rate limit.
	limited := middleware.RateLimitMiddleware(s.cfg.AuthRateLimit, time.Minute, s.log)
	mux.Handle("POST /api/v1/auth/register", limited(http.HandlerFunc(h.Register)))
	mux.Handle("POST /api/v1/auth/challenge", limited(http.HandlerFunc(h.Challenge)))
	mux.Handle("POST /api/v1/auth/token", limited(http.HandlerFunc(h.Token)))

	mux.HandleFunc("POST /api/v1/files", h.Upload)
	mux.HandleFunc("GET /api/v1/files/{name}", h.Download)
	mux.HandleFunc("POST /api/v1/files/remove", h.Remove)
	mux.HandleFunc("GET /api/v1/users/{username}/certificate", h.Certificate)
	mux.HandleFunc("POST /api/v1/invites", h.Invite)
	mux.HandleFunc("POST /api/v1/invites/accept", h.Accept)
	mux.HandleFunc("GET /api/v1/ping", h.Ping)

	chain := middleware.AuthMiddleware(s.log, tokens)(mux)
	chain = middleware.LoggingWithSkip(s.log, []string{"/api/v1/ping"})(chain)
	chain = middleware.RecoveryMiddleware(s.log)(chain)
	return chain
}

// Run registers the replica in the naming service, starts the heartbeat
// when running as backup, and serves until the context is canceled.
func (s *Server) Run(ctx context.Context) error {
	if err := s.naming.Rebind(ctx, s.cfg.RegistryPath(), s.cfg.AdvertiseURL); err != nil {
		return fmt.Errorf("register in naming service: %w", err)
	}
	s.log.Info("registered", "role", s.cfg.Role, "path", s.cfg.RegistryPath(), "url", s.cfg.AdvertiseURL)

	if s.heartbeat != nil {
		go s.heartbeat.Run(ctx)
	}

	errC := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", s.cfg.Addr)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errC <- err
		}
	}()

	select {
	case err := <-errC:
		return err
	case <-ctx.Done():
	}

	return s.shutdown()
}

func (s *Server) shutdown() error {
	s.log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Release the naming binding so a restart or peer can take the path,
	// unless this replica was already replaced there.
	if s.heartbeat == nil || !s.heartbeat.Promoted() {
		if err := s.naming.Unbind(shutdownCtx, s.cfg.RegistryPath(), s.cfg.AdvertiseURL); err != nil {
			s.log.Warn("unbind failed", "error", err)
		}
	}

	if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return s.storage.Close()
}

// loadTokenKey reads the RSA session-token key from a PEM file, or
// generates an ephemeral one when no file is configured. Replicated setups
// must share a key file or tokens issued by one replica will not validate
// on the other.
func loadTokenKey(path string, logger *slog.Logger) (*rsa.PrivateKey, error) {
	if path == "" {
		logger.Warn("no token key file configured, generating ephemeral key")
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			return nil, fmt.Errorf("generate token key: %w", err)
		}
		return key, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read token key file: %w", err)
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("token key file %s: no PEM block", path)
	}

	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse token key: %w", err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("token key file %s: not an RSA key", path)
	}
	return key, nil
}
