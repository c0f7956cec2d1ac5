// Package config loads server configuration from the environment, with an
// optional .env file for development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/nfaria/cofre/internal/naming"
)

// Server roles. The backup replica mirrors the primary's mutations and
// promotes itself when the primary's heartbeat dies.
const (
	RolePrimary = "primary"
	RoleBackup  = "backup"
)

// Config holds the server's runtime configuration.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	// AdvertiseURL is the URL registered in the naming service; it must be
	// reachable by clients and by the peer replica.
	AdvertiseURL string

	// NamingURL is the base URL of the naming registry.
	NamingURL string

	// Role is RolePrimary or RoleBackup.
	Role string

	// DataDir is where ciphertext blobs are stored.
	DataDir string

	// DatabasePath is the sqlite database file.
	DatabasePath string

	// TokenKeyFile is a PEM file with the RSA key used to sign session
	// tokens. Both replicas must load the same key. Empty means an
	// ephemeral key, which only makes sense for single-server setups.
	TokenKeyFile string

	// TokenTTL is the session token lifetime.
	TokenTTL time.Duration

	// HeartbeatInterval is how often the backup pings the primary.
	HeartbeatInterval time.Duration

	// FailureThreshold is how many consecutive failed pings trigger
	// promotion.
	FailureThreshold int

	// AuthRateLimit caps requests per minute per client IP on the auth
	// endpoints.
	AuthRateLimit int
}

// Load reads configuration from the environment. A .env file in the working
// directory is merged in when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Addr:              getEnv("COFRE_ADDR", ":8080"),
		AdvertiseURL:      os.Getenv("COFRE_ADVERTISE_URL"),
		NamingURL:         getEnv("COFRE_NAMING_URL", "http://localhost:2181"),
		Role:              getEnv("COFRE_ROLE", RolePrimary),
		DataDir:           getEnv("COFRE_DATA_DIR", "data"),
		DatabasePath:      getEnv("COFRE_DB_PATH", "cofre.db"),
		TokenKeyFile:      os.Getenv("COFRE_TOKEN_KEY_FILE"),
		TokenTTL:          getDuration("COFRE_TOKEN_TTL", time.Hour),
		HeartbeatInterval: getDuration("COFRE_HEARTBEAT_INTERVAL", 5*time.Second),
		FailureThreshold:  getInt("COFRE_FAILURE_THRESHOLD", 3),
		AuthRateLimit:     getInt("COFRE_AUTH_RATE_LIMIT", 30),
	}

	if cfg.Role != RolePrimary && cfg.Role != RoleBackup {
		return nil, fmt.Errorf("invalid COFRE_ROLE %q: want %q or %q", cfg.Role, RolePrimary, RoleBackup)
	}
	if cfg.AdvertiseURL == "" {
		cfg.AdvertiseURL = "http://localhost" + cfg.Addr
	}

	return cfg, nil
}

// RegistryPath returns the naming path this replica registers under.
func (c *Config) RegistryPath() string {
	if c.Role == RoleBackup {
		return naming.BackupPath
	}
	return naming.PrimaryPath
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
