// Package config loads the labyrinth server configuration.
package config

import (
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lawnchairsociety/epsilon/server/internal/labyrinth"
)

// ServerConfig holds server-wide configuration settings.
type ServerConfig struct {
	HTTP        HTTPConfig        `yaml:"http"`
	WebSocket   WebSocketConfig   `yaml:"websocket"`
	Connections ConnectionsConfig `yaml:"connections"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
	Labyrinth   LabyrinthConfig   `yaml:"labyrinth"`
	Database    DatabaseConfig    `yaml:"database"`
	Cache       CacheConfig       `yaml:"cache"`
	NATS        NATSConfig        `yaml:"nats"`
}

// HTTPConfig holds the API listener settings.
type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// WebSocketConfig holds WebSocket-specific settings.
type WebSocketConfig struct {
	// AllowedOrigins is a list of origins allowed to connect via WebSocket.
	// Empty list enforces same-origin policy.
	// Use "*" to allow all origins.
	AllowedOrigins []string `yaml:"allowed_origins"`

	// MaxMessageSize is the maximum WebSocket message size in bytes.
	MaxMessageSize int64 `yaml:"max_message_size"`

	// SendBuffer is the per-subscriber outbound queue length.
	SendBuffer int `yaml:"send_buffer"`
}

// ConnectionsConfig holds connection limit settings.
type ConnectionsConfig struct {
	// MaxPerIP is the maximum concurrent subscriptions from a single IP address.
	// 0 means unlimited.
	MaxPerIP int `yaml:"max_per_ip"`

	// MaxTotal is the maximum total concurrent subscriptions. 0 means unlimited.
	MaxTotal int `yaml:"max_total"`
}

// RateLimitConfig throttles labyrinth generation per client IP.
type RateLimitConfig struct {
	// MaxCreates is the number of labyrinths one IP may generate per window.
	MaxCreates int `yaml:"max_creates"`

	// WindowSeconds is the length of the counting window.
	WindowSeconds int `yaml:"window_seconds"`

	// LockoutSeconds is the initial lockout once the window is exhausted.
	// Repeated lockouts double up to MaxLockoutSeconds.
	LockoutSeconds    int `yaml:"lockout_seconds"`
	MaxLockoutSeconds int `yaml:"max_lockout_seconds"`
}

// LabyrinthConfig holds generation defaults.
type LabyrinthConfig struct {
	// DefaultSize is used when a request omits the size.
	DefaultSize int `yaml:"default_size"`
}

// DatabaseConfig selects and configures the persistence driver.
type DatabaseConfig struct {
	Driver     string         `yaml:"driver"`
	SQLitePath string         `yaml:"sqlite_path"`
	Postgres   PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// CacheConfig configures labyrinth snapshot caching. An empty RedisAddr keeps
// the cache in process memory.
type CacheConfig struct {
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	Size          int           `yaml:"size"`
	TTL           time.Duration `yaml:"ttl"`
}

// NATSConfig configures event publishing. An empty URL disables it.
type NATSConfig struct {
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

// DefaultConfig returns a ServerConfig with secure defaults.
func DefaultConfig() *ServerConfig {
	return &ServerConfig{
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		WebSocket: WebSocketConfig{
			AllowedOrigins: []string{}, // Same-origin only by default
			MaxMessageSize: 4096,
			SendBuffer:     32,
		},
		Connections: ConnectionsConfig{
			MaxPerIP: 10,
			MaxTotal: 500,
		},
		RateLimit: RateLimitConfig{
			MaxCreates:        30,
			WindowSeconds:     60,
			LockoutSeconds:    30,
			MaxLockoutSeconds: 300,
		},
		Labyrinth: LabyrinthConfig{
			DefaultSize: 6,
		},
		Database: DatabaseConfig{
			Driver:     "sqlite",
			SQLitePath: "data/epsilon.db",
			Postgres: PostgresConfig{
				Host:     "localhost",
				Port:     5432,
				Database: "epsilon",
				SSLMode:  "disable",
			},
		},
		Cache: CacheConfig{
			Size: 256,
			TTL:  time.Hour,
		},
		NATS: NATSConfig{
			SubjectPrefix: "epsilon.labyrinth",
		},
	}
}

// LoadConfig loads server configuration from a YAML file and applies
// environment overrides. A missing file yields the defaults.
func LoadConfig(path string) (*ServerConfig, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return config, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, config); err != nil {
			return DefaultConfig(), err
		}
	}

	config.applyEnv()
	config.normalize()
	return config, nil
}

func (c *ServerConfig) applyEnv() {
	if addr := os.Getenv("EPSILON_HTTP_ADDR"); addr != "" {
		c.HTTP.Addr = addr
	}
	if driver := os.Getenv("EPSILON_DB_DRIVER"); driver != "" {
		c.Database.Driver = driver
	}
	if addr := os.Getenv("EPSILON_REDIS_ADDR"); addr != "" {
		c.Cache.RedisAddr = addr
	}
	if url := os.Getenv("EPSILON_NATS_URL"); url != "" {
		c.NATS.URL = url
	}
}

// normalize replaces out-of-range values with defaults.
func (c *ServerConfig) normalize() {
	defaults := DefaultConfig()
	if labyrinth.ValidateSize(c.Labyrinth.DefaultSize) != nil {
		c.Labyrinth.DefaultSize = defaults.Labyrinth.DefaultSize
	}
	if c.WebSocket.MaxMessageSize <= 0 {
		c.WebSocket.MaxMessageSize = defaults.WebSocket.MaxMessageSize
	}
	if c.WebSocket.SendBuffer <= 0 {
		c.WebSocket.SendBuffer = defaults.WebSocket.SendBuffer
	}
	if c.Cache.Size <= 0 {
		c.Cache.Size = defaults.Cache.Size
	}
	c.Database.Driver = strings.ToLower(c.Database.Driver)
}

// IsOriginAllowed checks if the given origin is allowed based on the config.
// Returns true if:
// - AllowedOrigins contains "*" (allow all)
// - AllowedOrigins contains the exact origin
// - AllowedOrigins is empty and origin matches the request host (same-origin)
func (c *WebSocketConfig) IsOriginAllowed(origin, requestHost string) bool {
	if len(c.AllowedOrigins) == 0 {
		return isSameOrigin(origin, requestHost)
	}

	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	return false
}

// isSameOrigin checks if the origin matches the request host.
func isSameOrigin(origin, requestHost string) bool {
	if origin == "" {
		return true // Non-browser clients send no Origin header
	}

	originHost := origin
	if idx := strings.Index(origin, "://"); idx != -1 {
		originHost = origin[idx+3:]
	}
	originHost = strings.TrimSuffix(originHost, "/")

	return originHost == requestHost
}
