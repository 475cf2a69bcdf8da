// Package config loads the season engine configuration from a TOML file,
// with a few environment overrides for container deployments.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Environment variables that override file values.
const (
	EnvDBPath    = "SEASON_DB_PATH"
	EnvPort      = "SEASON_PORT"
	EnvRedisAddr = "SEASON_REDIS_ADDR"
)

// Config represents the application configuration.
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Redis    RedisConfig    `toml:"redis"`
	Season   SeasonConfig   `toml:"season"`
	Stats    StatsConfig    `toml:"stats"`
	App      AppConfig      `toml:"app"`
}

// DatabaseConfig contains SQLite settings.
type DatabaseConfig struct {
	Path        string `toml:"path"`         // Path to the database file, ":memory:" for tests
	AutoMigrate bool   `toml:"auto_migrate"` // Apply pending migrations on startup
	BusyTimeout string `toml:"busy_timeout"` // e.g. "5s"
}

// ServerConfig contains HTTP API settings.
type ServerConfig struct {
	Port           int      `toml:"port"`
	AllowedOrigins []string `toml:"allowed_origins"` // CORS origins
	RateLimit      float64  `toml:"rate_limit"`      // Write requests per second, 0 = unlimited
	RateBurst      int      `toml:"rate_burst"`
	RequestTimeout string   `toml:"request_timeout"` // e.g. "30s"
}

// RedisConfig contains the optional Redis integration settings.
type RedisConfig struct {
	Enabled      bool   `toml:"enabled"`
	Addr         string `toml:"addr"`
	Password     string `toml:"password"`
	DB           int    `toml:"db"`
	KeyPrefix    string `toml:"key_prefix"`    // Prefix for live match state keys
	StateTTL     string `toml:"state_ttl"`     // e.g. "6h"
	MatchState   bool   `toml:"match_state"`   // Keep live match states in Redis instead of SQLite
	StreamPrefix string `toml:"stream_prefix"` // Prefix of domain event streams, "" disables publishing
	StreamMaxLen int64  `toml:"stream_max_len"`
}

// SeasonConfig contains scheduling settings.
type SeasonConfig struct {
	StartDate        string `toml:"start_date"`        // Kickoff of matchday 1, YYYY-MM-DD
	MatchdayInterval string `toml:"matchday_interval"` // e.g. "168h"
	Seed             uint64 `toml:"seed"`              // Fixture and AI seed, 0 = seeded from the clock
}

// StatsConfig contains projection settings.
type StatsConfig struct {
	TallyYellowCards  bool `toml:"tally_yellow_cards"`
	ProjectOnFinalize bool `toml:"project_on_finalize"`
}

// AppConfig contains general application settings.
type AppConfig struct {
	DebugMode bool `toml:"debug_mode"` // Enable debug logging
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:        "season.db",
			AutoMigrate: true,
			BusyTimeout: "5s",
		},
		Server: ServerConfig{
			Port:           8080,
			AllowedOrigins: []string{"http://localhost:3000"},
			RateLimit:      20,
			RateBurst:      40,
			RequestTimeout: "30s",
		},
		Redis: RedisConfig{
			Enabled:      false,
			Addr:         "localhost:6379",
			KeyPrefix:    "season",
			StateTTL:     "6h",
			StreamPrefix: "season.events",
			StreamMaxLen: 10000,
		},
		Season: SeasonConfig{
			StartDate:        fmt.Sprintf("%d-08-01", time.Now().Year()),
			MatchdayInterval: "168h",
		},
		Stats: StatsConfig{
			TallyYellowCards:  false,
			ProjectOnFinalize: true,
		},
	}
}

// DefaultPath returns ~/.season-engine/config.toml, creating the directory.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".season-engine")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}

	return filepath.Join(configDir, "config.toml"), nil
}

// Load reads the configuration at path, falling back to defaults when the
// file does not exist. An empty path means DefaultPath. Environment
// overrides are applied last.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	config := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// defaults
	case err != nil:
		return nil, fmt.Errorf("read config file: %w", err)
	default:
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := config.applyEnv(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvDBPath); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvPort, v, err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv(EnvRedisAddr); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	return nil
}

// Save writes the configuration to path.
func (c *Config) Save(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}
	if _, err := c.GetBusyTimeout(); err != nil {
		return fmt.Errorf("invalid busy timeout %q: %w", c.Database.BusyTimeout, err)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port out of range: %d", c.Server.Port)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("rate limit cannot be negative: %v", c.Server.RateLimit)
	}
	if c.Server.RateLimit > 0 && c.Server.RateBurst < 1 {
		return fmt.Errorf("rate burst must be at least 1 when rate limiting, got %d", c.Server.RateBurst)
	}
	if _, err := c.GetRequestTimeout(); err != nil {
		return fmt.Errorf("invalid request timeout %q: %w", c.Server.RequestTimeout, err)
	}

	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis address is required when redis is enabled")
		}
		if _, err := c.GetStateTTL(); err != nil {
			return fmt.Errorf("invalid redis state TTL %q: %w", c.Redis.StateTTL, err)
		}
		if c.Redis.StreamMaxLen < 0 {
			return fmt.Errorf("stream max length cannot be negative: %d", c.Redis.StreamMaxLen)
		}
	} else if c.Redis.MatchState {
		return fmt.Errorf("redis match state requires redis to be enabled")
	}

	if _, err := c.GetSeasonStart(); err != nil {
		return fmt.Errorf("invalid season start date %q: %w", c.Season.StartDate, err)
	}
	interval, err := c.GetMatchdayInterval()
	if err != nil {
		return fmt.Errorf("invalid matchday interval %q: %w", c.Season.MatchdayInterval, err)
	}
	if interval <= 0 {
		return fmt.Errorf("matchday interval must be positive: %s", interval)
	}

	return nil
}

// GetBusyTimeout returns the database busy timeout as a duration.
func (c *Config) GetBusyTimeout() (time.Duration, error) {
	return time.ParseDuration(c.Database.BusyTimeout)
}

// GetRequestTimeout returns the HTTP request timeout as a duration.
func (c *Config) GetRequestTimeout() (time.Duration, error) {
	return time.ParseDuration(c.Server.RequestTimeout)
}

// GetStateTTL returns the Redis live state TTL as a duration.
func (c *Config) GetStateTTL() (time.Duration, error) {
	return time.ParseDuration(c.Redis.StateTTL)
}

// GetSeasonStart returns the kickoff time of matchday 1 (18:00 UTC).
func (c *Config) GetSeasonStart() (time.Time, error) {
	day, err := time.Parse(time.DateOnly, c.Season.StartDate)
	if err != nil {
		return time.Time{}, err
	}
	return day.Add(18 * time.Hour), nil
}

// GetMatchdayInterval returns the gap between matchdays as a duration.
func (c *Config) GetMatchdayInterval() (time.Duration, error) {
	return time.ParseDuration(c.Season.MatchdayInterval)
}
