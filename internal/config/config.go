package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultRestSeconds   = 90
	DefaultProbeInterval = 15 * time.Second
	DefaultListen        = "127.0.0.1:8765"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Client    ClientConfig    `yaml:"client"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// ClientConfig configures the local tracking daemon.
type ClientConfig struct {
	StoreDir      string        `yaml:"store_dir"`
	ServerURL     string        `yaml:"server_url"`
	APIKey        string        `yaml:"api_key"`
	Listen        string        `yaml:"listen"`
	RestSeconds   int           `yaml:"rest_seconds"`
	ProbeInterval time.Duration `yaml:"probe_interval"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// RestDuration returns the configured default rest period.
func (c ClientConfig) RestDuration() time.Duration {
	return time.Duration(c.RestSeconds) * time.Second
}

// SlogLevel maps the configured level name to a slog.Level. Unknown names map to info.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Load reads the sync server config from a YAML file, then applies environment variable overrides.
// Env vars use the prefix LIFTLOG_ and underscore-separated paths:
//
//	LIFTLOG_SERVER_HOST, LIFTLOG_SERVER_PORT,
//	LIFTLOG_DB_HOST, LIFTLOG_DB_PORT, LIFTLOG_DB_NAME,
//	LIFTLOG_DB_USER, LIFTLOG_DB_PASSWORD, LIFTLOG_DB_SSLMODE,
//	LIFTLOG_AUTH_API_KEY, LIFTLOG_LOG_LEVEL
func Load(path string) (*Config, error) {
	cfg, err := read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// LoadClient reads the config for the local tracking daemon. Only the client
// section is validated; missing client values get defaults.
//
//	LIFTLOG_CLIENT_STORE_DIR, LIFTLOG_CLIENT_SERVER_URL, LIFTLOG_CLIENT_API_KEY,
//	LIFTLOG_CLIENT_LISTEN, LIFTLOG_CLIENT_REST_SECONDS
func LoadClient(path string) (*Config, error) {
	cfg, err := read(path)
	if err != nil {
		return nil, err
	}
	cfg.applyClientDefaults()
	if err := cfg.validateClient(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func read(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	setString("LIFTLOG_SERVER_HOST", &cfg.Server.Host)
	setInt("LIFTLOG_SERVER_PORT", &cfg.Server.Port)
	setString("LIFTLOG_DB_HOST", &cfg.Database.Host)
	setInt("LIFTLOG_DB_PORT", &cfg.Database.Port)
	setString("LIFTLOG_DB_NAME", &cfg.Database.Name)
	setString("LIFTLOG_DB_USER", &cfg.Database.User)
	setString("LIFTLOG_DB_PASSWORD", &cfg.Database.Password)
	setString("LIFTLOG_DB_SSLMODE", &cfg.Database.SSLMode)
	setString("LIFTLOG_AUTH_API_KEY", &cfg.Auth.APIKey)
	setString("LIFTLOG_LOG_LEVEL", &cfg.Log.Level)

	setString("LIFTLOG_CLIENT_STORE_DIR", &cfg.Client.StoreDir)
	setString("LIFTLOG_CLIENT_SERVER_URL", &cfg.Client.ServerURL)
	setString("LIFTLOG_CLIENT_API_KEY", &cfg.Client.APIKey)
	setString("LIFTLOG_CLIENT_LISTEN", &cfg.Client.Listen)
	setInt("LIFTLOG_CLIENT_REST_SECONDS", &cfg.Client.RestSeconds)
}

func (c *Config) applyClientDefaults() {
	if c.Client.RestSeconds == 0 {
		c.Client.RestSeconds = DefaultRestSeconds
	}
	if c.Client.ProbeInterval == 0 {
		c.Client.ProbeInterval = DefaultProbeInterval
	}
	if c.Client.Listen == "" {
		c.Client.Listen = DefaultListen
	}
	c.Client.ServerURL = strings.TrimRight(c.Client.ServerURL, "/")
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Port == 0 {
		return fmt.Errorf("database.port is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}
	return nil
}

func (c *Config) validateClient() error {
	if c.Client.StoreDir == "" {
		return fmt.Errorf("client.store_dir is required")
	}
	if c.Client.RestSeconds < 0 {
		return fmt.Errorf("client.rest_seconds must be positive")
	}
	if c.Client.ProbeInterval < time.Second {
		return fmt.Errorf("client.probe_interval must be at least 1s")
	}
	if c.Client.ServerURL != "" && !strings.HasPrefix(c.Client.ServerURL, "http://") &&
		!strings.HasPrefix(c.Client.ServerURL, "https://") {
		return fmt.Errorf("client.server_url must be an http(s) URL")
	}
	return nil
}
