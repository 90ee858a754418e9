// Package config provides configuration loading and management for the sync server.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment variables read by the server.
const EnvPrefix = "BANDROOM_SYNC"

const (
	defaultAutoApplyThreshold = 85
	defaultMinConfidence      = 50
	defaultJobRetention       = 10 * time.Minute
	defaultProviderTimeout    = 15 * time.Second
	defaultCatalogRate        = 5.0
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		// Validate the path to prevent path traversal attacks
		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	// Server holds HTTP server settings
	Server ServerConfig `yaml:"server"`

	// Database holds Postgres connection settings
	Database *DatabaseConfig `yaml:"database,omitempty"`

	// Providers holds external collaborator settings
	Providers ProvidersConfig `yaml:"providers"`

	// Sync holds engine defaults (thresholds, retention)
	Sync SyncConfig `yaml:"sync"`
}

// ServerConfig defines HTTP server settings
type ServerConfig struct {
	// Address is the listen address, e.g. ":8080"
	Address string `yaml:"address,omitempty"`
}

// ProvidersConfig defines the external collaborators the engine talks to
type ProvidersConfig struct {
	// Calendar is the external calendar provider used for historical event import
	Calendar ProviderConfig `yaml:"calendar"`

	// Catalog is the external music-catalog API used for metadata matching
	Catalog CatalogProviderConfig `yaml:"catalog"`
}

// ProviderConfig defines a single HTTP provider endpoint
type ProviderConfig struct {
	// BaseURL is the provider's base API URL
	BaseURL string `yaml:"baseUrl"`

	// Timeout is the per-call timeout (e.g. "15s"). Defaults to 15s.
	Timeout string `yaml:"timeout,omitempty"`
}

// CatalogProviderConfig defines the catalog provider endpoint plus rate limiting
type CatalogProviderConfig struct {
	ProviderConfig `yaml:",inline"`

	// RequestsPerSecond caps outbound catalog lookups. Defaults to 5.
	RequestsPerSecond float64 `yaml:"requestsPerSecond,omitempty"`
}

// SyncConfig defines engine-level defaults
type SyncConfig struct {
	// AutoApplyThreshold is the confidence score at or above which a match is
	// applied without review. Defaults to 85.
	AutoApplyThreshold int `yaml:"autoApplyThreshold,omitempty"`

	// MinConfidence is the floor of the review band. Candidates scoring below
	// it are counted as skipped. Defaults to 50.
	MinConfidence int `yaml:"minConfidence,omitempty"`

	// JobRetention is how long terminal jobs stay queryable before eviction
	// (e.g. "10m"). Defaults to 10m.
	JobRetention string `yaml:"jobRetention,omitempty"`
}

// DatabaseConfig defines database connection settings
type DatabaseConfig struct {
	// Host is the database server hostname or IP address
	Host string `yaml:"host"`

	// Port is the database server port
	Port int `yaml:"port"`

	// User is the database username
	User string `yaml:"user"`

	// PasswordFile is the path to a file containing the database password
	// This is the recommended approach for production deployments
	// The file should contain only the password with optional trailing whitespace
	PasswordFile string `yaml:"passwordFile,omitempty"`

	// Database is the database name
	Database string `yaml:"database"`

	// SSLMode is the SSL mode for the connection (disable, require, verify-ca, verify-full)
	SSLMode string `yaml:"sslMode,omitempty"`

	// MaxConns is the maximum number of connections in the pool
	MaxConns int32 `yaml:"maxConns,omitempty"`

	// MinConns is the minimum number of idle connections kept in the pool
	MinConns int32 `yaml:"minConns,omitempty"`

	// ConnMaxLifetime is the maximum lifetime of a connection (e.g., "1h", "30m")
	ConnMaxLifetime string `yaml:"connMaxLifetime,omitempty"`
}

// GetPassword returns the database password using the following priority:
// 1. Read from PasswordFile if specified
// 2. Read from BANDROOM_SYNC_DATABASE_PASSWORD environment variable
//
// The password from file will have leading/trailing whitespace trimmed.
func (d *DatabaseConfig) GetPassword() (string, error) {
	// Priority 1: Read from file if specified
	if d.PasswordFile != "" {
		// Use filepath.Clean to prevent path traversal attacks
		cleanPath := filepath.Clean(d.PasswordFile)

		data, err := os.ReadFile(cleanPath)
		if err != nil {
			return "", fmt.Errorf("failed to read password from file %s: %w", d.PasswordFile, err)
		}

		// Trim whitespace (including newlines) from file content
		password := strings.TrimSpace(string(data))
		return password, nil
	}

	// Priority 2: Check environment variable
	if envPassword := os.Getenv(EnvPrefix + "_DATABASE_PASSWORD"); envPassword != "" {
		return envPassword, nil
	}

	return "", fmt.Errorf(
		"no database password configured: set passwordFile or %s_DATABASE_PASSWORD environment variable",
		EnvPrefix,
	)
}

// GetConnectionString builds a PostgreSQL connection string with proper password handling.
// The password is URL-escaped to handle special characters safely.
func (d *DatabaseConfig) GetConnectionString() (string, error) {
	password, err := d.GetPassword()
	if err != nil {
		return "", err
	}

	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}

	// URL-escape the password to handle special characters
	escapedPassword := url.QueryEscape(password)

	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User,
		escapedPassword,
		d.Host,
		d.Port,
		d.Database,
		sslMode,
	)

	return connString, nil
}

// LoadConfig loads and parses configuration from a YAML file
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	// Read the entire file into memory
	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML content
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	// Validate the config
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// GetAddress returns the listen address, using ":8080" if not specified
func (c *Config) GetAddress() string {
	if c.Server.Address == "" {
		return ":8080"
	}
	return c.Server.Address
}

// GetAutoApplyThreshold returns the configured auto-apply threshold or the default
func (c *Config) GetAutoApplyThreshold() int {
	if c.Sync.AutoApplyThreshold == 0 {
		return defaultAutoApplyThreshold
	}
	return c.Sync.AutoApplyThreshold
}

// GetMinConfidence returns the configured review-band floor or the default
func (c *Config) GetMinConfidence() int {
	if c.Sync.MinConfidence == 0 {
		return defaultMinConfidence
	}
	return c.Sync.MinConfidence
}

// GetJobRetention returns the configured terminal-job retention window or the default
func (c *Config) GetJobRetention() time.Duration {
	if c.Sync.JobRetention == "" {
		return defaultJobRetention
	}
	d, err := time.ParseDuration(c.Sync.JobRetention)
	if err != nil {
		return defaultJobRetention
	}
	return d
}

// GetTimeout returns the provider's per-call timeout or the default
func (p *ProviderConfig) GetTimeout() time.Duration {
	if p.Timeout == "" {
		return defaultProviderTimeout
	}
	d, err := time.ParseDuration(p.Timeout)
	if err != nil {
		return defaultProviderTimeout
	}
	return d
}

// GetRequestsPerSecond returns the catalog rate limit or the default
func (c *CatalogProviderConfig) GetRequestsPerSecond() float64 {
	if c.RequestsPerSecond <= 0 {
		return defaultCatalogRate
	}
	return c.RequestsPerSecond
}

// Validate performs validation on the configuration
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if err := validateProvider("providers.calendar", &c.Providers.Calendar); err != nil {
		return err
	}
	if err := validateProvider("providers.catalog", &c.Providers.Catalog.ProviderConfig); err != nil {
		return err
	}

	if err := c.validateThresholds(); err != nil {
		return err
	}

	if c.Sync.JobRetention != "" {
		if _, err := time.ParseDuration(c.Sync.JobRetention); err != nil {
			return fmt.Errorf("sync.jobRetention must be a valid duration (e.g. '10m'): %w", err)
		}
	}

	return nil
}

// validateThresholds ensures the review band is well formed
func (c *Config) validateThresholds() error {
	threshold := c.GetAutoApplyThreshold()
	floor := c.GetMinConfidence()

	if threshold < 0 || threshold > 100 {
		return fmt.Errorf("sync.autoApplyThreshold must be between 0 and 100, got %d", threshold)
	}
	if floor < 0 || floor > 100 {
		return fmt.Errorf("sync.minConfidence must be between 0 and 100, got %d", floor)
	}
	if floor >= threshold {
		return fmt.Errorf("sync.minConfidence (%d) must be below sync.autoApplyThreshold (%d)", floor, threshold)
	}

	return nil
}

// validateProvider validates a single provider configuration
func validateProvider(prefix string, p *ProviderConfig) error {
	if p.BaseURL == "" {
		return fmt.Errorf("%s: baseUrl is required", prefix)
	}
	parsed, err := url.Parse(p.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("%s: baseUrl must be a valid absolute URL", prefix)
	}
	if p.Timeout != "" {
		if _, err := time.ParseDuration(p.Timeout); err != nil {
			return fmt.Errorf("%s: timeout must be a valid duration (e.g. '15s'): %w", prefix, err)
		}
	}
	return nil
}
