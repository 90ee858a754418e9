package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		yamlContent string
		check       func(t *testing.T, cfg *Config)
		wantErr     string
	}{
		{
			name: "valid_full_config",
			yamlContent: `server:
  address: ":9000"
providers:
  calendar:
    baseUrl: https://calendar.example.com/api
    timeout: 20s
  catalog:
    baseUrl: https://catalog.example.com/v1
    requestsPerSecond: 2.5
sync:
  autoApplyThreshold: 90
  minConfidence: 60
  jobRetention: 30m`,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, ":9000", cfg.GetAddress())
				assert.Equal(t, 90, cfg.GetAutoApplyThreshold())
				assert.Equal(t, 60, cfg.GetMinConfidence())
				assert.Equal(t, 30*time.Minute, cfg.GetJobRetention())
				assert.Equal(t, 20*time.Second, cfg.Providers.Calendar.GetTimeout())
				assert.InDelta(t, 2.5, cfg.Providers.Catalog.GetRequestsPerSecond(), 0.001)
			},
		},
		{
			name: "defaults_applied",
			yamlContent: `providers:
  calendar:
    baseUrl: http://localhost:9090
  catalog:
    baseUrl: http://localhost:9091`,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, ":8080", cfg.GetAddress())
				assert.Equal(t, 85, cfg.GetAutoApplyThreshold())
				assert.Equal(t, 50, cfg.GetMinConfidence())
				assert.Equal(t, 10*time.Minute, cfg.GetJobRetention())
				assert.Equal(t, 15*time.Second, cfg.Providers.Calendar.GetTimeout())
				assert.InDelta(t, 5.0, cfg.Providers.Catalog.GetRequestsPerSecond(), 0.001)
			},
		},
		{
			name: "missing_calendar_base_url",
			yamlContent: `providers:
  catalog:
    baseUrl: http://localhost:9091`,
			wantErr: "providers.calendar: baseUrl is required",
		},
		{
			name: "invalid_base_url",
			yamlContent: `providers:
  calendar:
    baseUrl: "not a url"
  catalog:
    baseUrl: http://localhost:9091`,
			wantErr: "baseUrl must be a valid absolute URL",
		},
		{
			name: "floor_above_threshold",
			yamlContent: `providers:
  calendar:
    baseUrl: http://localhost:9090
  catalog:
    baseUrl: http://localhost:9091
sync:
  autoApplyThreshold: 60
  minConfidence: 70`,
			wantErr: "must be below",
		},
		{
			name: "bad_retention_duration",
			yamlContent: `providers:
  calendar:
    baseUrl: http://localhost:9090
  catalog:
    baseUrl: http://localhost:9091
sync:
  jobRetention: soon`,
			wantErr: "jobRetention must be a valid duration",
		},
		{
			name:        "invalid_yaml",
			yamlContent: "providers: [",
			wantErr:     "failed to parse YAML config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := writeConfigFile(t, tt.yamlContent)
			cfg, err := LoadConfig(WithConfigPath(path))

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)
			tt.check(t, cfg)
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadConfig(WithConfigPath(filepath.Join(t.TempDir(), "missing.yaml")))
	require.Error(t, err)
}

func TestLoadConfigRequiresPath(t *testing.T) {
	t.Parallel()

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path is required")
}

func TestDatabaseGetPassword(t *testing.T) {
	t.Parallel()

	t.Run("from_file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "password")
		require.NoError(t, os.WriteFile(path, []byte("s3cret\n"), 0o600))

		d := &DatabaseConfig{PasswordFile: path}
		pw, err := d.GetPassword()
		require.NoError(t, err)
		assert.Equal(t, "s3cret", pw)
	})

	t.Run("file_missing", func(t *testing.T) {
		t.Parallel()

		d := &DatabaseConfig{PasswordFile: filepath.Join(t.TempDir(), "nope")}
		_, err := d.GetPassword()
		require.Error(t, err)
	})
}

func TestGetConnectionString(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "password")
	require.NoError(t, os.WriteFile(path, []byte("p@ss/word"), 0o600))

	d := &DatabaseConfig{
		Host:         "db.internal",
		Port:         5432,
		User:         "bandroom",
		Database:     "bandroom_sync",
		SSLMode:      "disable",
		PasswordFile: path,
	}

	connString, err := d.GetConnectionString()
	require.NoError(t, err)
	assert.Contains(t, connString, "db.internal:5432")
	assert.Contains(t, connString, "bandroom_sync")
	// Special characters in the password must be URL-escaped
	assert.NotContains(t, connString, "p@ss/word")
}
