package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
backend:
  base_url: http://backend.test/api
regions:
  - code: IN
    name: India
    currency: INR
  - code: US
    name: United States
    currency: USD
catalog:
  low_stock_threshold: 5
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFileAppliesDefaults(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "http://backend.test/api", cfg.Backend.BaseURL)
	assert.Len(t, cfg.Regions, 2)
	assert.Equal(t, 5, cfg.Catalog.LowStockThreshold)
	assert.Equal(t, 10, cfg.Catalog.TreeMaxDepth)
	assert.Equal(t, 60*time.Second, cfg.Catalog.RefreshInterval)
	assert.Equal(t, "catalog.events", cfg.Redis.Channel)
	assert.False(t, cfg.Database.Enabled())
}

func TestEnvOverridesWin(t *testing.T) {
	t.Setenv("EPI_BACKEND_BASE_URL", "http://override.test")
	t.Setenv("EPI_JWT_SECRET", "s3cret")

	cfg, err := LoadFile(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "http://override.test", cfg.Backend.BaseURL)
	assert.Equal(t, "s3cret", cfg.JWT.Secret)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:    "missing regions",
			mutate:  func(c *Config) { c.Regions = nil },
			wantErr: "at least one region",
		},
		{
			name: "duplicate region",
			mutate: func(c *Config) {
				c.Regions = append(c.Regions, RegionConfig{Code: "IN"})
			},
			wantErr: "duplicate region code",
		},
		{
			name:    "negative threshold",
			mutate:  func(c *Config) { c.Catalog.LowStockThreshold = -1 },
			wantErr: "low_stock_threshold",
		},
		{
			name:    "no backend",
			mutate:  func(c *Config) { c.Backend.BaseURL = " " },
			wantErr: "backend.base_url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Backend: BackendConfig{BaseURL: "http://x"},
				Regions: []RegionConfig{{Code: "IN"}},
			}
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
