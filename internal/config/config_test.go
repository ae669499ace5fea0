package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, DataSourceFS, cfg.DataSource)
	assert.Equal(t, "public", cfg.DataRoot)
	assert.True(t, cfg.ManifestValidate)
	assert.False(t, cfg.ManifestPreload)
	assert.Equal(t, 8, cfg.AggregateConcurrency)
	assert.Equal(t, 600, cfg.CacheMaxAgeSeconds)
	assert.Equal(t, 15*time.Second, cfg.DataHTTPTimeout())
	assert.Equal(t, 10*time.Minute, cfg.AggregateCacheTTL())
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DATA_SOURCE", "HTTP")
	t.Setenv("DATA_BASE_URL", "https://data.example.org/")
	t.Setenv("AGGREGATE_CONCURRENCY", "3")
	t.Setenv("MANIFEST_VALIDATE", "false")
	t.Setenv("CACHE_MAX_AGE_SECONDS", "not-a-number")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, DataSourceHTTP, cfg.DataSource)
	assert.Equal(t, "https://data.example.org", cfg.DataBaseURL)
	assert.Equal(t, 3, cfg.AggregateConcurrency)
	assert.False(t, cfg.ManifestValidate)
	assert.Equal(t, 600, cfg.CacheMaxAgeSeconds, "unparsable values fall back to the default")
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"http without url", map[string]string{"DATA_SOURCE": "http"}, "DataBaseURL"},
		{"unknown source", map[string]string{"DATA_SOURCE": "s3"}, "DataSource"},
		{"bad log level", map[string]string{"LOG_LEVEL": "loud"}, "LogLevel"},
		{"zero concurrency", map[string]string{"AGGREGATE_CONCURRENCY": "0"}, "AggregateConcurrency"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
