package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(key string) string { return m[key] }
}

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(envMap(nil))
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.Provider.Provider)
	assert.True(t, cfg.RichSchema)
	assert.Equal(t, 1000, cfg.DescriptionFallbackLimit)
	assert.Equal(t, 80, cfg.TitleMaxLength)
	assert.Equal(t, 30*time.Second, cfg.ImageFetchTimeout)
	assert.Equal(t, int64(10*1024*1024), cfg.ImageMaxBytes)
	assert.Equal(t, "", cfg.DBPath)
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel)
}

func TestLoadFrom_Values(t *testing.T) {
	cfg, err := LoadFrom(envMap(map[string]string{
		"LISTING_PROVIDER":                   "openai_compat",
		"GEMINI_API_KEY":                     "g-key",
		"OPENAI_API_KEY":                     "o-key",
		"OPENAI_MODEL":                       "gpt-4o-mini",
		"OPENAI_BASE_URL":                    "https://proxy.example/v1/",
		"OPENAI_COMPAT_ENDPOINT":             "http://localhost:8000",
		"OPENAI_COMPAT_MODEL":                "mistral",
		"OPENAI_COMPAT_API_KEY":              "c-key",
		"LISTING_RICH_SCHEMA":                "false",
		"LISTING_DESCRIPTION_FALLBACK_LIMIT": "500",
		"LISTING_TITLE_MAX_LENGTH":           "60",
		"IMAGE_FETCH_TIMEOUT":                "5s",
		"IMAGE_MAX_BYTES":                    "2048",
		"LISTING_DB_PATH":                    "/tmp/listings.db",
		"LOG_LEVEL":                          "DEBUG",
	}))
	require.NoError(t, err)

	assert.Equal(t, "openai_compat", cfg.Provider.Provider)
	assert.Equal(t, "g-key", cfg.Provider.GeminiAPIKey)
	assert.Equal(t, "o-key", cfg.Provider.OpenAIAPIKey)
	assert.Equal(t, "gpt-4o-mini", cfg.Provider.OpenAIModel)
	assert.Equal(t, "https://proxy.example/v1/", cfg.Provider.OpenAIBaseURL)
	assert.Equal(t, "http://localhost:8000", cfg.Provider.CompatEndpoint)
	assert.Equal(t, "mistral", cfg.Provider.CompatModel)
	assert.Equal(t, "c-key", cfg.Provider.CompatAPIKey)
	assert.False(t, cfg.RichSchema)
	assert.Equal(t, 500, cfg.DescriptionFallbackLimit)
	assert.Equal(t, 60, cfg.TitleMaxLength)
	assert.Equal(t, 5*time.Second, cfg.ImageFetchTimeout)
	assert.Equal(t, int64(2048), cfg.ImageMaxBytes)
	assert.Equal(t, "/tmp/listings.db", cfg.DBPath)
	assert.Equal(t, zerolog.DebugLevel, cfg.LogLevel)
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"LISTING_RICH_SCHEMA", "maybe"},
		{"LISTING_DESCRIPTION_FALLBACK_LIMIT", "abc"},
		{"LISTING_DESCRIPTION_FALLBACK_LIMIT", "0"},
		{"LISTING_TITLE_MAX_LENGTH", "-5"},
		{"IMAGE_FETCH_TIMEOUT", "30"},
		{"IMAGE_FETCH_TIMEOUT", "-1s"},
		{"IMAGE_MAX_BYTES", "10MB"},
		{"LOG_LEVEL", "loud"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			_, err := LoadFrom(envMap(map[string]string{tt.key: tt.value}))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	t.Setenv("LISTING_PROVIDER", "")
	os.Unsetenv("LISTING_PROVIDER")

	configBase, err := os.UserConfigDir()
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(configBase, AppName), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(configBase, AppName, EnvFileName), []byte("LISTING_PROVIDER=openai\n"), 0o600))

	LoadEnvFile()

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.Provider.Provider)
}
