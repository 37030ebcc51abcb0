package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/raine/listing-content/internal/imagestore"
	"github.com/raine/listing-content/internal/listing"
	"github.com/raine/listing-content/internal/llm"
	"github.com/rs/zerolog"
)

const (
	AppName     = "listing-content"
	EnvFileName = "config.env"
)

// Config is the process configuration, read once at startup.
type Config struct {
	Provider llm.ProviderConfig

	RichSchema               bool
	DescriptionFallbackLimit int
	TitleMaxLength           int

	ImageFetchTimeout time.Duration
	ImageMaxBytes     int64

	// DBPath enables the review queue when set.
	DBPath   string
	LogLevel zerolog.Level
}

// LoadEnvFile loads environment variables from the config file in the user's
// config directory. Errors are ignored since the file may not exist.
// Variables already set in the environment take precedence.
func LoadEnvFile() {
	configBase, err := os.UserConfigDir()
	if err != nil {
		return
	}
	configPath := filepath.Join(configBase, AppName, EnvFileName)
	_ = godotenv.Load(configPath)
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom reads the configuration using getenv.
func LoadFrom(getenv func(string) string) (Config, error) {
	cfg := Config{
		Provider: llm.ProviderConfig{
			Provider:       envOr(getenv, "LISTING_PROVIDER", llm.ProviderGemini),
			GeminiAPIKey:   getenv("GEMINI_API_KEY"),
			GeminiModel:    getenv("GEMINI_MODEL"),
			GeminiBaseURL:  getenv("GEMINI_BASE_URL"),
			OpenAIAPIKey:   getenv("OPENAI_API_KEY"),
			OpenAIModel:    getenv("OPENAI_MODEL"),
			OpenAIBaseURL:  getenv("OPENAI_BASE_URL"),
			CompatEndpoint: getenv("OPENAI_COMPAT_ENDPOINT"),
			CompatModel:    getenv("OPENAI_COMPAT_MODEL"),
			CompatAPIKey:   getenv("OPENAI_COMPAT_API_KEY"),
		},
		DBPath: getenv("LISTING_DB_PATH"),
	}

	var err error
	if cfg.RichSchema, err = parseBool(getenv, "LISTING_RICH_SCHEMA", true); err != nil {
		return Config{}, err
	}
	if cfg.DescriptionFallbackLimit, err = parsePositiveInt(getenv, "LISTING_DESCRIPTION_FALLBACK_LIMIT", listing.DefaultDescriptionFallbackLimit); err != nil {
		return Config{}, err
	}
	if cfg.TitleMaxLength, err = parsePositiveInt(getenv, "LISTING_TITLE_MAX_LENGTH", listing.DefaultTitleMaxLength); err != nil {
		return Config{}, err
	}
	if cfg.ImageFetchTimeout, err = parseDuration(getenv, "IMAGE_FETCH_TIMEOUT", imagestore.DefaultDownloadTimeout); err != nil {
		return Config{}, err
	}
	maxBytes, err := parsePositiveInt(getenv, "IMAGE_MAX_BYTES", imagestore.DefaultMaxImageSize)
	if err != nil {
		return Config{}, err
	}
	cfg.ImageMaxBytes = int64(maxBytes)

	cfg.LogLevel = zerolog.InfoLevel
	if v := strings.TrimSpace(getenv("LOG_LEVEL")); v != "" {
		if cfg.LogLevel, err = zerolog.ParseLevel(strings.ToLower(v)); err != nil {
			return Config{}, fmt.Errorf("invalid LOG_LEVEL %q: %w", v, err)
		}
	}

	return cfg, nil
}

func envOr(getenv func(string) string, key, fallback string) string {
	if v := strings.TrimSpace(getenv(key)); v != "" {
		return v
	}
	return fallback
}

func parseBool(getenv func(string) string, key string, fallback bool) (bool, error) {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: must be true or false", key, v)
	}
	return b, nil
}

func parsePositiveInt(getenv func(string) string, key string, fallback int) (int, error) {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive integer", key, v)
	}
	return n, nil
}

func parseDuration(getenv func(string) string, key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive duration like 30s", key, v)
	}
	return d, nil
}
