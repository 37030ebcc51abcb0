// Package llm adapts external inference backends to a single Provider
// interface used by the listing generator.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/raine/listing-content/internal/imagestore"
)

// Provider names accepted by NewProvider.
const (
	ProviderGemini       = "gemini"
	ProviderOpenAI       = "openai"
	ProviderOpenAICompat = "openai_compat"
)

// ErrProviderUnavailable is returned when the selected backend cannot be
// constructed, e.g. its credential is missing.
var ErrProviderUnavailable = errors.New("provider unavailable")

// ProviderError wraps a failure reported by a backend: transport errors,
// non-2xx statuses, and responses without any candidate text.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider error: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Usage contains token usage and cost information.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
	CostUSD      float64
}

// Response is the raw text returned by a backend for one generation call.
type Response struct {
	Text       string
	ProviderID string
	Model      string
	Usage      Usage
}

// Provider turns an instruction plus zero or more images into free text.
type Provider interface {
	// Name returns the provider identifier recorded on generated listings.
	Name() string
	// SupportsVision reports whether images can be attached to a request.
	SupportsVision() bool
	// Generate performs exactly one backend call. With no images the
	// instruction is sent as a text-only request.
	Generate(ctx context.Context, instruction string, images []imagestore.Image) (*Response, error)
}

// ProviderConfig selects and configures a backend.
type ProviderConfig struct {
	// Provider is one of ProviderGemini, ProviderOpenAI, ProviderOpenAICompat.
	Provider string

	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string

	CompatEndpoint string
	CompatModel    string
	CompatAPIKey   string
}

// NewProvider builds the configured backend. It fails with
// ErrProviderUnavailable before any network call when the provider name is
// unknown or its required settings are missing.
func NewProvider(ctx context.Context, cfg ProviderConfig) (Provider, error) {
	switch name := strings.ToLower(strings.TrimSpace(cfg.Provider)); name {
	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("%w: GEMINI_API_KEY is not set", ErrProviderUnavailable)
		}
		p, err := NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiBaseURL)
		if err != nil {
			return nil, err
		}
		return p, nil
	case ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("%w: OPENAI_API_KEY is not set", ErrProviderUnavailable)
		}
		return NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL), nil
	case ProviderOpenAICompat:
		if cfg.CompatEndpoint == "" {
			return nil, fmt.Errorf("%w: OPENAI_COMPAT_ENDPOINT is not set", ErrProviderUnavailable)
		}
		var opts []OpenAICompatOption
		if cfg.CompatAPIKey != "" {
			opts = append(opts, WithOpenAICompatAPIKey(cfg.CompatAPIKey))
		}
		return NewOpenAICompatProvider(cfg.CompatEndpoint, cfg.CompatModel, opts...), nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrProviderUnavailable, name)
	}
}
