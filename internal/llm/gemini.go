package llm

import (
	"context"
	"fmt"

	"github.com/raine/listing-content/internal/imagestore"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-3-flash-preview"

// GeminiProvider uses Google's Gemini API. Images are sent as inline blobs.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider creates a Gemini-backed provider. baseURL overrides the
// API endpoint and is empty in production.
func NewGeminiProvider(ctx context.Context, apiKey, model, baseURL string) (*GeminiProvider, error) {
	if model == "" {
		model = DefaultGeminiModel
	}
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", ErrProviderUnavailable, err)
	}
	return &GeminiProvider{client: client, model: model}, nil
}

func (g *GeminiProvider) Name() string { return ProviderGemini }

func (g *GeminiProvider) SupportsVision() bool { return true }

// Generate sends the instruction text part followed by one inline part per image.
func (g *GeminiProvider) Generate(ctx context.Context, instruction string, images []imagestore.Image) (*Response, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(instruction),
	}
	for _, img := range images {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{Data: img.Data, MIMEType: img.MIMEType},
		})
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return nil, &ProviderError{Provider: ProviderGemini, Err: fmt.Errorf("failed to generate content: %w", err)}
	}

	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return nil, &ProviderError{Provider: ProviderGemini, Err: fmt.Errorf("no response from Gemini")}
	}

	var usage Usage
	if result.UsageMetadata != nil {
		usage = newUsage(g.model,
			int64(result.UsageMetadata.PromptTokenCount),
			int64(result.UsageMetadata.CandidatesTokenCount),
			int64(result.UsageMetadata.TotalTokenCount),
		)
	}

	logUsage(ProviderGemini, g.model, len(images), usage)

	return &Response{
		Text:       result.Text(),
		ProviderID: ProviderGemini,
		Model:      g.model,
		Usage:      usage,
	}, nil
}

func logUsage(provider, model string, imageCount int, usage Usage) {
	log.Info().
		Str("provider", provider).
		Str("model", model).
		Int("imageCount", imageCount).
		Int64("inputTokens", usage.InputTokens).
		Int64("outputTokens", usage.OutputTokens).
		Float64("costUSD", usage.CostUSD).
		Msg("listing llm call")
}
