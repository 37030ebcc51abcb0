package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/raine/listing-content/internal/imagestore"
)

const defaultCompatTimeout = 60 * time.Second

// OpenAICompatProvider talks to a self-hosted OpenAI-compatible chat
// completions endpoint (vLLM, text-generation-inference, LM Studio, etc).
// It is text-only.
type OpenAICompatProvider struct {
	client *resty.Client
	model  string
	apiKey string
}

// OpenAICompatOption configures the OpenAICompatProvider.
type OpenAICompatOption func(*OpenAICompatProvider)

// WithOpenAICompatAPIKey sets the bearer token sent with every request.
func WithOpenAICompatAPIKey(key string) OpenAICompatOption {
	return func(p *OpenAICompatProvider) {
		p.apiKey = key
	}
}

// WithOpenAICompatTimeout overrides the request timeout.
func WithOpenAICompatTimeout(timeout time.Duration) OpenAICompatOption {
	return func(p *OpenAICompatProvider) {
		p.client.SetTimeout(timeout)
	}
}

// NewOpenAICompatProvider creates a provider for the given base endpoint,
// e.g. http://localhost:8000.
func NewOpenAICompatProvider(endpoint, model string, opts ...OpenAICompatOption) *OpenAICompatProvider {
	p := &OpenAICompatProvider{
		client: resty.New().
			SetDebug(false).
			SetBaseURL(endpoint).
			SetTimeout(defaultCompatTimeout).
			SetHeader("Content-Type", "application/json"),
		model: model,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *OpenAICompatProvider) Name() string { return ProviderOpenAICompat }

func (p *OpenAICompatProvider) SupportsVision() bool { return false }

type compatChatRequest struct {
	Model    string          `json:"model"`
	Messages []compatMessage `json:"messages"`
}

type compatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type compatChatResponse struct {
	Choices []struct {
		Message compatMessage `json:"message"`
	} `json:"choices"`
	Model string `json:"model"`
	Usage struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
		TotalTokens      int64 `json:"total_tokens"`
	} `json:"usage"`
}

// Generate posts the instruction to /v1/chat/completions. Images are never
// sent; callers check SupportsVision first.
func (p *OpenAICompatProvider) Generate(ctx context.Context, instruction string, images []imagestore.Image) (*Response, error) {
	if len(images) > 0 {
		return nil, &ProviderError{Provider: ProviderOpenAICompat, Err: fmt.Errorf("images are not supported")}
	}

	req := p.client.R().
		SetContext(ctx).
		SetBody(compatChatRequest{
			Model:    p.model,
			Messages: []compatMessage{{Role: "user", Content: instruction}},
		})
	if p.apiKey != "" {
		req.SetAuthToken(p.apiKey)
	}

	res, err := req.Post("/v1/chat/completions")
	if err != nil {
		return nil, &ProviderError{Provider: ProviderOpenAICompat, Err: fmt.Errorf("failed to call chat completions: %w", err)}
	}
	if !res.IsSuccess() {
		return nil, &ProviderError{
			Provider: ProviderOpenAICompat,
			Err:      fmt.Errorf("request failed (status: %d): %s", res.StatusCode(), res.String()),
		}
	}

	var chatResp compatChatResponse
	if err := json.Unmarshal(res.Body(), &chatResp); err != nil {
		return nil, &ProviderError{Provider: ProviderOpenAICompat, Err: fmt.Errorf("failed to parse response: %w", err)}
	}
	if len(chatResp.Choices) == 0 {
		return nil, &ProviderError{Provider: ProviderOpenAICompat, Err: fmt.Errorf("empty choices")}
	}

	model := chatResp.Model
	if model == "" {
		model = p.model
	}
	usage := newUsage(model, chatResp.Usage.PromptTokens, chatResp.Usage.CompletionTokens, chatResp.Usage.TotalTokens)
	logUsage(ProviderOpenAICompat, model, 0, usage)

	return &Response{
		Text:       chatResp.Choices[0].Message.Content,
		ProviderID: ProviderOpenAICompat,
		Model:      model,
		Usage:      usage,
	}, nil
}
