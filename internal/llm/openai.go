package llm

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/raine/listing-content/internal/imagestore"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = "gpt-5.2"

// OpenAIProvider uses OpenAI's chat completions API. Images are sent as
// base64 data URLs.
type OpenAIProvider struct {
	client openai.Client
	model  string
}

// NewOpenAIProvider creates an OpenAI-backed provider. baseURL is optional.
// SDK retries are disabled; a failed call is reported to the caller as is.
func NewOpenAIProvider(apiKey, model, baseURL string) *OpenAIProvider {
	if model == "" {
		model = DefaultOpenAIModel
	}
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIProvider{client: openai.NewClient(opts...), model: model}
}

func (o *OpenAIProvider) Name() string { return ProviderOpenAI }

func (o *OpenAIProvider) SupportsVision() bool { return true }

// Generate sends a single user message. Without images the content is the
// plain instruction string.
func (o *OpenAIProvider) Generate(ctx context.Context, instruction string, images []imagestore.Image) (*Response, error) {
	var message openai.ChatCompletionMessageParamUnion
	if len(images) == 0 {
		message = openai.UserMessage(instruction)
	} else {
		parts := []openai.ChatCompletionContentPartUnionParam{
			openai.TextContentPart(instruction),
		}
		for _, img := range images {
			parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
				URL: dataURL(img),
			}))
		}
		message = openai.UserMessage(parts)
	}

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    o.model,
		Messages: []openai.ChatCompletionMessageParamUnion{message},
	})
	if err != nil {
		return nil, &ProviderError{Provider: ProviderOpenAI, Err: fmt.Errorf("failed to create chat completion: %w", err)}
	}

	if len(resp.Choices) == 0 {
		return nil, &ProviderError{Provider: ProviderOpenAI, Err: fmt.Errorf("no response from OpenAI")}
	}

	usage := newUsage(o.model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens, resp.Usage.TotalTokens)
	logUsage(ProviderOpenAI, o.model, len(images), usage)

	return &Response{
		Text:       resp.Choices[0].Message.Content,
		ProviderID: ProviderOpenAI,
		Model:      o.model,
		Usage:      usage,
	}, nil
}

// dataURL encodes an image as a base64 data URL.
func dataURL(img imagestore.Image) string {
	b64Data := base64.StdEncoding.EncodeToString(img.Data)
	return fmt.Sprintf("data:%s;base64,%s", img.MIMEType, b64Data)
}
