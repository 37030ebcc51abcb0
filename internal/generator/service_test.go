package generator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/raine/listing-content/internal/imagestore"
	"github.com/raine/listing-content/internal/listing"
	"github.com/raine/listing-content/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	name   string
	vision bool
	text   string
	err    error

	mu          sync.Mutex
	calls       int
	instruction string
	images      []imagestore.Image
}

func (p *fakeProvider) Name() string         { return p.name }
func (p *fakeProvider) SupportsVision() bool { return p.vision }

func (p *fakeProvider) Generate(ctx context.Context, instruction string, images []imagestore.Image) (*llm.Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.instruction = instruction
	p.images = images
	if p.err != nil {
		return nil, p.err
	}
	return &llm.Response{Text: p.text, ProviderID: p.name, Model: "test-model"}, nil
}

type fakeFetcher struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]bool
}

func (f *fakeFetcher) Fetch(ctx context.Context, imageURL string) (imagestore.Image, error) {
	f.mu.Lock()
	f.calls = append(f.calls, imageURL)
	f.mu.Unlock()
	if f.fail[imageURL] {
		return imagestore.Image{}, fmt.Errorf("download failed: status 404")
	}
	return imagestore.Image{URL: imageURL, Data: []byte(imageURL), MIMEType: "image/jpeg"}, nil
}

type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) RecordGeneration(ctx context.Context, req listing.GenerationRequest, content *listing.ListingContent) error {
	args := m.Called(ctx, req, content)
	return args.Error(0)
}

const listingJSON = `{"title": "Sony WH-1000XM4 Black", "description": "Noise cancelling headphones.", "condition": "Like New", "confidence": 0.9,
	"specifications": {"brand": "Sony", "model": "WH-1000XM4"}, "searchKeywords": ["sony", "headphones"]}`

func TestService_Generate_WithImages(t *testing.T) {
	provider := &fakeProvider{name: "gemini", vision: true, text: "```json\n" + listingJSON + "\n```"}
	fetcher := &fakeFetcher{}
	recorder := &mockRecorder{}
	recorder.On("RecordGeneration", mock.Anything, mock.Anything, mock.MatchedBy(func(c *listing.ListingContent) bool {
		return c.Title == "Sony WH-1000XM4 Black" && !c.ParseFailed
	})).Return(nil).Once()
	svc := NewService(provider, fetcher, WithRecorder(recorder))

	got, err := svc.Generate(context.Background(), listing.GenerationRequest{
		Images:          []string{"https://img/1.jpg", " ", "https://img/2.jpg"},
		FreeformContext: "Comes with the case",
	})
	require.NoError(t, err)

	assert.Equal(t, "Sony WH-1000XM4 Black", got.Title)
	assert.Equal(t, listing.ConditionLikeNew, got.Condition)
	assert.Equal(t, "gemini", got.ProviderID)
	assert.False(t, got.ParseFailed)

	assert.Equal(t, 1, provider.calls)
	require.Len(t, provider.images, 2)
	assert.Equal(t, "https://img/1.jpg", provider.images[0].URL)
	assert.Equal(t, "https://img/2.jpg", provider.images[1].URL)
	assert.Contains(t, provider.instruction, "Comes with the case")
	assert.Contains(t, provider.instruction, "No model identifier was given")

	recorder.AssertExpectations(t)
}

func TestService_Generate_IdentifierOnly(t *testing.T) {
	provider := &fakeProvider{name: "openai", vision: true, text: listingJSON}
	fetcher := &fakeFetcher{}
	svc := NewService(provider, fetcher)

	got, err := svc.Generate(context.Background(), listing.GenerationRequest{ModelIdentifier: "WH-1000XM4"})
	require.NoError(t, err)

	assert.Equal(t, "Sony WH-1000XM4 Black", got.Title)
	assert.Empty(t, fetcher.calls)
	assert.Empty(t, provider.images)
	assert.Contains(t, provider.instruction, `"WH-1000XM4"`)
	assert.Contains(t, provider.instruction, "No images are available")
}

func TestService_Generate_InvalidRequest(t *testing.T) {
	tests := []struct {
		name string
		req  listing.GenerationRequest
	}{
		{name: "empty", req: listing.GenerationRequest{}},
		{name: "context only", req: listing.GenerationRequest{FreeformContext: "a chair"}},
		{name: "blank identifier and images", req: listing.GenerationRequest{Images: []string{"", "  "}, ModelIdentifier: "  "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &fakeProvider{name: "gemini", vision: true, text: listingJSON}
			fetcher := &fakeFetcher{}
			svc := NewService(provider, fetcher)

			got, err := svc.Generate(context.Background(), tt.req)

			assert.Nil(t, got)
			assert.ErrorIs(t, err, ErrInvalidRequest)
			assert.Equal(t, http.StatusBadRequest, HTTPStatus(err))
			assert.Zero(t, provider.calls)
			assert.Empty(t, fetcher.calls)
		})
	}
}

func TestService_Generate_NoProvider(t *testing.T) {
	svc := NewService(nil, &fakeFetcher{})

	got, err := svc.Generate(context.Background(), listing.GenerationRequest{ModelIdentifier: "iPhone 13"})

	assert.Nil(t, got)
	assert.ErrorIs(t, err, ErrProviderUnavailable)
	assert.ErrorIs(t, err, llm.ErrProviderUnavailable)
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(err))
}

func TestService_Generate_TextOnlyProvider(t *testing.T) {
	t.Run("images skipped with identifier", func(t *testing.T) {
		provider := &fakeProvider{name: "openai_compat", vision: false, text: listingJSON}
		fetcher := &fakeFetcher{}
		svc := NewService(provider, fetcher)

		got, err := svc.Generate(context.Background(), listing.GenerationRequest{
			Images:          []string{"https://img/1.jpg"},
			ModelIdentifier: "WH-1000XM4",
		})
		require.NoError(t, err)

		assert.Empty(t, fetcher.calls)
		assert.Empty(t, provider.images)
		assert.Contains(t, provider.instruction, "No images are available")
		require.Len(t, got.Warnings, 1)
		assert.Contains(t, got.Warnings[0], "does not support images")
	})

	t.Run("images only needs a vision provider", func(t *testing.T) {
		provider := &fakeProvider{name: "openai_compat", vision: false, text: listingJSON}
		fetcher := &fakeFetcher{}
		svc := NewService(provider, fetcher)

		_, err := svc.Generate(context.Background(), listing.GenerationRequest{Images: []string{"https://img/1.jpg"}})

		assert.ErrorIs(t, err, ErrProviderUnavailable)
		assert.NotErrorIs(t, err, ErrInvalidRequest)
		assert.Equal(t, http.StatusInternalServerError, HTTPStatus(err))
		assert.Zero(t, provider.calls)
		assert.Empty(t, fetcher.calls)
	})
}

func TestService_Generate_CompletesListing(t *testing.T) {
	provider := &fakeProvider{name: "gemini", vision: true, text: `{
		"title": "",
		"specifications": {"brand": "Sony", "model": "A7 III"},
		"structuredContent": {"keywords": {"primary": ["sony a7"], "secondary": ["mirrorless"]}}
	}`}
	svc := NewService(provider, &fakeFetcher{})

	got, err := svc.Generate(context.Background(), listing.GenerationRequest{ModelIdentifier: "A7 III"})
	require.NoError(t, err)

	assert.Equal(t, "Sony A7 III", got.Title)
	assert.Equal(t, []string{"sony a7", "mirrorless"}, got.SearchKeywords)
}

func TestService_Generate_ImageFetchFailure(t *testing.T) {
	provider := &fakeProvider{name: "gemini", vision: true, text: listingJSON}
	fetcher := &fakeFetcher{fail: map[string]bool{"https://img/2.jpg": true}}
	svc := NewService(provider, fetcher)

	got, err := svc.Generate(context.Background(), listing.GenerationRequest{
		Images: []string{"https://img/1.jpg", "https://img/2.jpg"},
	})

	assert.Nil(t, got)
	assert.ErrorIs(t, err, ErrGenerationFailed)
	assert.Zero(t, provider.calls)
}

func TestService_Generate_ProviderFailure(t *testing.T) {
	raw := &llm.ProviderError{Provider: "gemini", Err: errors.New("secret upstream detail")}
	provider := &fakeProvider{name: "gemini", vision: true, err: raw}
	recorder := &mockRecorder{}
	svc := NewService(provider, &fakeFetcher{}, WithRecorder(recorder))

	got, err := svc.Generate(context.Background(), listing.GenerationRequest{ModelIdentifier: "iPhone 13"})

	assert.Nil(t, got)
	assert.ErrorIs(t, err, ErrGenerationFailed)
	assert.NotContains(t, err.Error(), "secret upstream detail")
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(err))
	recorder.AssertNotCalled(t, "RecordGeneration", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_Generate_UnparseableResponse(t *testing.T) {
	provider := &fakeProvider{name: "gemini", vision: true, text: "Sorry, I can't help with that."}
	recorder := &mockRecorder{}
	recorder.On("RecordGeneration", mock.Anything, listing.GenerationRequest{ModelIdentifier: "iPhone 13"}, mock.MatchedBy(func(c *listing.ListingContent) bool {
		return c.ParseFailed
	})).Return(errors.New("disk full")).Once()
	svc := NewService(provider, &fakeFetcher{}, WithRecorder(recorder))

	got, err := svc.Generate(context.Background(), listing.GenerationRequest{ModelIdentifier: "iPhone 13"})
	require.NoError(t, err)

	assert.True(t, got.ParseFailed)
	assert.Equal(t, listing.DegradedTitle, got.Title)
	assert.Equal(t, "Sorry, I can't help with that.", got.Description)
	recorder.AssertExpectations(t)
}

func TestService_Generate_CustomParserAndPrompt(t *testing.T) {
	provider := &fakeProvider{name: "gemini", vision: true, text: `{"title": "A very long title that should be cut"}`}
	parser := listing.NewParser()
	parser.TitleMaxLength = 10
	svc := NewService(provider, &fakeFetcher{},
		WithParser(parser),
		WithPromptBuilder(listing.PromptBuilder{RichSchema: false, TitleMaxLength: 10}),
	)

	got, err := svc.Generate(context.Background(), listing.GenerationRequest{ModelIdentifier: "x"})
	require.NoError(t, err)

	assert.Equal(t, "A very lon", got.Title)
	assert.NotContains(t, provider.instruction, "structuredContent")
}

func TestService_Instruction(t *testing.T) {
	provider := &fakeProvider{name: "gemini", vision: true}
	svc := NewService(provider, &fakeFetcher{})
	req := listing.GenerationRequest{Images: []string{"https://img/1.jpg"}, ModelIdentifier: "WH-1000XM4"}

	got, err := svc.Instruction(req)
	require.NoError(t, err)
	assert.Equal(t, listing.NewPromptBuilder().Build("WH-1000XM4", "", true), got)
	assert.Zero(t, provider.calls)

	_, err = svc.Instruction(listing.GenerationRequest{})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestService_Instruction_TextOnlyProvider(t *testing.T) {
	svc := NewService(&fakeProvider{name: "openai_compat"}, &fakeFetcher{})

	got, err := svc.Instruction(listing.GenerationRequest{Images: []string{"https://img/1.jpg"}, ModelIdentifier: "WH-1000XM4"})
	require.NoError(t, err)
	assert.Contains(t, got, "No images are available")
}

func TestService_Instruction_TextOnlyProviderImagesOnly(t *testing.T) {
	svc := NewService(&fakeProvider{name: "openai_compat"}, &fakeFetcher{})

	_, err := svc.Instruction(listing.GenerationRequest{Images: []string{"https://img/1.jpg"}})
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestService_Instruction_NoProvider(t *testing.T) {
	svc := NewService(nil, nil)

	got, err := svc.Instruction(listing.GenerationRequest{Images: []string{"https://img/1.jpg"}})
	require.NoError(t, err)
	assert.Equal(t, listing.NewPromptBuilder().Build("", "", true), got)
}

func TestComposeTitle(t *testing.T) {
	got := ComposeTitle("Sony", "WH-1000XM4", "Electronics", map[string]string{"color": "Black"})
	assert.Equal(t, "Sony WH-1000XM4 Black", got)
}

func TestAppendKeywordFooter(t *testing.T) {
	assert.Equal(t, "desc", AppendKeywordFooter("desc", nil))
	assert.Equal(t,
		"desc\n\nPerfect for anyone searching for a or b.\n\nKeywords: a, b",
		AppendKeywordFooter("desc", []string{"a", "b"}),
	)
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusOK, HTTPStatus(nil))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(fmt.Errorf("%w: x", ErrInvalidRequest)))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(fmt.Errorf("%w: x", ErrGenerationFailed)))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(ErrProviderUnavailable))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("other")))
}
