// Package generator turns a generation request into a validated marketplace
// listing by orchestrating image fetching, one inference call and parsing.
package generator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/raine/listing-content/internal/imagestore"
	"github.com/raine/listing-content/internal/listing"
	"github.com/raine/listing-content/internal/llm"
	"github.com/raine/listing-content/internal/metrics"
	"github.com/rs/zerolog/log"
)

var (
	// ErrInvalidRequest means the caller sent something that can never
	// succeed, e.g. neither images nor a model identifier.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrProviderUnavailable means no usable inference provider is configured,
	// including one that cannot handle what the request needs.
	ErrProviderUnavailable = llm.ErrProviderUnavailable
	// ErrGenerationFailed covers image fetch and provider call failures.
	ErrGenerationFailed = errors.New("generation failed")
)

// Recorder receives every generated listing, e.g. to queue degraded ones
// for manual review.
type Recorder interface {
	RecordGeneration(ctx context.Context, req listing.GenerationRequest, content *listing.ListingContent) error
}

// Service generates listing content with a single configured provider.
type Service struct {
	provider llm.Provider
	fetcher  imagestore.Fetcher
	prompts  listing.PromptBuilder
	parser   *listing.Parser
	recorder Recorder
}

// Option configures a Service.
type Option func(*Service)

// WithPromptBuilder overrides the default prompt builder.
func WithPromptBuilder(b listing.PromptBuilder) Option {
	return func(s *Service) {
		s.prompts = b
	}
}

// WithParser overrides the default response parser.
func WithParser(p *listing.Parser) Option {
	return func(s *Service) {
		s.parser = p
	}
}

// WithRecorder sets a recorder that is handed every generated listing.
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		s.recorder = r
	}
}

// NewService creates a Service. provider may be nil, in which case every
// Generate call fails with ErrProviderUnavailable. A nil fetcher downloads
// images over HTTP with default limits.
func NewService(provider llm.Provider, fetcher imagestore.Fetcher, opts ...Option) *Service {
	if fetcher == nil {
		fetcher = imagestore.NewDownloader()
	}
	s := &Service{
		provider: provider,
		fetcher:  fetcher,
		prompts:  listing.NewPromptBuilder(),
		parser:   listing.NewParser(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// plan is the validated shape of a request: which images are sent and
// which warnings the resulting listing carries regardless of the response.
type plan struct {
	images   []string
	warnings []string
}

// Generate produces one listing. Failures to parse the provider's response
// are not errors: the returned listing has ParseFailed set instead.
func (s *Service) Generate(ctx context.Context, req listing.GenerationRequest) (*listing.ListingContent, error) {
	providerName := "none"
	if s.provider != nil {
		providerName = s.provider.Name()
	}

	content, err := s.generate(ctx, req)

	outcome := metrics.OutcomeSuccess
	switch {
	case errors.Is(err, ErrInvalidRequest):
		outcome = metrics.OutcomeInvalidRequest
	case errors.Is(err, ErrProviderUnavailable):
		outcome = metrics.OutcomeUnavailable
	case err != nil:
		outcome = metrics.OutcomeGenerationError
	case content.ParseFailed:
		outcome = metrics.OutcomeParseFailed
		metrics.ParseFailuresTotal.WithLabelValues(providerName).Inc()
	}
	metrics.GenerationsTotal.WithLabelValues(providerName, outcome).Inc()

	return content, err
}

func (s *Service) generate(ctx context.Context, req listing.GenerationRequest) (*listing.ListingContent, error) {
	p, err := s.plan(req)
	if err != nil {
		return nil, err
	}

	instruction := s.prompts.Build(req.ModelIdentifier, req.FreeformContext, len(p.images) > 0)

	var images []imagestore.Image
	if len(p.images) > 0 {
		images, err = imagestore.FetchAll(ctx, meteredFetcher{s.fetcher}, p.images)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to fetch images: %v", ErrGenerationFailed, err)
		}
	}

	start := time.Now()
	resp, err := s.provider.Generate(ctx, instruction, images)
	metrics.ProviderDuration.WithLabelValues(s.provider.Name()).Observe(time.Since(start).Seconds())
	if err != nil {
		log.Error().Err(err).Str("provider", s.provider.Name()).Msg("provider call failed")
		return nil, fmt.Errorf("%w: %s provider call failed", ErrGenerationFailed, s.provider.Name())
	}

	content := s.parser.Complete(s.parser.Parse(resp.Text, resp.ProviderID))
	content.Warnings = append(content.Warnings, p.warnings...)

	log.Info().
		Str("provider", content.ProviderID).
		Str("model", resp.Model).
		Int("imageCount", len(images)).
		Bool("parseFailed", content.ParseFailed).
		Float64("confidence", content.Confidence).
		Msg("listing generated")

	if s.recorder != nil {
		if err := s.recorder.RecordGeneration(ctx, req, &content); err != nil {
			log.Error().Err(err).Msg("failed to record generation")
		}
	}

	return &content, nil
}

// Instruction returns the prompt Generate would send for req, without
// fetching images or calling the provider. Without a provider the images
// are assumed to be sent.
func (s *Service) Instruction(req listing.GenerationRequest) (string, error) {
	p, err := s.plan(req)
	if err != nil && (s.provider != nil || !errors.Is(err, ErrProviderUnavailable)) {
		return "", err
	}
	return s.prompts.Build(req.ModelIdentifier, req.FreeformContext, len(p.images) > 0), nil
}

// plan validates req. When no provider is configured it returns
// ErrProviderUnavailable together with the validated plan.
func (s *Service) plan(req listing.GenerationRequest) (plan, error) {
	var p plan
	for _, ref := range req.Images {
		if ref = strings.TrimSpace(ref); ref != "" {
			p.images = append(p.images, ref)
		}
	}
	hasIdentifier := strings.TrimSpace(req.ModelIdentifier) != ""

	if len(p.images) == 0 && !hasIdentifier {
		return plan{}, fmt.Errorf("%w: at least one image or a model identifier is required", ErrInvalidRequest)
	}
	if s.provider == nil {
		return p, fmt.Errorf("%w: no provider configured", ErrProviderUnavailable)
	}

	if len(p.images) > 0 && !s.provider.SupportsVision() {
		if !hasIdentifier {
			return plan{}, fmt.Errorf("%w: provider %s cannot analyze images and no model identifier was given", ErrProviderUnavailable, s.provider.Name())
		}
		p.warnings = append(p.warnings, fmt.Sprintf("%d image(s) were not analyzed because provider %s does not support images.", len(p.images), s.provider.Name()))
		p.images = nil
	}
	return p, nil
}

// meteredFetcher counts fetch outcomes.
type meteredFetcher struct {
	imagestore.Fetcher
}

func (f meteredFetcher) Fetch(ctx context.Context, imageURL string) (imagestore.Image, error) {
	img, err := f.Fetcher.Fetch(ctx, imageURL)
	if err != nil {
		metrics.ImageFetchTotal.WithLabelValues("error").Inc()
		return img, err
	}
	metrics.ImageFetchTotal.WithLabelValues("success").Inc()
	return img, nil
}

// ComposeTitle builds a title from brand, model, a category-specific
// attribute and color. See listing.ComposeTitle.
func ComposeTitle(brand, model, category string, extraAttributes map[string]string) string {
	return listing.ComposeTitle(brand, model, category, extraAttributes)
}

// AppendKeywordFooter appends a search keyword footer to a description.
// See listing.AppendKeywordFooter.
func AppendKeywordFooter(description string, keywords []string) string {
	return listing.AppendKeywordFooter(description, keywords)
}

// HTTPStatus maps an error returned by Generate to an HTTP status code.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
