// Package listing defines the canonical marketplace listing schema and the
// pure pieces of the generation pipeline: condition normalization, prompt
// construction and response parsing.
package listing

import "time"

// DefaultTitleMaxLength is the maximum title length in runes.
const DefaultTitleMaxLength = 80

// DefaultDescriptionFallbackLimit is how many runes of an unparseable response
// are kept as the description of a degraded record.
const DefaultDescriptionFallbackLimit = 1000

// GenerationRequest contains the caller's inputs for a single generation.
type GenerationRequest struct {
	Images          []string // Image reference URLs, first one is the primary image
	ModelIdentifier string   // Exact product model, e.g. "WH-1000XM4"
	FreeformContext string   // Extra notes from the seller, passed verbatim
}

// ListingContent is the canonical generated listing. It is built once per
// generation and not modified afterwards.
type ListingContent struct {
	Title             string             `json:"title"`
	Description       string             `json:"description"`
	StructuredContent *StructuredContent `json:"structuredContent,omitempty"`
	Category          Category           `json:"category"`
	Condition         Condition          `json:"condition"`
	ConditionNotes    string             `json:"conditionNotes"`
	Specifications    Specifications     `json:"specifications"`
	SuggestedPrice    PriceEstimate      `json:"suggestedPrice"`
	SearchKeywords    []string           `json:"searchKeywords"`
	Warnings          []string           `json:"warnings"`
	Confidence        float64            `json:"confidence"`
	ProviderID        string             `json:"providerId"`
	GeneratedAt       time.Time          `json:"generatedAt"`
	ParseFailed       bool               `json:"parseFailed"`
}

// StructuredContent holds the richer marketplace/SEO fields.
type StructuredContent struct {
	KeyFeatures     []string    `json:"keyFeatures"`
	ShortSummary    string      `json:"shortSummary"`
	SEOTitle        string      `json:"seoTitle"`
	SEODescription  string      `json:"seoDescription"`
	Keywords        KeywordSets `json:"keywords"`
	MarketplaceTags []string    `json:"marketplaceTags"`
}

// KeywordSets groups search keywords by importance.
type KeywordSets struct {
	Primary   []string `json:"primary"`
	Secondary []string `json:"secondary"`
	LongTail  []string `json:"longTail"`
}

// Category is the suggested marketplace category.
type Category struct {
	Main string   `json:"main"`
	Sub  string   `json:"sub"`
	Tags []string `json:"tags"`
}

// Specifications contains the fixed attribute set plus anything else the
// provider reported. AdditionalSpecs values are either string or float64.
type Specifications struct {
	Brand           string         `json:"brand"`
	Model           string         `json:"model"`
	Color           string         `json:"color"`
	Material        string         `json:"material"`
	Size            string         `json:"size"`
	Dimensions      string         `json:"dimensions"`
	Weight          string         `json:"weight"`
	Year            string         `json:"year"`
	AdditionalSpecs map[string]any `json:"additionalSpecs"`
}

// PriceEstimate is the suggested price range.
type PriceEstimate struct {
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Currency  string  `json:"currency"`
	Reasoning string  `json:"reasoning"`
}
