package listing

import (
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// DegradedTitle is the title of a listing whose response could not be parsed.
const DegradedTitle = "Untitled Listing"

// DegradedWarning is attached to every degraded listing.
const DegradedWarning = "The AI response could not be parsed into a structured listing; review and edit before publishing."

const (
	defaultConfidence  = 0.5
	degradedConfidence = 0.3
)

var errNoJSONObject = errors.New("no JSON object found in response")

// fixedSpecKeys are the specification attributes with their own field.
var fixedSpecKeys = map[string]bool{
	"brand": true, "model": true, "color": true, "material": true,
	"size": true, "dimensions": true, "weight": true, "year": true,
	"additionalSpecs": true,
}

// Parser turns raw provider text into a ListingContent. Parse never fails;
// malformed fields fall back to per-field defaults and unparseable responses
// yield a degraded record with ParseFailed set.
type Parser struct {
	// DescriptionFallbackLimit bounds the description of a degraded record, in runes.
	DescriptionFallbackLimit int
	// TitleMaxLength bounds the title, in runes.
	TitleMaxLength int
	// Now returns the generation timestamp. Defaults to time.Now.
	Now func() time.Time
}

// NewParser returns a parser with default limits.
func NewParser() *Parser {
	return &Parser{
		DescriptionFallbackLimit: DefaultDescriptionFallbackLimit,
		TitleMaxLength:           DefaultTitleMaxLength,
		Now:                      time.Now,
	}
}

// ExtractJSONObject returns the text between the first '{' and the last '}'.
// This is not brace-balance aware: prose containing a '}' after the payload
// is included and makes the result undecodable.
func ExtractJSONObject(text string) (string, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		return "", errNoJSONObject
	}
	return text[start : end+1], nil
}

// Parse converts a raw provider response into a listing.
func (p *Parser) Parse(rawText, providerID string) ListingContent {
	generatedAt := p.now()

	jsonStr, err := ExtractJSONObject(rawText)
	if err != nil {
		return p.degraded(rawText, providerID, generatedAt)
	}

	payload, err := decodeObject(jsonStr)
	if err != nil {
		return p.degraded(rawText, providerID, generatedAt)
	}

	return p.fromFields(fields(payload), providerID, generatedAt)
}

// decodeObject decodes a single JSON object. Numbers are kept as json.Number
// so that one out-of-range value only defaults its own field.
func decodeObject(jsonStr string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(jsonStr))
	dec.UseNumber()

	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after JSON object")
	}
	return payload, nil
}

func (p *Parser) fromFields(f fields, providerID string, generatedAt time.Time) ListingContent {
	content := ListingContent{
		Title:          f.str("title"),
		Description:    f.str("description"),
		Category:       parseCategory(f.object("category")),
		Condition:      NormalizeCondition(f.str("condition")),
		ConditionNotes: f.str("conditionNotes"),
		Specifications: parseSpecifications(f.object("specifications")),
		SuggestedPrice: parsePrice(f.object("suggestedPrice")),
		SearchKeywords: f.strList("searchKeywords"),
		Warnings:       f.strList("warnings"),
		Confidence:     defaultConfidence,
		ProviderID:     providerID,
		GeneratedAt:    generatedAt,
	}

	if sc, ok := f.objectOK("structuredContent"); ok {
		content.StructuredContent = parseStructuredContent(sc)
	}

	if v, ok := f.numberOK("confidence"); ok {
		content.Confidence = clamp01(v)
	}

	return content
}

// Complete fills the gaps a provider commonly leaves in a parsed listing.
// An empty searchKeywords list is taken from the primary then secondary
// structured keywords, a blank title is composed from the specifications,
// and the title is cut to TitleMaxLength. Degraded listings are returned
// unchanged. Parse itself keeps the provider's values as decoded.
func (p *Parser) Complete(content ListingContent) ListingContent {
	if content.ParseFailed {
		return content
	}

	if len(content.SearchKeywords) == 0 && content.StructuredContent != nil {
		kw := content.StructuredContent.Keywords
		content.SearchKeywords = dedupe(append(append([]string{}, kw.Primary...), kw.Secondary...))
	}

	if strings.TrimSpace(content.Title) == "" {
		specs := content.Specifications
		content.Title = ComposeTitle(specs.Brand, specs.Model, content.Category.Main, map[string]string{"color": specs.Color})
	}
	content.Title = truncateRunes(content.Title, p.titleMax())

	return content
}

func (p *Parser) degraded(rawText, providerID string, generatedAt time.Time) ListingContent {
	limit := p.DescriptionFallbackLimit
	if limit <= 0 {
		limit = DefaultDescriptionFallbackLimit
	}
	return ListingContent{
		Title:          DegradedTitle,
		Description:    truncateRunes(strings.TrimSpace(rawText), limit),
		Category:       Category{Tags: []string{}},
		Condition:      DefaultCondition,
		Specifications: Specifications{AdditionalSpecs: map[string]any{}},
		SearchKeywords: []string{},
		Warnings:       []string{DegradedWarning},
		Confidence:     degradedConfidence,
		ProviderID:     providerID,
		GeneratedAt:    generatedAt,
		ParseFailed:    true,
	}
}

func (p *Parser) now() time.Time {
	if p.Now == nil {
		return time.Now().UTC()
	}
	return p.Now().UTC()
}

func (p *Parser) titleMax() int {
	if p.TitleMaxLength <= 0 {
		return DefaultTitleMaxLength
	}
	return p.TitleMaxLength
}

func parseCategory(f fields) Category {
	return Category{
		Main: f.str("main"),
		Sub:  f.str("sub"),
		Tags: f.strList("tags"),
	}
}

func parseStructuredContent(f fields) *StructuredContent {
	kw := f.object("keywords")
	return &StructuredContent{
		KeyFeatures:    f.strList("keyFeatures"),
		ShortSummary:   f.str("shortSummary"),
		SEOTitle:       f.str("seoTitle"),
		SEODescription: f.str("seoDescription"),
		Keywords: KeywordSets{
			Primary:   kw.strList("primary"),
			Secondary: kw.strList("secondary"),
			LongTail:  kw.strList("longTail"),
		},
		MarketplaceTags: f.strList("marketplaceTags"),
	}
}

// parseSpecifications fills the fixed attributes and collects every other
// string or number attribute into AdditionalSpecs. Attributes reported next
// to the fixed ones are folded in unless additionalSpecs already has them.
func parseSpecifications(f fields) Specifications {
	specs := Specifications{
		Brand:           f.str("brand"),
		Model:           f.str("model"),
		Color:           f.str("color"),
		Material:        f.str("material"),
		Size:            f.str("size"),
		Dimensions:      f.str("dimensions"),
		Weight:          f.str("weight"),
		Year:            f.str("year"),
		AdditionalSpecs: map[string]any{},
	}

	for k, v := range f.object("additionalSpecs") {
		if sv, ok := specValue(v); ok {
			specs.AdditionalSpecs[k] = sv
		}
	}
	for k, v := range f {
		if fixedSpecKeys[k] {
			continue
		}
		if _, exists := specs.AdditionalSpecs[k]; exists {
			continue
		}
		if sv, ok := specValue(v); ok {
			specs.AdditionalSpecs[k] = sv
		}
	}

	return specs
}

// parsePrice rebuilds the price range. Negative bounds become 0, a missing
// max takes the min, and reversed bounds are swapped.
func parsePrice(f fields) PriceEstimate {
	price := PriceEstimate{
		Min:       f.number("min"),
		Max:       f.number("max"),
		Currency:  f.str("currency"),
		Reasoning: f.str("reasoning"),
	}
	if price.Min < 0 {
		price.Min = 0
	}
	if price.Max < 0 {
		price.Max = 0
	}
	switch {
	case price.Max == 0 && price.Min > 0:
		price.Max = price.Min
	case price.Max < price.Min:
		price.Min, price.Max = price.Max, price.Min
	}
	return price
}

func specValue(v any) (any, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		if v, err := strconv.ParseFloat(t.String(), 64); err == nil {
			return v, true
		}
		return nil, false
	default:
		return nil, false
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		key := strings.ToLower(item)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, item)
	}
	return out
}

// fields is a decoded JSON object with decode-or-default accessors. Every
// accessor is independent: a malformed value only affects its own field.
// List items that are not strings or numbers are dropped; blank strings are
// kept as decoded.
type fields map[string]any

func (f fields) str(key string) string {
	s, _ := coerceString(f[key])
	return s
}

func (f fields) strList(key string) []string {
	items, ok := f[key].([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := coerceString(item)
		if !ok {
			continue
		}
		out = append(out, s)
	}
	return out
}

func (f fields) number(key string) float64 {
	v, _ := f.numberOK(key)
	return v
}

func (f fields) numberOK(key string) (float64, bool) {
	return coerceNumber(f[key])
}

func (f fields) object(key string) fields {
	obj, _ := f.objectOK(key)
	return obj
}

func (f fields) objectOK(key string) (fields, bool) {
	obj, ok := f[key].(map[string]any)
	if !ok {
		return fields{}, false
	}
	return fields(obj), true
}

func coerceString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		v, err := strconv.ParseFloat(t.String(), 64)
		if err != nil {
			return "", false
		}
		return strconv.FormatFloat(v, 'f', -1, 64), true
	default:
		return "", false
	}
}

func coerceNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case json.Number:
		n, err := strconv.ParseFloat(t.String(), 64)
		if err != nil {
			return 0, false
		}
		return n, true
	case string:
		return ParseNumericPrefix(t)
	default:
		return 0, false
	}
}

// ParseNumericPrefix parses the longest leading decimal number in s, after
// leading whitespace, the way JavaScript's parseFloat does: "199.99abc" is
// 199.99, "1,299" is 1 and "$5" is not a number.
func ParseNumericPrefix(s string) (float64, bool) {
	s = strings.TrimLeft(s, " \t\n\r\f\v")
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		j := i + 1
		frac := 0
		for j < len(s) && isDigit(s[j]) {
			j++
			frac++
		}
		if digits > 0 || frac > 0 {
			i = j
			digits += frac
		}
	}
	if digits == 0 {
		return 0, false
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		expDigits := 0
		for j < len(s) && isDigit(s[j]) {
			j++
			expDigits++
		}
		if expDigits > 0 {
			i = j
		}
	}

	v, err := strconv.ParseFloat(s[:i], 64)
	if err != nil {
		// Only overflow can fail here; the prefix is syntactically valid.
		return 0, false
	}
	return v, true
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
