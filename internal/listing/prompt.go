package listing

import (
	"fmt"
	"strings"

	"github.com/lithammer/dedent"
)

const promptRole = `
	You are an experienced marketplace seller and copywriter. You write accurate,
	honest and search-friendly listings for secondhand and new items. Use a
	friendly, factual tone. Never invent defects or accessories you cannot see or
	know about, and mention uncertainty in "warnings" instead of guessing.`

const promptBaseSchema = `
	Respond with a JSON object with these keys:
	- title: marketplace title, at most %d characters, brand and model first
	- description: 2-4 short paragraphs describing the item, its features and condition
	- category: object with "main" (top-level category), "sub" (subcategory) and "tags" (list of strings)
	- condition: exactly one of %s
	- conditionNotes: visible wear, defects or missing parts (empty string if none)
	- specifications: object with "brand", "model", "color", "material", "size", "dimensions", "weight", "year" (strings, empty if unknown) and "additionalSpecs" (object of any other attribute name to string or number)
	- suggestedPrice: object with "min" and "max" (numbers), "currency" (ISO 4217 code) and "reasoning" (one sentence)
	- searchKeywords: list of 5-15 search terms buyers would use
	- warnings: list of things the seller should double-check (empty list if none)
	- confidence: number between 0 and 1 describing how sure you are about the identification`

const promptRichSchema = `
	- structuredContent: object with
	  - keyFeatures: list of 3-6 short feature bullet points
	  - shortSummary: one sentence summary
	  - seoTitle: search-engine title, at most 60 characters
	  - seoDescription: search-engine meta description, at most 160 characters
	  - keywords: object with "primary", "secondary" and "longTail" lists of strings
	  - marketplaceTags: list of short tags for marketplace search filters`

const promptWithIdentifier = `
	The exact model identifier of the item is %q. Base the specifications, features
	and price estimate on what is known about this exact model.`

const promptIdentifierAndImages = `
	Use the attached images to confirm the model and to assess the condition,
	color and included accessories of this particular item.`

const promptImagesOnly = `
	No model identifier was given. Identify the item from the attached images:
	read brand names, model numbers and labels, and extract all identifying
	information (brand, model, variant, color) from what is visible.`

const promptNoImages = `
	No images are available, so assume the condition is "good" unless the
	additional context says otherwise and add a warning that the condition was not
	verified from photos.`

const promptContext = `
	Additional context from the seller:`

const promptClosing = `
	Respond ONLY with the JSON object, no markdown or other text.`

// PromptBuilder constructs the instruction sent to an inference provider.
// Build is a pure function of the builder options and its arguments.
type PromptBuilder struct {
	// RichSchema includes the structuredContent section in the requested schema.
	RichSchema bool
	// TitleMaxLength is the title bound communicated to the provider.
	TitleMaxLength int
}

// NewPromptBuilder returns a builder with the rich schema enabled.
func NewPromptBuilder() PromptBuilder {
	return PromptBuilder{RichSchema: true, TitleMaxLength: DefaultTitleMaxLength}
}

// Build returns the instruction text for the given inputs. Blank strings are
// treated as absent.
func (b PromptBuilder) Build(modelIdentifier, freeformContext string, hasImages bool) string {
	titleMax := b.TitleMaxLength
	if titleMax <= 0 {
		titleMax = DefaultTitleMaxLength
	}

	var sb strings.Builder
	writeSection(&sb, promptRole)
	schema := fmt.Sprintf(dedent.Dedent(promptBaseSchema), titleMax, conditionChoices())
	if b.RichSchema {
		schema = strings.TrimRight(schema, "\n") + dedent.Dedent(promptRichSchema)
	}
	writeSection(&sb, schema)

	modelIdentifier = strings.TrimSpace(modelIdentifier)
	switch {
	case modelIdentifier != "" && hasImages:
		writeSection(&sb, fmt.Sprintf(dedent.Dedent(promptWithIdentifier), modelIdentifier))
		writeSection(&sb, promptIdentifierAndImages)
	case modelIdentifier != "":
		writeSection(&sb, fmt.Sprintf(dedent.Dedent(promptWithIdentifier), modelIdentifier))
		writeSection(&sb, promptNoImages)
	default:
		writeSection(&sb, promptImagesOnly)
	}

	if ctx := strings.TrimSpace(freeformContext); ctx != "" {
		sb.WriteString(strings.TrimSpace(dedent.Dedent(promptContext)))
		sb.WriteString("\n")
		sb.WriteString(freeformContext)
		sb.WriteString("\n\n")
	}

	sb.WriteString(strings.TrimSpace(dedent.Dedent(promptClosing)))
	return sb.String()
}

func writeSection(sb *strings.Builder, text string) {
	sb.WriteString(strings.TrimSpace(dedent.Dedent(text)))
	sb.WriteString("\n\n")
}

func conditionChoices() string {
	quoted := make([]string, len(allConditions))
	for i, c := range allConditions {
		quoted[i] = fmt.Sprintf("%q", string(c))
	}
	return strings.Join(quoted, ", ")
}
