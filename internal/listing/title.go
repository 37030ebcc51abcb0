package listing

import (
	"strings"
	"unicode/utf8"
)

// categoryTitleAttributes lists, per category keyword, which extra attribute
// is worth putting in the title. The first matching keyword wins.
var categoryTitleAttributes = []struct {
	keyword string
	attrs   []string
}{
	{"smartphone", []string{"storage", "capacity"}},
	{"cell phone", []string{"storage", "capacity"}},
	{"mobile phone", []string{"storage", "capacity"}},
	{"computer", []string{"processor", "storage"}},
	{"laptop", []string{"processor", "storage"}},
	{"electronics", []string{"storage", "capacity"}},
	{"camera", []string{"lens", "megapixels"}},
	{"clothing", []string{"size"}},
	{"shoes", []string{"size"}},
	{"fashion", []string{"size"}},
	{"furniture", []string{"material"}},
	{"jewelry", []string{"material"}},
	{"books", []string{"author"}},
	{"bikes", []string{"frame size", "size"}},
}

// ComposeTitle joins brand, model, the attribute most relevant for the
// category and the color with single spaces, skipping empty parts. The
// category name itself is not part of the title. Titles longer than
// DefaultTitleMaxLength are cut at the last word boundary that fits.
func ComposeTitle(brand, model, category string, extraAttributes map[string]string) string {
	attrs := make(map[string]string, len(extraAttributes))
	for k, v := range extraAttributes {
		attrs[strings.ToLower(strings.TrimSpace(k))] = v
	}

	parts := []string{brand, model, categoryAttribute(category, attrs)}
	color := attrs["color"]
	if color == "" {
		color = attrs["colour"]
	}
	parts = append(parts, color)

	var words []string
	for _, p := range parts {
		if f := strings.Fields(p); len(f) > 0 {
			words = append(words, strings.Join(f, " "))
		}
	}

	return truncateAtWord(strings.Join(words, " "), DefaultTitleMaxLength)
}

func categoryAttribute(category string, attrs map[string]string) string {
	category = strings.ToLower(category)
	if category == "" {
		return ""
	}
	for _, entry := range categoryTitleAttributes {
		if !strings.Contains(category, entry.keyword) {
			continue
		}
		for _, name := range entry.attrs {
			if v := strings.TrimSpace(attrs[name]); v != "" {
				return v
			}
		}
		return ""
	}
	return ""
}

func truncateAtWord(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	cut := string([]rune(s)[:limit])
	if i := strings.LastIndex(cut, " "); i > 0 {
		return cut[:i]
	}
	return cut
}

// AppendKeywordFooter appends a closing paragraph that mentions the first
// three keywords and lists all of them. The description is returned as is
// when there are no keywords.
func AppendKeywordFooter(description string, keywords []string) string {
	cleaned := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			cleaned = append(cleaned, kw)
		}
	}
	if len(cleaned) == 0 {
		return description
	}

	top := cleaned
	if len(top) > 3 {
		top = top[:3]
	}
	footer := "Perfect for anyone searching for " + joinWithOr(top) + ".\n\nKeywords: " + strings.Join(cleaned, ", ")

	description = strings.TrimRight(description, " \t\n")
	if description == "" {
		return footer
	}
	return description + "\n\n" + footer
}

func joinWithOr(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " or " + items[1]
	default:
		return strings.Join(items[:len(items)-1], ", ") + ", or " + items[len(items)-1]
	}
}
