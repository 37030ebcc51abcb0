package listing

import "strings"

// Condition describes the wear state of an item.
type Condition string

const (
	ConditionNew       Condition = "new"
	ConditionLikeNew   Condition = "like-new"
	ConditionExcellent Condition = "excellent"
	ConditionGood      Condition = "good"
	ConditionFair      Condition = "fair"
	ConditionPoor      Condition = "poor"
	ConditionForParts  Condition = "for-parts"
)

// DefaultCondition is used when a description matches nothing.
const DefaultCondition = ConditionGood

var allConditions = []Condition{
	ConditionNew,
	ConditionLikeNew,
	ConditionExcellent,
	ConditionGood,
	ConditionFair,
	ConditionPoor,
	ConditionForParts,
}

// AllConditions returns the canonical condition values, best first.
func AllConditions() []Condition {
	out := make([]Condition, len(allConditions))
	copy(out, allConditions)
	return out
}

// Valid reports whether c is one of the canonical values.
func (c Condition) Valid() bool {
	for _, v := range allConditions {
		if c == v {
			return true
		}
	}
	return false
}

type conditionSynonyms struct {
	condition Condition
	phrases   []string
}

// conditionSynonymTable is checked top to bottom and the first group with a
// matching phrase wins. Groups describing damage come first so that
// "used, broken screen" is for-parts rather than good, and "like new" is
// checked before any phrase containing "new".
var conditionSynonymTable = []conditionSynonyms{
	{ConditionForParts, []string{"for parts", "broken", "not working", "parts only", "does not work", "defective"}},
	{ConditionPoor, []string{"damaged", "heavily used", "heavy wear", "poor"}},
	{ConditionLikeNew, []string{"like new", "mint", "open box", "refurbished", "renewed", "barely used"}},
	{ConditionNew, []string{"brand new", "sealed", "new in box", "new with tags", "unopened", "unused"}},
	{ConditionExcellent, []string{"very good", "excellent", "lightly used", "great condition"}},
	{ConditionGood, []string{"pre owned", "used", "good"}},
	{ConditionFair, []string{"acceptable", "fair", "worn", "signs of wear"}},
}

// NormalizeCondition maps free text to a canonical Condition. It never fails:
// input that matches nothing yields DefaultCondition.
func NormalizeCondition(raw string) Condition {
	lower := strings.ToLower(raw)

	token := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || r == '-' {
			return r
		}
		return -1
	}, lower)
	if c := Condition(token); c.Valid() {
		return c
	}

	text := conditionSearchText(lower)
	if text == "" {
		return DefaultCondition
	}
	for _, group := range conditionSynonymTable {
		for _, phrase := range group.phrases {
			if strings.Contains(text, phrase) {
				return group.condition
			}
		}
	}

	return DefaultCondition
}

// conditionSearchText collapses everything that is not a letter into single
// spaces so "like_new" and "LIKE-NEW!" both read "like new".
func conditionSearchText(lower string) string {
	fields := strings.FieldsFunc(lower, func(r rune) bool {
		return r < 'a' || r > 'z'
	})
	return strings.Join(fields, " ")
}
