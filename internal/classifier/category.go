package classifier

import "strings"

// Category is one of the closed set of screenshot categories.
type Category string

const (
	CategoryErrors Category = "Errors"
	CategoryCode   Category = "Code"
	CategoryMemes  Category = "Memes"
	CategoryUI     Category = "UI"
	CategoryDocs   Category = "Docs"
	CategoryOther  Category = "Other"
)

var allCategories = []Category{CategoryErrors, CategoryCode, CategoryMemes, CategoryUI, CategoryDocs, CategoryOther}

// Categories returns every category in display order.
func Categories() []Category {
	return append([]Category(nil), allCategories...)
}

// ParseCategory maps value onto its canonical spelling, case-insensitively.
// Unknown or empty values become CategoryOther.
func ParseCategory(value string) Category {
	trimmed := strings.TrimSpace(value)
	for _, c := range allCategories {
		if strings.EqualFold(trimmed, string(c)) {
			return c
		}
	}
	return CategoryOther
}

func (c Category) String() string {
	return string(c)
}

// Source records which path produced a classification.
type Source string

const (
	SourceAI       Source = "ai"
	SourceFallback Source = "fallback"
)

// Result is the classification of one screenshot.
type Result struct {
	Category    Category
	Description string
	Tags        []string
	Confidence  float64
	Source      Source
}
