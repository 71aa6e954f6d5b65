package classifier

import "strings"

type keywordRule struct {
	category Category
	keywords []string
}

// Checked in order; the first category with any substring match wins.
var keywordRules = []keywordRule{
	{CategoryErrors, []string{"error", "exception", "traceback", "failed", "failure", "crash", "bug", "warning"}},
	{CategoryCode, []string{"def ", "function", "class ", "import ", "const ", "var ", "let ", "return", "{}", "[]", "=>"}},
	{CategoryMemes, []string{"lol", "lmao", "meme", "funny", "joke", "haha"}},
	{CategoryUI, []string{"button", "click", "menu", "dialog", "window", "settings", "preferences"}},
	{CategoryDocs, []string{"documentation", "readme", "guide", "tutorial", "manual", "instructions"}},
}

const (
	fallbackMatchConfidence = 0.3
	fallbackNoneConfidence  = 0.1
	unknownDescription      = "unknown_content"
)

// Fallback classifies text by keyword matching alone.
func Fallback(text string) Result {
	lowered := strings.ToLower(text)
	for _, rule := range keywordRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lowered, kw) {
				name := strings.ToLower(string(rule.category))
				return Result{
					Category:    rule.category,
					Description: name + "_content",
					Tags:        []string{name},
					Confidence:  fallbackMatchConfidence,
					Source:      SourceFallback,
				}
			}
		}
	}
	return Result{
		Category:    CategoryOther,
		Description: unknownDescription,
		Confidence:  fallbackNoneConfidence,
		Source:      SourceFallback,
	}
}
