package classifier

import (
	"fmt"
	"strings"

	"pixly/internal/services/llm"
	"pixly/internal/textutil"
)

const (
	maxPromptText = 1000
	maxTags       = 5
	// Used when the response omits confidence.
	defaultAIConfidence = 0.5
)

const systemPrompt = `You categorize screenshots from the text found in them.
Respond with JSON only, using exactly this shape:
{"category": "one of: Errors, Code, Memes, UI, Docs, Other", "description": "brief description under 50 chars", "tags": ["tag1", "tag2", "tag3"], "confidence": 0.0}`

func userPrompt(text string) string {
	return fmt.Sprintf("Analyze this screenshot text and categorize it.\n\nText from screenshot:\n%s", textutil.TruncateRunes(text, maxPromptText))
}

type aiResponse struct {
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Confidence  *float64 `json:"confidence"`
}

// parseResponse converts a backend response into a Result.
func parseResponse(content string) (Result, error) {
	var resp aiResponse
	if err := llm.DecodeJSON(content, &resp); err != nil {
		return Result{}, err
	}
	confidence := defaultAIConfidence
	if resp.Confidence != nil {
		confidence = *resp.Confidence
	}
	switch {
	case confidence < 0:
		confidence = 0
	case confidence > 1:
		confidence = 1
	}
	tags := make([]string, 0, maxTags)
	for _, tag := range resp.Tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		tags = append(tags, tag)
		if len(tags) == maxTags {
			break
		}
	}
	return Result{
		Category:    ParseCategory(resp.Category),
		Description: textutil.SanitizeDescription(resp.Description),
		Tags:        tags,
		Confidence:  confidence,
		Source:      SourceAI,
	}, nil
}
