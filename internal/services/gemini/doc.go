// Package gemini adapts the Google genai SDK to Pixly's categorization
// backend interface. It requests JSON output at temperature 0 and tags
// failures with services markers so the classifier can fall back quietly.
package gemini
