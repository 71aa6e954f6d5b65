// Package llm talks to OpenRouter-compatible chat completion endpoints. Pixly
// uses it as the "openrouter" categorization backend and for the AI
// connectivity preflight.
//
// Each Complete call is exactly one HTTP request. Failures carry a services
// marker: 408, 429 and 5xx are ErrTransient, 401 and 403 are
// ErrConfiguration, network deadlines are ErrTimeout. DecodeJSON tolerates
// code fences and prose around the reply object.
package llm
