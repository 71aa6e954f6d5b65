// Package classifier assigns each screenshot a category, a filename-safe
// description and a few tags.
//
// Text that is long enough and was read with enough OCR confidence goes to
// the configured AI backend (Gemini or an OpenRouter-compatible API). Those
// calls are serialized, spaced by a rate limiter and guarded by a circuit
// breaker; a transient failure is retried once, after the limiter allows
// another call. Everything else, including every backend failure, is classified
// by keyword matching so Classify always produces a result.
package classifier
