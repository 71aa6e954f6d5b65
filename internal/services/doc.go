// Package services defines shared utilities consumed by the pipeline stages
// and the external integrations under it (OCR engine, AI providers).
//
// Key responsibilities:
//   - Context helpers that stamp screenshot paths, record IDs, stage names, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper so per-file failures can be
//     told apart from configuration problems.
//
// Use these helpers when wiring new stage logic so failure handling and
// observability stay uniform across the pipeline.
package services
