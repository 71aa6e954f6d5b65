// Package textutil provides text helpers for turning OCR output and model
// descriptions into filesystem-safe tokens.
//
// SanitizeDescription is the single source of truth for the description part
// of organized filenames. The TruncateRunes helper bounds text sent to the
// categorization service without splitting multi-byte characters.
package textutil
