package testsupport

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"pixly/internal/config"
	"pixly/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	s, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})
	return s
}

// InsertRecord stores a minimal record with the given category and OCR text.
func InsertRecord(t testing.TB, s *store.Store, name, category, text string) *store.Record {
	t.Helper()

	rec := &store.Record{
		FilePath:             filepath.Join("/library", category, name),
		OriginalName:         name,
		NewName:              name,
		Category:             category,
		Description:          fmt.Sprintf("%s_content", category),
		OCRText:              text,
		OCRConfidence:        80,
		AIConfidence:         0.3,
		ClassificationSource: "fallback",
		Tags:                 []string{category},
		FileSize:             1024,
		ProcessedAt:          time.Now().UTC(),
	}
	if _, err := s.Insert(context.Background(), rec); err != nil {
		t.Fatalf("store.Insert: %v", err)
	}
	return rec
}
