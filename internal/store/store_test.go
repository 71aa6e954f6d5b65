package store_test

import (
	"context"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"pixly/internal/store"
	"pixly/internal/testsupport"
)

func TestOpenAppliesMigrations(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	captured := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	rec := &store.Record{
		FilePath:             filepath.Join(cfg.Paths.ScreenshotsDir, "2024", "May", "Errors", "Screenshot_2024_May_1_login_error.png"),
		OriginalPath:         "/home/u/Desktop/Screenshot 1.png",
		OriginalName:         "Screenshot 1.png",
		NewName:              "Screenshot_2024_May_1_login_error.png",
		Category:             "Errors",
		Description:          "login_error",
		OCRText:              "Login failed: invalid password",
		OCRConfidence:        88.5,
		AIConfidence:         0.9,
		ClassificationSource: "ai",
		Tags:                 []string{"login", "auth"},
		PreprocessingSteps:   []string{"resize", "grayscale"},
		FileSize:             2048,
		Width:                1920,
		Height:               1080,
		CapturedAt:           &captured,
	}
	id, err := s.Insert(ctx, rec)
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if id == 0 || rec.ID != id {
		t.Fatalf("expected id to be assigned, got %d (record %d)", id, rec.ID)
	}

	fetched, err := s.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched == nil {
		t.Fatal("expected record")
	}
	if fetched.Category != "Errors" || fetched.Description != "login_error" {
		t.Fatalf("unexpected record %+v", fetched)
	}
	if !slices.Equal(fetched.Tags, []string{"login", "auth"}) {
		t.Fatalf("unexpected tags %v", fetched.Tags)
	}
	if !slices.Equal(fetched.PreprocessingSteps, []string{"resize", "grayscale"}) {
		t.Fatalf("unexpected steps %v", fetched.PreprocessingSteps)
	}
	if fetched.CapturedAt == nil || !fetched.CapturedAt.Equal(captured) {
		t.Fatalf("unexpected captured_at %v", fetched.CapturedAt)
	}
	if fetched.ProcessedAt.IsZero() || fetched.CreatedAt.IsZero() {
		t.Fatal("expected timestamps to be populated")
	}

	missing, err := s.GetByID(ctx, id+100)
	if err != nil {
		t.Fatalf("GetByID missing: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing record, got %+v", missing)
	}

	has, err := s.HasPath(ctx, rec.FilePath)
	if err != nil || !has {
		t.Fatalf("expected HasPath true, got %v (%v)", has, err)
	}
	has, err = s.HasPath(ctx, "/nope.png")
	if err != nil || has {
		t.Fatalf("expected HasPath false, got %v (%v)", has, err)
	}

	health, err := s.CheckHealth(ctx)
	if err != nil {
		t.Fatalf("CheckHealth: %v", err)
	}
	if !health.DatabaseReadable || !health.IntegrityCheck || health.TotalRecords != 1 || health.SchemaVersion != "001_initial" {
		t.Fatalf("unexpected health %+v", health)
	}
}

func TestReopenIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	first, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	testsupport.InsertRecord(t, first, "a.png", "Code", "func main")
	first.Close()

	second := testsupport.MustOpenStore(t, cfg)
	stats, err := second.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 1 {
		t.Fatalf("expected persisted record, got %+v", stats)
	}
}

func TestInsertRejectsDuplicatePath(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := testsupport.MustOpenStore(t, cfg)
	rec := testsupport.InsertRecord(t, s, "a.png", "Docs", "readme")

	dup := *rec
	dup.ID = 0
	if _, err := s.Insert(context.Background(), &dup); err == nil {
		t.Fatal("expected unique filepath violation")
	}
}

func TestSearchRanksAndQuotesTokens(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.InsertRecord(t, s, "one.png", "Errors", "database connection failed with timeout")
	testsupport.InsertRecord(t, s, "two.png", "Code", "func connect() error { return nil }")
	testsupport.InsertRecord(t, s, "three.png", "Memes", "lol cat")

	results, err := s.Search(ctx, "connection failed", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].OriginalName != "one.png" {
		t.Fatalf("unexpected results %+v", results)
	}

	// FTS operators in user input are matched literally rather than parsed.
	results, err = s.Search(ctx, `cat" OR "lol`, 10)
	if err != nil {
		t.Fatalf("Search with quotes: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results for literal quoted input, got %d", len(results))
	}

	results, err = s.Search(ctx, "Memes", 10)
	if err != nil {
		t.Fatalf("Search tags: %v", err)
	}
	if len(results) != 1 || results[0].Category != "Memes" {
		t.Fatalf("expected tag match, got %+v", results)
	}

	results, err = s.Search(ctx, "   ", 10)
	if err != nil || results != nil {
		t.Fatalf("expected empty query to return nothing, got %v (%v)", results, err)
	}
}

func TestStatsAndRecent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	a := testsupport.InsertRecord(t, s, "a.png", "Errors", "boom")
	time.Sleep(2 * time.Millisecond)
	b := testsupport.InsertRecord(t, s, "b.png", "Errors", "boom again")
	time.Sleep(2 * time.Millisecond)
	c := testsupport.InsertRecord(t, s, "c.png", "UI", "settings dialog")

	if err := s.MarkDuplicate(ctx, b.ID, a.ID); err != nil {
		t.Fatalf("MarkDuplicate: %v", err)
	}
	if err := s.MarkDuplicate(ctx, 9999, a.ID); err == nil {
		t.Fatal("expected error marking unknown record")
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 3 || stats.TotalSize != 3072 || stats.Duplicates != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if stats.ByCategory["Errors"] != 2 || stats.ByCategory["UI"] != 1 {
		t.Fatalf("unexpected categories %v", stats.ByCategory)
	}

	recent, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 || recent[0].ID != c.ID || recent[1].ID != b.ID {
		t.Fatalf("unexpected recent order %+v", recent)
	}
	if !recent[1].IsDuplicate || recent[1].DuplicateOf == nil || *recent[1].DuplicateOf != a.ID {
		t.Fatalf("expected duplicate flag on %+v", recent[1])
	}
}

func TestFingerprints(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	a := testsupport.InsertRecord(t, s, "a.png", "Other", "")
	b := testsupport.InsertRecord(t, s, "b.png", "Other", "")

	if err := s.InsertFingerprint(ctx, store.Fingerprint{ScreenshotID: a.ID, Hash: "00000000000000ff"}); err != nil {
		t.Fatalf("InsertFingerprint: %v", err)
	}
	original := a.ID
	if err := s.InsertFingerprint(ctx, store.Fingerprint{ScreenshotID: b.ID, Hash: "00000000000000fe", DuplicateOf: &original}); err != nil {
		t.Fatalf("InsertFingerprint: %v", err)
	}
	if err := s.InsertFingerprint(ctx, store.Fingerprint{ScreenshotID: b.ID}); err == nil {
		t.Fatal("expected error for empty hash")
	}

	fps, err := s.Fingerprints(ctx)
	if err != nil {
		t.Fatalf("Fingerprints: %v", err)
	}
	if len(fps) != 2 || fps[0].ScreenshotID != a.ID || fps[1].DuplicateOf == nil || *fps[1].DuplicateOf != a.ID {
		t.Fatalf("unexpected fingerprints %+v", fps)
	}
}
