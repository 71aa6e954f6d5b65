package organizer_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"pixly/internal/organizer"
	"pixly/internal/services"
	"pixly/internal/testsupport"
)

var placedAt = time.Date(2025, time.December, 7, 14, 30, 0, 0, time.Local)

func TestFileNameFormat(t *testing.T) {
	got := organizer.FileName(placedAt, "Login Error", "PNG")
	if got != "Screenshot_2025_Dec_7_login_error.png" {
		t.Fatalf("unexpected name %q", got)
	}
}

func TestFileNameTruncatesDescription(t *testing.T) {
	got := organizer.FileName(placedAt, strings.Repeat("abcdefghij", 6), "jpg")
	desc := strings.TrimSuffix(strings.TrimPrefix(got, "Screenshot_2025_Dec_7_"), ".jpg")
	if len(desc) != organizer.MaxNameDescription {
		t.Fatalf("expected %d character description, got %q", organizer.MaxNameDescription, desc)
	}
}

func TestDirectoryLayout(t *testing.T) {
	got := organizer.Directory("/lib", placedAt, "Errors")
	if got != filepath.Join("/lib", "2025", "December", "Errors") {
		t.Fatalf("unexpected directory %q", got)
	}
}

func TestPlaceMovesFile(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "inbox", "Screen Shot.PNG")
	testsupport.WriteFile(t, src, 128)
	placer := organizer.New(filepath.Join(base, "lib"), nil)

	placement, err := placer.Place(context.Background(), src, "Errors", "login error", placedAt)
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	want := filepath.Join(base, "lib", "2025", "December", "Errors", "Screenshot_2025_Dec_7_login_error.png")
	if placement.Path != want {
		t.Fatalf("expected %q, got %q", want, placement.Path)
	}
	if placement.Name != filepath.Base(want) {
		t.Fatalf("unexpected name %q", placement.Name)
	}
	if _, err := os.Stat(src); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected source removed, got %v", err)
	}
	if info, err := os.Stat(want); err != nil || info.Size() != 128 {
		t.Fatalf("expected destination with 128 bytes, got %v %v", info, err)
	}
}

func TestPlaceCollisionUsesNextCounter(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "lib")
	dir := organizer.Directory(root, placedAt, "Code")
	name := "Screenshot_2025_Dec_7_snippet"
	testsupport.WriteFile(t, filepath.Join(dir, name+".png"), 1)
	testsupport.WriteFile(t, filepath.Join(dir, name+"_2.png"), 1)
	testsupport.WriteFile(t, filepath.Join(dir, name+"_3.png"), 1)

	src := filepath.Join(base, "a.png")
	testsupport.WriteFile(t, src, 10)
	placement, err := organizer.New(root, nil).Place(context.Background(), src, "Code", "snippet", placedAt)
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	if placement.Name != name+"_4.png" {
		t.Fatalf("expected _4 suffix, got %q", placement.Name)
	}
}

func fillCounterNames(t *testing.T, dir, base string) {
	t.Helper()
	testsupport.WriteFile(t, filepath.Join(dir, base), 1)
	stem := strings.TrimSuffix(base, ".png")
	for n := 2; n <= organizer.MaxCounterSuffix; n++ {
		testsupport.WriteFile(t, filepath.Join(dir, fmt.Sprintf("%s_%d.png", stem, n)), 1)
	}
}

func TestResolveNameFallsBackToHashSuffix(t *testing.T) {
	dir := t.TempDir()
	base := "Screenshot_2025_Dec_7_x.png"
	fillCounterNames(t, dir, base)
	source := filepath.Join(t.TempDir(), "shot.png")
	testsupport.WritePNG(t, source, 40, 30, 1)

	got, err := organizer.ResolveName(dir, base, source)
	if err != nil {
		t.Fatalf("ResolveName: %v", err)
	}
	suffix := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(got), "Screenshot_2025_Dec_7_x_"), ".png")
	if len(suffix) != 6 {
		t.Fatalf("expected six character hash suffix, got %q", filepath.Base(got))
	}
	for _, r := range suffix {
		if !strings.ContainsRune("0123456789abcdef", r) {
			t.Fatalf("expected hex suffix, got %q", suffix)
		}
	}
	again, err := organizer.ResolveName(dir, base, source)
	if err != nil || again != got {
		t.Fatalf("expected deterministic hash suffix, got %q (%v)", again, err)
	}
}

func TestResolveNameHashSuffixVariesWithContent(t *testing.T) {
	dir := t.TempDir()
	base := "Screenshot_2025_Dec_7_image.png"
	fillCounterNames(t, dir, base)
	source := filepath.Join(t.TempDir(), "image.png")

	testsupport.WritePNG(t, source, 40, 30, 1)
	first, err := organizer.ResolveName(dir, base, source)
	if err != nil {
		t.Fatalf("ResolveName first: %v", err)
	}
	testsupport.WriteFile(t, first, 1)

	// Same source path again, different screenshot.
	testsupport.WritePNG(t, source, 40, 30, 2)
	second, err := organizer.ResolveName(dir, base, source)
	if err != nil {
		t.Fatalf("ResolveName for a recurring source name: %v", err)
	}
	if second == first {
		t.Fatalf("expected a new hash suffix, got %q twice", second)
	}
}

func TestPlaceMissingSource(t *testing.T) {
	placer := organizer.New(t.TempDir(), nil)
	_, err := placer.Place(context.Background(), filepath.Join(t.TempDir(), "gone.png"), "Other", "x", placedAt)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found marker, got %v", err)
	}
}

func TestPlaceConcurrentSameNameStaysUnique(t *testing.T) {
	base := t.TempDir()
	placer := organizer.New(filepath.Join(base, "lib"), nil)

	const n = 12
	sources := make([]string, n)
	for i := range sources {
		sources[i] = filepath.Join(base, "in", fmt.Sprintf("%02d.png", i))
		testsupport.WriteFile(t, sources[i], int64(i+1))
	}

	var wg sync.WaitGroup
	results := make([]organizer.Placement, n)
	errs := make([]error, n)
	for i := range sources {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = placer.Place(context.Background(), sources[i], "UI", "settings dialog", placedAt)
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for i := range results {
		if errs[i] != nil {
			t.Fatalf("Place %d: %v", i, errs[i])
		}
		if seen[results[i].Path] {
			t.Fatalf("duplicate destination %q", results[i].Path)
		}
		seen[results[i].Path] = true
	}
	entries, err := os.ReadDir(organizer.Directory(placer.Root(), placedAt, "UI"))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != n {
		t.Fatalf("expected %d files, got %d", n, len(entries))
	}
}
