package dedup_test

import (
	"context"
	"image"
	"image/color"
	"math/rand/v2"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"pixly/internal/dedup"
	"pixly/internal/store"
	"pixly/internal/testsupport"
)

func blockNoise(seed uint64) image.Image {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	img := image.NewGray(image.Rect(0, 0, 256, 256))
	for by := 0; by < 256; by += 16 {
		for bx := 0; bx < 256; bx += 16 {
			v := uint8(rng.IntN(256))
			for y := by; y < by+16; y++ {
				for x := bx; x < bx+16; x++ {
					img.SetGray(x, y, color.Gray{Y: v})
				}
			}
		}
	}
	return img
}

func TestFingerprintStringRoundTrip(t *testing.T) {
	fp := dedup.Fingerprint(0xab)
	if fp.String() != "00000000000000ab" {
		t.Fatalf("unexpected rendering %q", fp.String())
	}
	parsed, err := dedup.ParseFingerprint(fp.String())
	if err != nil || parsed != fp {
		t.Fatalf("ParseFingerprint: %v %v", parsed, err)
	}
}

func TestDistance(t *testing.T) {
	if d := dedup.Distance(0b1011, 0b0001); d != 2 {
		t.Fatalf("expected distance 2, got %d", d)
	}
	if d := dedup.Distance(42, 42); d != 0 {
		t.Fatalf("expected distance 0, got %d", d)
	}
}

func TestIdenticalCopyHasZeroDistance(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b.png")
	testsupport.WritePNG(t, a, 320, 200, 3)
	testsupport.WritePNG(t, b, 320, 200, 3)

	fa, err := dedup.FingerprintFile(context.Background(), a)
	if err != nil {
		t.Fatalf("fingerprint a: %v", err)
	}
	fb, err := dedup.FingerprintFile(context.Background(), b)
	if err != nil {
		t.Fatalf("fingerprint b: %v", err)
	}
	if dedup.Distance(fa, fb) != 0 {
		t.Fatalf("expected identical fingerprints, got %s vs %s", fa, fb)
	}
}

func TestRecompressedJPEGIsDuplicate(t *testing.T) {
	dir := t.TempDir()
	png := filepath.Join(dir, "a.png")
	jpg := filepath.Join(dir, "a.jpg")
	testsupport.WritePNG(t, png, 320, 200, 3)
	testsupport.WriteJPEG(t, jpg, 320, 200, 3, 85)

	fa, err := dedup.FingerprintFile(context.Background(), png)
	if err != nil {
		t.Fatalf("fingerprint png: %v", err)
	}
	fb, err := dedup.FingerprintFile(context.Background(), jpg)
	if err != nil {
		t.Fatalf("fingerprint jpg: %v", err)
	}
	if d := dedup.Distance(fa, fb); d > dedup.DefaultThreshold {
		t.Fatalf("expected recompressed copy within threshold, distance %d", d)
	}
}

func TestDifferentImagesAreNotDuplicates(t *testing.T) {
	fa, err := dedup.Compute(blockNoise(1))
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	fb, err := dedup.Compute(blockNoise(2))
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if d := dedup.Distance(fa, fb); d <= dedup.DefaultThreshold {
		t.Fatalf("expected distinct fingerprints, distance %d", d)
	}
	dup, _ := dedup.IsDuplicate(fa, []store.Fingerprint{{ScreenshotID: 1, Hash: fb.String()}})
	if dup {
		t.Fatal("expected no duplicate verdict")
	}
}

func TestIsDuplicateReturnsFirstMatch(t *testing.T) {
	fp := dedup.Fingerprint(0xff00)
	existing := []store.Fingerprint{
		{ScreenshotID: 1, Hash: dedup.Fingerprint(0x00ff).String()},
		{ScreenshotID: 2, Hash: "not-hex"},
		{ScreenshotID: 3, Hash: dedup.Fingerprint(0xff03).String()},
		{ScreenshotID: 4, Hash: fp.String()},
	}
	dup, id := dedup.IsDuplicate(fp, existing)
	if !dup || id != 3 {
		t.Fatalf("expected match with 3, got %v %d", dup, id)
	}
}

func TestDetectorCheckMarksDuplicate(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	first := testsupport.InsertRecord(t, st, "first.png", "UI", "settings")
	second := testsupport.InsertRecord(t, st, "second.png", "UI", "settings")

	dir := t.TempDir()
	a := filepath.Join(dir, "first.png")
	b := filepath.Join(dir, "second.png")
	testsupport.WritePNG(t, a, 200, 120, 6)
	testsupport.WritePNG(t, b, 200, 120, 6)

	detector := dedup.NewDetector(st, 0, nil)
	ctx := context.Background()
	verdict, err := detector.Check(ctx, first.ID, a)
	if err != nil {
		t.Fatalf("Check first: %v", err)
	}
	if verdict.Duplicate {
		t.Fatal("first image should not be a duplicate")
	}
	verdict, err = detector.Check(ctx, second.ID, b)
	if err != nil {
		t.Fatalf("Check second: %v", err)
	}
	if !verdict.Duplicate || verdict.DuplicateOf != first.ID {
		t.Fatalf("expected duplicate of %d, got %+v", first.ID, verdict)
	}

	rec, err := st.GetByID(ctx, second.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !rec.IsDuplicate || rec.DuplicateOf == nil || *rec.DuplicateOf != first.ID {
		t.Fatalf("expected record flagged as duplicate, got %+v", rec)
	}
	fps, err := st.Fingerprints(ctx)
	if err != nil {
		t.Fatalf("Fingerprints: %v", err)
	}
	if len(fps) != 2 || fps[1].DuplicateOf == nil || *fps[1].DuplicateOf != first.ID {
		t.Fatalf("unexpected fingerprints %+v", fps)
	}
}

// overlappingStore holds each fingerprint read open until a second reader
// arrives or the window passes, so unsynchronized checks would both read
// before either writes.
type overlappingStore struct {
	*store.Store
	window  time.Duration
	mu      sync.Mutex
	readers int
	arrived chan struct{}
}

func (s *overlappingStore) Fingerprints(ctx context.Context) ([]store.Fingerprint, error) {
	fps, err := s.Store.Fingerprints(ctx)
	s.mu.Lock()
	s.readers++
	if s.readers == 2 {
		close(s.arrived)
	}
	s.mu.Unlock()
	select {
	case <-s.arrived:
	case <-time.After(s.window):
	}
	return fps, err
}

func TestDetectorConcurrentChecksFlagOneDuplicate(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	first := testsupport.InsertRecord(t, st, "a.png", "UI", "settings")
	second := testsupport.InsertRecord(t, st, "b.png", "UI", "settings")

	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b.png")
	testsupport.WritePNG(t, a, 200, 120, 11)
	testsupport.WritePNG(t, b, 200, 120, 11)

	wrapped := &overlappingStore{Store: st, window: 200 * time.Millisecond, arrived: make(chan struct{})}
	detector := dedup.NewDetector(wrapped, 0, nil)

	var wg sync.WaitGroup
	verdicts := make([]dedup.Verdict, 2)
	errs := make([]error, 2)
	for i, job := range []struct {
		id   int64
		path string
	}{{first.ID, a}, {second.ID, b}} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			verdicts[i], errs[i] = detector.Check(context.Background(), job.id, job.path)
		}()
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("Check %d: %v", i, err)
		}
	}
	if verdicts[0].Duplicate == verdicts[1].Duplicate {
		t.Fatalf("expected exactly one of two identical screenshots flagged, got %+v", verdicts)
	}
	fps, err := st.Fingerprints(context.Background())
	if err != nil {
		t.Fatalf("Fingerprints: %v", err)
	}
	if len(fps) != 2 {
		t.Fatalf("expected 2 fingerprints, got %d", len(fps))
	}
}
