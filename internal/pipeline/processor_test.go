package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"pixly/internal/classifier"
	"pixly/internal/dedup"
	"pixly/internal/ocr"
	"pixly/internal/organizer"
	"pixly/internal/pipeline"
	"pixly/internal/services"
	"pixly/internal/store"
	"pixly/internal/testsupport"
)

type fakeExtractor struct{ result ocr.Result }

func (f fakeExtractor) Extract(ctx context.Context, path string) ocr.Result { return f.result }

type fakeClassifier struct{ result classifier.Result }

func (f fakeClassifier) Classify(ctx context.Context, text string, conf float64) classifier.Result {
	return f.result
}

type failingPlacer struct{ err error }

func (f failingPlacer) Place(ctx context.Context, source, category, description string, ts time.Time) (organizer.Placement, error) {
	return organizer.Placement{}, f.err
}

type failingStore struct{}

func (failingStore) Insert(ctx context.Context, rec *store.Record) (int64, error) {
	return 0, errors.New("database is locked")
}

func (failingStore) HasPath(ctx context.Context, path string) (bool, error) { return false, nil }

type failingDedup struct{}

func (failingDedup) Check(ctx context.Context, id int64, path string) (dedup.Verdict, error) {
	return dedup.Verdict{}, errors.New("decode failed")
}

func fakeDeps(t *testing.T, root string, st pipeline.RecordStore) pipeline.Dependencies {
	t.Helper()
	return pipeline.Dependencies{
		Extractor: fakeExtractor{result: ocr.Result{Text: "Traceback: boom", Confidence: 80}},
		Classifier: fakeClassifier{result: classifier.Result{
			Category:    classifier.CategoryErrors,
			Description: "python_traceback",
			Tags:        []string{"python"},
			Confidence:  0.9,
			Source:      classifier.SourceAI,
		}},
		Placer: organizer.New(root, nil),
		Store:  st,
	}
}

func TestProcessEndToEndWithTesseractStub(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithTesseractStub([]string{"Traceback", "error", "in", "main"}, 90))
	st := testsupport.MustOpenStore(t, cfg)
	metrics := pipeline.NewMetrics()
	processor, err := pipeline.NewFromConfig(context.Background(), cfg, st, metrics, nil)
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}

	src := filepath.Join(cfg.Paths.MonitoredDirs[0], "Screenshot 2025-01-02.png")
	testsupport.WritePNG(t, src, 300, 200, 1)

	outcome := processor.Process(context.Background(), src)
	if outcome.Err != nil || outcome.State != pipeline.StateDone {
		t.Fatalf("expected done, got %s (%v)", outcome.State, outcome.Err)
	}
	if outcome.Classification.Category != classifier.CategoryErrors || outcome.Classification.Source != classifier.SourceFallback {
		t.Fatalf("unexpected classification %+v", outcome.Classification)
	}
	if !strings.HasPrefix(outcome.Placement.Path, cfg.Paths.ScreenshotsDir) || !strings.Contains(outcome.Placement.Path, string(filepath.Separator)+"Errors"+string(filepath.Separator)) {
		t.Fatalf("unexpected destination %q", outcome.Placement.Path)
	}
	if !strings.HasSuffix(outcome.Placement.Name, "_errors_content.png") {
		t.Fatalf("unexpected name %q", outcome.Placement.Name)
	}
	if _, err := os.Stat(src); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected source moved, got %v", err)
	}

	rec, err := st.GetByID(context.Background(), outcome.RecordID)
	if err != nil || rec == nil {
		t.Fatalf("GetByID: %v %v", rec, err)
	}
	if rec.OriginalName != "Screenshot 2025-01-02.png" || rec.FilePath != outcome.Placement.Path {
		t.Fatalf("unexpected record %+v", rec)
	}
	if rec.Width != 300 || rec.Height != 200 || rec.OCRText != "Traceback error in main" {
		t.Fatalf("unexpected record details %+v", rec)
	}
	results, err := st.Search(context.Background(), "traceback", 10)
	if err != nil || len(results) != 1 {
		t.Fatalf("expected searchable record, got %d (%v)", len(results), err)
	}

	count, err := testutil.GatherAndCount(metrics.Registry(), "pixly_pipeline_files_total")
	if err != nil || count != 1 {
		t.Fatalf("expected one files_total series, got %d (%v)", count, err)
	}
}

func TestProcessMissingFileErrorsAtReceive(t *testing.T) {
	deps := fakeDeps(t, t.TempDir(), failingStore{})
	outcome := pipeline.NewProcessor(deps, nil, nil).Process(context.Background(), filepath.Join(t.TempDir(), "nope.png"))
	if outcome.State != pipeline.StateErrored || outcome.FailedStage != pipeline.StageReceive {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if !errors.Is(outcome.Err, services.ErrNotFound) {
		t.Fatalf("expected not found marker, got %v", outcome.Err)
	}
}

func TestProcessPlacementFailurePreservesSource(t *testing.T) {
	src := filepath.Join(t.TempDir(), "a.png")
	testsupport.WritePNG(t, src, 20, 20, 1)
	deps := fakeDeps(t, t.TempDir(), failingStore{})
	deps.Placer = failingPlacer{err: services.Wrap(services.ErrExternalTool, "place", "move", "disk full", nil)}

	outcome := pipeline.NewProcessor(deps, nil, nil).Process(context.Background(), src)
	if outcome.State != pipeline.StateErrored || outcome.FailedStage != pipeline.StagePlace {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if _, err := os.Stat(src); err != nil {
		t.Fatalf("expected source preserved: %v", err)
	}
}

func TestProcessPersistFailureReportsNewLocation(t *testing.T) {
	src := filepath.Join(t.TempDir(), "a.png")
	testsupport.WritePNG(t, src, 20, 20, 1)
	deps := fakeDeps(t, t.TempDir(), failingStore{})

	outcome := pipeline.NewProcessor(deps, nil, nil).Process(context.Background(), src)
	if outcome.State != pipeline.StateErrored || outcome.FailedStage != pipeline.StagePersist {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if !strings.Contains(outcome.Err.Error(), outcome.Placement.Path) {
		t.Fatalf("expected error to mention %q, got %v", outcome.Placement.Path, outcome.Err)
	}
	if _, err := os.Stat(outcome.Placement.Path); err != nil {
		t.Fatalf("expected file at new location: %v", err)
	}
}

func TestProcessDedupFailureStillCompletes(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	src := filepath.Join(t.TempDir(), "a.png")
	testsupport.WritePNG(t, src, 20, 20, 1)
	deps := fakeDeps(t, cfg.Paths.ScreenshotsDir, st)
	deps.Dedup = failingDedup{}

	outcome := pipeline.NewProcessor(deps, nil, nil).Process(context.Background(), src)
	if outcome.State != pipeline.StateDone || outcome.Err != nil {
		t.Fatalf("expected done despite dedup failure, got %+v", outcome)
	}
}

func TestProcessFlagsDuplicate(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	deps := fakeDeps(t, cfg.Paths.ScreenshotsDir, st)
	deps.Dedup = dedup.NewDetector(st, 5, nil)
	processor := pipeline.NewProcessor(deps, nil, nil)

	dir := t.TempDir()
	first := filepath.Join(dir, "first.png")
	second := filepath.Join(dir, "second.jpg")
	testsupport.WritePNG(t, first, 200, 150, 9)
	testsupport.WriteJPEG(t, second, 200, 150, 9, 90)

	a := processor.Process(context.Background(), first)
	b := processor.Process(context.Background(), second)
	if a.State != pipeline.StateDone || b.State != pipeline.StateDone {
		t.Fatalf("expected both done: %+v %+v", a, b)
	}
	if a.Duplicate {
		t.Fatal("first file flagged as duplicate")
	}
	if !b.Duplicate || b.DuplicateOf != a.RecordID {
		t.Fatalf("expected second to duplicate %d, got %+v", a.RecordID, b)
	}
}

func TestProcessCancelledBeforePlacementLeavesSource(t *testing.T) {
	src := filepath.Join(t.TempDir(), "a.png")
	testsupport.WritePNG(t, src, 20, 20, 1)
	deps := fakeDeps(t, t.TempDir(), failingStore{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome := pipeline.NewProcessor(deps, nil, nil).Process(ctx, src)
	if outcome.State != pipeline.StateErrored || !errors.Is(outcome.Err, context.Canceled) {
		t.Fatalf("expected cancelled outcome, got %+v", outcome)
	}
	if _, err := os.Stat(src); err != nil {
		t.Fatalf("expected source untouched: %v", err)
	}
}
