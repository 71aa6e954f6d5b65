package daemon_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pixly/internal/config"
	"pixly/internal/daemon"
	"pixly/internal/pipeline"
	"pixly/internal/stage"
	"pixly/internal/testsupport"
)

func newDaemon(t *testing.T, cfg *config.Config) *daemon.Daemon {
	t.Helper()
	st := testsupport.MustOpenStore(t, cfg)
	metrics := pipeline.NewMetrics()
	processor, err := pipeline.NewFromConfig(context.Background(), cfg, st, metrics, nil)
	if err != nil {
		t.Fatalf("pipeline.NewFromConfig: %v", err)
	}
	ocrCheck := stage.CheckerFunc(func(context.Context) stage.Health { return stage.Healthy("ocr") })
	d, err := daemon.New(cfg, st, processor, metrics, nil, ocrCheck)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		d.Close()
	})
	return d
}

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithTesseractStub([]string{"hello"}))
	d := newDaemon(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	status := d.Status(ctx)
	if !status.Running || !status.Pipeline.Running {
		t.Fatalf("expected daemon to report running, got %+v", status)
	}
	if len(status.Watched) != 1 || status.Watched[0] != cfg.Paths.MonitoredDirs[0] {
		t.Fatalf("unexpected watched dirs %v", status.Watched)
	}
	if d.APIAddress() == "" {
		t.Fatal("expected API listener")
	}
	names := make([]string, 0, len(status.Health))
	for _, h := range status.Health {
		names = append(names, h.Name)
		if !h.Ready {
			t.Fatalf("expected %s ready, got %s", h.Name, h.Detail)
		}
	}
	if strings.Join(names, ",") != "ocr,pipeline,store,watcher" {
		t.Fatalf("unexpected health components %v", names)
	}

	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	d.Stop()
	status = d.Status(ctx)
	if status.Running {
		t.Fatal("expected daemon to be stopped")
	}
}

func TestDaemonSingleInstanceLock(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithTesseractStub([]string{"hello"}))
	first := newDaemon(t, cfg)
	ctx := context.Background()
	if err := first.Start(ctx); err != nil {
		t.Fatalf("first Start: %v", err)
	}

	secondCfg := *cfg
	secondCfg.Paths.DBPath = filepath.Join(testsupport.BaseDir(cfg), "other.db")
	second := newDaemon(t, &secondCfg)
	err := second.Start(ctx)
	if err == nil || !strings.Contains(err.Error(), "already running") {
		t.Fatalf("expected lock failure, got %v", err)
	}

	first.Stop()
	if err := second.Start(ctx); err != nil {
		t.Fatalf("expected start after release, got %v", err)
	}
	second.Stop()
}

func TestDaemonProcessesNewScreenshot(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithTesseractStub([]string{"def", "main():", "return"}, 88))
	d := newDaemon(t, cfg)
	ctx := context.Background()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()

	src := filepath.Join(cfg.Paths.MonitoredDirs[0], "Screenshot 1.png")
	testsupport.WritePNG(t, src, 120, 80, 5)

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if d.Status(ctx).Pipeline.Processed == 1 {
			break
		}
		time.Sleep(25 * time.Millisecond)
	}
	status := d.Status(ctx)
	if status.Pipeline.Processed != 1 {
		t.Fatalf("expected one processed screenshot, got %+v", status.Pipeline)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatalf("expected source moved, got %v", err)
	}
	matches, err := filepath.Glob(filepath.Join(cfg.Paths.ScreenshotsDir, "*", "*", "Code", "Screenshot_*_code_content.png"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("expected one placed file, got %v (%v)", matches, err)
	}
}
