package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pixly/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// AI categorization is disabled unless WithAIKey is supplied.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.MonitoredDirs = []string{filepath.Join(base, "inbox")}
	cfgVal.Paths.ScreenshotsDir = filepath.Join(base, "screenshots")
	cfgVal.Paths.DBPath = filepath.Join(base, "data", "screenshots.db")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.AI.Enabled = false
	cfgVal.AI.Model = "test-model"
	cfgVal.Watcher.DebounceMS = 50
	cfgVal.Watcher.StabilityIntervalMS = 10
	cfgVal.Watcher.StabilityTimeoutSeconds = 2

	if err := os.MkdirAll(cfgVal.Paths.MonitoredDirs[0], 0o755); err != nil {
		t.Fatalf("mkdir inbox: %v", err)
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithAIKey enables AI categorization with the given key.
func WithAIKey(key string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.AI.Enabled = true
		b.cfg.AI.APIKey = key
	}
}

// WithMonitoredDirs replaces the monitored directories, creating each one.
func WithMonitoredDirs(dirs ...string) ConfigOption {
	return func(b *configBuilder) {
		for _, dir := range dirs {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				b.t.Fatalf("mkdir %s: %v", dir, err)
			}
		}
		b.cfg.Paths.MonitoredDirs = append([]string(nil), dirs...)
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, tesseract is stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"tesseract"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// WithTesseractStub points ocr.tesseract_path at a fake tesseract whose Nth
// invocation prints words with confidences[N]; calls past the end repeat the
// last confidence.
func WithTesseractStub(words []string, confidences ...float64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.OCR.TesseractPath = WriteTesseractStub(b.t, filepath.Join(b.baseDir, "tesseract-stub"), words, confidences...)
	}
}

// WriteTesseractStub creates the fake tesseract described by WithTesseractStub
// in dir and returns the executable path.
func WriteTesseractStub(t testing.TB, dir string, words []string, confidences ...float64) string {
	t.Helper()
	if len(confidences) == 0 {
		confidences = []float64{90}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir stub dir: %v", err)
	}
	for idx, conf := range confidences {
		name := fmt.Sprintf("out_%d.tsv", idx)
		if err := os.WriteFile(filepath.Join(dir, name), []byte(TesseractTSV(conf, words...)), 0o644); err != nil {
			t.Fatalf("write stub output: %v", err)
		}
	}
	last := TesseractTSV(confidences[len(confidences)-1], words...)
	if err := os.WriteFile(filepath.Join(dir, "out_last.tsv"), []byte(last), 0o644); err != nil {
		t.Fatalf("write stub output: %v", err)
	}

	script := fmt.Sprintf(`#!/bin/sh
dir=%q
if [ "$1" = "--version" ]; then
  echo "tesseract 5.3.0"
  exit 0
fi
n=$(cat "$dir/count" 2>/dev/null || echo 0)
echo $((n+1)) > "$dir/count"
f="$dir/out_$n.tsv"
[ -f "$f" ] || f="$dir/out_last.tsv"
cat "$f"
`, dir)
	target := filepath.Join(dir, "tesseract")
	if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
		t.Fatalf("write tesseract stub: %v", err)
	}
	return target
}

// TesseractCalls returns how many times the stub in dir has run.
func TesseractCalls(t testing.TB, stubPath string) int {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(filepath.Dir(stubPath), "count"))
	if err != nil {
		return 0
	}
	var n int
	if _, err := fmt.Sscanf(strings.TrimSpace(string(data)), "%d", &n); err != nil {
		t.Fatalf("parse stub count: %v", err)
	}
	return n
}

// TesseractTSV renders tesseract TSV output with every word on one line at
// the given confidence.
func TesseractTSV(conf float64, words ...string) string {
	var b strings.Builder
	b.WriteString("level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext\n")
	b.WriteString("1\t1\t0\t0\t0\t0\t0\t0\t100\t100\t-1\t\n")
	for idx, word := range words {
		fmt.Fprintf(&b, "5\t1\t1\t1\t1\t%d\t%d\t0\t10\t10\t%.2f\t%s\n", idx+1, idx*12, conf, word)
	}
	return b.String()
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.ScreenshotsDir)
}
