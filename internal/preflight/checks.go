package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"

	"pixly/internal/classifier"
	"pixly/internal/config"
	"pixly/internal/deps"
)

// MinFreeBytes is the free-space level below which a warning is reported.
const MinFreeBytes = 100 << 20

// CheckMonitoredDir verifies that a watched folder exists and can be listed.
// Missing folders are not fatal; the watcher skips them.
func CheckMonitoredDir(path string) Result {
	name := "Monitored " + path
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: "does not exist (will not be watched)"}
		}
		return Result{Name: name, Detail: fmt.Sprintf("stat: %v", err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: "is not a directory"}
	}
	if err := unix.Access(path, unix.R_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("not readable: %v", err)}
	}
	return Result{Name: name, Passed: true, Detail: "readable"}
}

// CheckWritableDir verifies that the directory exists or can be created and
// is writable. Failure is fatal.
func CheckWritableDir(name, path string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Fatal: true, Detail: "not configured"}
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return Result{Name: name, Fatal: true, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Fatal: true, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Fatal: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFreeSpace warns when the filesystem holding path has less than min
// bytes available.
func CheckFreeSpace(name, path string, min uint64) Result {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("statfs: %v", err)}
	}
	free := stat.Bavail * uint64(stat.Bsize)
	detail := humanize.IBytes(free) + " available"
	if free < min {
		return Result{Name: name, Detail: detail + " (low)"}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckTesseract verifies that the OCR engine is installed and runs.
func CheckTesseract(ctx context.Context, command string) Result {
	const name = "Tesseract"
	status := deps.CheckBinaries(ctx, []deps.Requirement{{
		Name:        name,
		Command:     command,
		Description: "Required for text extraction",
		VersionArgs: []string{"--version"},
	}})[0]
	if !status.Available {
		return Result{Name: name, Fatal: true, Detail: status.Detail + " (install tesseract-ocr or set ocr.tesseract_path)"}
	}
	return Result{Name: name, Passed: true, Fatal: true, Detail: status.Version}
}

// CheckAICredentials reports a fatal result when AI categorization is
// enabled without a key.
func CheckAICredentials(cfg *config.Config) Result {
	const name = "AI categorization"
	if !cfg.AI.Enabled {
		return Result{Name: name, Passed: true, Detail: "disabled (keyword rules only)"}
	}
	if err := cfg.ValidateAI(); err != nil {
		return Result{Name: name, Fatal: true, Detail: err.Error()}
	}
	return Result{Name: name, Passed: true, Fatal: true, Detail: fmt.Sprintf("%s (%s)", cfg.AI.Provider, cfg.AI.Model)}
}

type healthChecker interface {
	HealthCheck(context.Context) error
}

// CheckAIConnectivity makes one live call to the configured provider.
func CheckAIConnectivity(ctx context.Context, cfg *config.Config) Result {
	const name = "AI service"
	if !cfg.AI.Enabled {
		return Result{Name: name, Passed: true, Detail: "disabled"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	completer, err := classifier.NewCompleter(checkCtx, cfg)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	checker, ok := completer.(healthChecker)
	if !ok {
		return Result{Name: name, Passed: true, Detail: "configured"}
	}
	if err := checker.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeAIError(err)}
	}
	return Result{Name: name, Passed: true, Detail: completer.Name() + " reachable"}
}

func summarizeAIError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (AI service unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (AI service unreachable)"
	}
	return err.Error()
}
