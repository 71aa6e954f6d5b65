package tesseract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"pixly/internal/imageinfo"
	"pixly/internal/services"
)

const defaultLanguage = "eng"

// Executor abstracts command execution for testability.
type Executor interface {
	Output(ctx context.Context, binary string, args []string) ([]byte, error)
}

// Option configures the engine.
type Option func(*Engine)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(e *Engine) {
		if exec != nil {
			e.exec = exec
		}
	}
}

// WithTempDir sets where intermediate PNGs are written. Defaults to os.TempDir.
func WithTempDir(dir string) Option {
	return func(e *Engine) {
		e.tempDir = strings.TrimSpace(dir)
	}
}

// Engine wraps tesseract CLI interactions.
type Engine struct {
	binary   string
	language string
	timeout  time.Duration
	tempDir  string
	exec     Executor
}

// New constructs a tesseract engine.
func New(binary, language string, timeout time.Duration, opts ...Option) (*Engine, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("tesseract binary required")
	}
	language = strings.TrimSpace(language)
	if language == "" {
		language = defaultLanguage
	}
	engine := &Engine{
		binary:   binary,
		language: language,
		timeout:  timeout,
		exec:     commandExecutor{},
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine, nil
}

// Recognize runs tesseract over img and returns the recognized text with the
// mean word confidence (0-100).
func (e *Engine) Recognize(ctx context.Context, img image.Image) (string, float64, error) {
	if img == nil {
		return "", 0, services.Wrap(services.ErrValidation, "ocr", "recognize", "nil image", nil)
	}
	tmp, err := os.CreateTemp(e.tempDir, "pixly-ocr-*.png")
	if err != nil {
		return "", 0, services.Wrap(services.ErrExternalTool, "ocr", "recognize", "create temp image", err)
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()
	defer os.Remove(tmpPath)

	if err := imageinfo.SavePNG(img, tmpPath); err != nil {
		return "", 0, services.Wrap(services.ErrExternalTool, "ocr", "recognize", "write temp image", err)
	}
	return e.RecognizeFile(ctx, tmpPath)
}

// RecognizeFile runs tesseract over an image already on disk.
func (e *Engine) RecognizeFile(ctx context.Context, path string) (string, float64, error) {
	runCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	args := []string{path, "stdout", "--oem", "3", "--psm", "6", "-l", e.language, "tsv"}
	out, err := e.exec.Output(runCtx, e.binary, args)
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return "", 0, services.Wrap(services.ErrTimeout, "ocr", "tesseract", fmt.Sprintf("timed out after %s", e.timeout), err)
		}
		return "", 0, services.Wrap(services.ErrExternalTool, "ocr", "tesseract", filepath.Base(path), err)
	}
	text, conf := ParseTSV(out)
	return text, conf, nil
}

// Version returns the first line of `tesseract --version`.
func (e *Engine) Version(ctx context.Context) (string, error) {
	out, err := e.exec.Output(ctx, e.binary, []string{"--version"})
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "ocr", "tesseract version", "", err)
	}
	line, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	return strings.TrimSpace(line), nil
}

type commandExecutor struct{}

func (commandExecutor) Output(ctx context.Context, binary string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}
