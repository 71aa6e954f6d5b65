package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory, database, and bind address configuration.
type Paths struct {
	MonitoredDirs  []string `toml:"monitored_dirs"`
	ScreenshotsDir string   `toml:"screenshots_dir"`
	DBPath         string   `toml:"db_path"`
	LogDir         string   `toml:"log_dir"`
	APIBind        string   `toml:"api_bind"`
	APIToken       string   `toml:"api_token"`
}

// OCR contains configuration for the tesseract text extractor.
type OCR struct {
	TesseractPath  string  `toml:"tesseract_path"`
	Language       string  `toml:"language"`
	MinConfidence  float64 `toml:"min_confidence"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

// AI contains configuration for the external categorization service.
type AI struct {
	Enabled          bool    `toml:"enabled"`
	Provider         string  `toml:"provider"`
	Model            string  `toml:"model"`
	APIKey           string  `toml:"api_key"`
	BaseURL          string  `toml:"base_url"`
	RateLimitRPM     int     `toml:"rate_limit_rpm"`
	MinIntervalSecs  float64 `toml:"min_interval_seconds"`
	TimeoutSeconds   int     `toml:"timeout_seconds"`
	MinTextLength    int     `toml:"min_text_length"`
	MinOCRConfidence float64 `toml:"min_ocr_confidence"`
}

// Watcher contains timing and capacity settings for the change detector.
type Watcher struct {
	DebounceMS              int `toml:"debounce_ms"`
	StabilityIntervalMS     int `toml:"stability_interval_ms"`
	StabilityChecks         int `toml:"stability_checks"`
	StabilityTimeoutSeconds int `toml:"stability_timeout_seconds"`
	QueueCapacity           int `toml:"queue_capacity"`
}

// Pipeline contains configuration for the processing workers.
type Pipeline struct {
	Workers            int `toml:"workers"`
	DuplicateThreshold int `toml:"duplicate_threshold"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for Pixly.
//
// Configuration sections by subsystem:
//   - Paths: watched folders, organized output, database, logs, API bind
//   - OCR: tesseract binary and confidence threshold
//   - AI: categorization provider, credentials, and rate limit
//   - Watcher: debounce, stability polling, and queue capacity
//   - Pipeline: worker count and duplicate distance
//   - Logging: log format, level, and retention
type Config struct {
	Paths    Paths    `toml:"paths"`
	OCR      OCR      `toml:"ocr"`
	AI       AI       `toml:"ai"`
	Watcher  Watcher  `toml:"watcher"`
	Pipeline Pipeline `toml:"pipeline"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	loadDotEnv(filepath.Dir(resolvedPath))

	if exists {
		if err := decodeFile(resolvedPath, &cfg); err != nil {
			return nil, "", false, err
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func decodeFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	decoder := toml.NewDecoder(file)
	if err := decoder.Decode(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// loadDotEnv reads .env files from the working directory and the config
// directory. Existing environment variables always win.
func loadDotEnv(configDir string) {
	candidates := []string{".env"}
	if configDir != "" {
		candidates = append(candidates, filepath.Join(configDir, ".env"))
	}
	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err != nil || info.IsDir() {
			continue
		}
		_ = godotenv.Load(candidate)
	}
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("pixly.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
// Monitored directories are never created; a missing one is simply not watched.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.ScreenshotsDir, c.Paths.LogDir, filepath.Dir(c.Paths.DBPath)}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DebounceWindow returns the per-path quiet period required before a file is checked.
func (c *Config) DebounceWindow() time.Duration {
	return time.Duration(c.Watcher.DebounceMS) * time.Millisecond
}

// StabilityInterval returns the delay between size/mtime polls.
func (c *Config) StabilityInterval() time.Duration {
	return time.Duration(c.Watcher.StabilityIntervalMS) * time.Millisecond
}

// StabilityTimeout returns how long a file may keep changing before it is abandoned.
func (c *Config) StabilityTimeout() time.Duration {
	return time.Duration(c.Watcher.StabilityTimeoutSeconds) * time.Second
}

// AIMinInterval returns the minimum spacing between categorization calls.
// An explicit ai.min_interval_seconds wins; otherwise it is derived from the
// requests-per-minute budget (15 rpm is one call every 4s).
func (c *Config) AIMinInterval() time.Duration {
	if c.AI.MinIntervalSecs > 0 {
		return time.Duration(c.AI.MinIntervalSecs * float64(time.Second))
	}
	rpm := c.AI.RateLimitRPM
	if rpm <= 0 {
		rpm = defaultAIRateLimitRPM
	}
	return time.Minute / time.Duration(rpm)
}

// OCRTimeout returns the per-invocation tesseract timeout.
func (c *Config) OCRTimeout() time.Duration {
	return time.Duration(c.OCR.TimeoutSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
