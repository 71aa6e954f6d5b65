package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable. Missing AI credentials are
// reported separately by ValidateAI so read-only commands (search, stats) keep
// working without a key.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateOCR(); err != nil {
		return err
	}
	if err := c.validateAISettings(); err != nil {
		return err
	}
	if err := c.validateWatcher(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	return c.validateLogging()
}

// ValidateAI reports a configuration-fatal error when AI categorization is
// enabled but no credential is available. Callers that start processing must
// check it before any file is touched.
func (c *Config) ValidateAI() error {
	if !c.AI.Enabled {
		return nil
	}
	if strings.TrimSpace(c.AI.APIKey) != "" {
		return nil
	}
	envVar := "GEMINI_API_KEY"
	if c.AI.Provider == ProviderOpenRouter {
		envVar = "OPENROUTER_API_KEY"
	}
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = defaultConfigPath
	}
	return fmt.Errorf("ai.api_key is required when ai.enabled is true. Set %s, edit %s, or set ai.enabled = false for keyword-only categorization", envVar, defaultPath)
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.ScreenshotsDir) == "" {
		return errors.New("paths.screenshots_dir must be set")
	}
	if strings.TrimSpace(c.Paths.DBPath) == "" {
		return errors.New("paths.db_path must be set")
	}
	for _, dir := range c.Paths.MonitoredDirs {
		if dir == c.Paths.ScreenshotsDir {
			return fmt.Errorf("paths.monitored_dirs must not include paths.screenshots_dir (%s)", dir)
		}
	}
	return nil
}

func (c *Config) validateOCR() error {
	if c.OCR.MinConfidence < 0 || c.OCR.MinConfidence > 100 {
		return errors.New("ocr.min_confidence must be between 0 and 100")
	}
	return nil
}

func (c *Config) validateAISettings() error {
	switch c.AI.Provider {
	case ProviderGemini, ProviderOpenRouter:
	default:
		return fmt.Errorf("ai.provider: unsupported value %q (expected %q or %q)", c.AI.Provider, ProviderGemini, ProviderOpenRouter)
	}
	if c.AI.RateLimitRPM <= 0 {
		return errors.New("ai.rate_limit_rpm must be positive")
	}
	if c.AI.MinIntervalSecs < 0 {
		return errors.New("ai.min_interval_seconds must not be negative")
	}
	if c.AI.MinTextLength < 0 {
		return errors.New("ai.min_text_length must not be negative")
	}
	if c.AI.MinOCRConfidence < 0 || c.AI.MinOCRConfidence > 100 {
		return errors.New("ai.min_ocr_confidence must be between 0 and 100")
	}
	return nil
}

func (c *Config) validateWatcher() error {
	return ensurePositiveMap(map[string]int{
		"watcher.debounce_ms":               c.Watcher.DebounceMS,
		"watcher.stability_interval_ms":     c.Watcher.StabilityIntervalMS,
		"watcher.stability_timeout_seconds": c.Watcher.StabilityTimeoutSeconds,
		"watcher.queue_capacity":            c.Watcher.QueueCapacity,
	})
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.DuplicateThreshold < 0 || c.Pipeline.DuplicateThreshold > 64 {
		return errors.New("pipeline.duplicate_threshold must be between 0 and 64")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
