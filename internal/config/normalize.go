package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeOCR()
	c.normalizeAI()
	c.normalizeWatcher()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	dirs, err := normalizeDirList(c.Paths.MonitoredDirs)
	if err != nil {
		return fmt.Errorf("paths.monitored_dirs: %w", err)
	}
	c.Paths.MonitoredDirs = dirs
	if strings.TrimSpace(c.Paths.ScreenshotsDir) == "" {
		c.Paths.ScreenshotsDir = defaultScreenshotsDir
	}
	if c.Paths.ScreenshotsDir, err = expandPath(c.Paths.ScreenshotsDir); err != nil {
		return fmt.Errorf("paths.screenshots_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DBPath) == "" {
		c.Paths.DBPath = defaultDBPath
	}
	if c.Paths.DBPath, err = expandPath(c.Paths.DBPath); err != nil {
		return fmt.Errorf("paths.db_path: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if c.Paths.APIToken == "" {
		if value, ok := os.LookupEnv("PIXLY_API_TOKEN"); ok {
			c.Paths.APIToken = strings.TrimSpace(value)
		}
	}
	return nil
}

// normalizeDirList expands and de-duplicates directory entries, keeping order.
func normalizeDirList(dirs []string) ([]string, error) {
	out := make([]string, 0, len(dirs))
	seen := make(map[string]struct{}, len(dirs))
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		expanded, err := expandPath(strings.TrimSpace(dir))
		if err != nil {
			return nil, err
		}
		if _, ok := seen[expanded]; ok {
			continue
		}
		seen[expanded] = struct{}{}
		out = append(out, expanded)
	}
	return out, nil
}

func (c *Config) normalizeOCR() {
	c.OCR.TesseractPath = strings.TrimSpace(c.OCR.TesseractPath)
	if c.OCR.TesseractPath == "" {
		if value, ok := os.LookupEnv("TESSERACT_PATH"); ok && strings.TrimSpace(value) != "" {
			c.OCR.TesseractPath = strings.TrimSpace(value)
		} else {
			c.OCR.TesseractPath = defaultTesseractPath
		}
	}
	c.OCR.Language = strings.TrimSpace(c.OCR.Language)
	if c.OCR.Language == "" {
		c.OCR.Language = defaultOCRLanguage
	}
	if c.OCR.TimeoutSeconds <= 0 {
		c.OCR.TimeoutSeconds = defaultOCRTimeoutSeconds
	}
}

func (c *Config) normalizeAI() {
	c.AI.Provider = strings.ToLower(strings.TrimSpace(c.AI.Provider))
	if c.AI.Provider == "" {
		c.AI.Provider = defaultAIProvider
	}
	c.AI.Model = strings.TrimSpace(c.AI.Model)
	c.AI.BaseURL = strings.TrimSpace(c.AI.BaseURL)
	c.AI.APIKey = strings.TrimSpace(c.AI.APIKey)
	switch c.AI.Provider {
	case ProviderGemini:
		if c.AI.Model == "" {
			c.AI.Model = defaultGeminiModel
		}
		if c.AI.APIKey == "" {
			if value, ok := os.LookupEnv("GEMINI_API_KEY"); ok {
				c.AI.APIKey = strings.TrimSpace(value)
			}
		}
	case ProviderOpenRouter:
		if c.AI.Model == "" {
			c.AI.Model = defaultOpenRouterModel
		}
		if c.AI.BaseURL == "" {
			c.AI.BaseURL = defaultOpenRouterBaseURL
		}
		if c.AI.APIKey == "" {
			if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
				c.AI.APIKey = strings.TrimSpace(value)
			}
		}
	}
	if c.AI.TimeoutSeconds <= 0 {
		c.AI.TimeoutSeconds = defaultAITimeoutSeconds
	}
}

func (c *Config) normalizeWatcher() {
	if c.Watcher.StabilityChecks <= 0 {
		c.Watcher.StabilityChecks = defaultStabilityChecks
	}
	if c.Pipeline.Workers <= 0 {
		c.Pipeline.Workers = defaultPipelineWorkers
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
