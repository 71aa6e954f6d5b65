package config

const (
	defaultConfigPath              = "~/.config/pixly/config.toml"
	defaultScreenshotsDir          = "~/Screenshots"
	defaultDBPath                  = "~/.pixly/screenshots.db"
	defaultLogDir                  = "~/.pixly/logs"
	defaultAPIBind                 = "127.0.0.1:7878"
	defaultTesseractPath           = "tesseract"
	defaultOCRLanguage             = "eng"
	defaultOCRMinConfidence        = 60
	defaultOCRTimeoutSeconds       = 30
	defaultAIProvider              = ProviderGemini
	defaultGeminiModel             = "gemini-1.5-flash"
	defaultOpenRouterModel         = "google/gemini-flash-1.5"
	defaultOpenRouterBaseURL       = "https://openrouter.ai/api/v1/chat/completions"
	defaultAIRateLimitRPM          = 15
	defaultAITimeoutSeconds        = 30
	defaultAIMinTextLength         = 5
	defaultAIMinOCRConfidence      = 30
	defaultDebounceMS              = 500
	defaultStabilityIntervalMS     = 100
	defaultStabilityChecks         = 2
	defaultStabilityTimeoutSeconds = 10
	defaultQueueCapacity           = 100
	defaultPipelineWorkers         = 2
	defaultDuplicateThreshold      = 5
	defaultLogFormat               = "console"
	defaultLogLevel                = "info"
	defaultLogRetentionDays        = 30
)

// Supported categorization providers.
const (
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
)

func defaultMonitoredDirs() []string {
	return []string{"~/Desktop", "~/Pictures/Screenshots", "~/Downloads"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			MonitoredDirs:  defaultMonitoredDirs(),
			ScreenshotsDir: defaultScreenshotsDir,
			DBPath:         defaultDBPath,
			LogDir:         defaultLogDir,
			APIBind:        defaultAPIBind,
		},
		OCR: OCR{
			TesseractPath:  defaultTesseractPath,
			Language:       defaultOCRLanguage,
			MinConfidence:  defaultOCRMinConfidence,
			TimeoutSeconds: defaultOCRTimeoutSeconds,
		},
		AI: AI{
			Enabled:          true,
			Provider:         defaultAIProvider,
			RateLimitRPM:     defaultAIRateLimitRPM,
			TimeoutSeconds:   defaultAITimeoutSeconds,
			MinTextLength:    defaultAIMinTextLength,
			MinOCRConfidence: defaultAIMinOCRConfidence,
		},
		Watcher: Watcher{
			DebounceMS:              defaultDebounceMS,
			StabilityIntervalMS:     defaultStabilityIntervalMS,
			StabilityChecks:         defaultStabilityChecks,
			StabilityTimeoutSeconds: defaultStabilityTimeoutSeconds,
			QueueCapacity:           defaultQueueCapacity,
		},
		Pipeline: Pipeline{
			Workers:            defaultPipelineWorkers,
			DuplicateThreshold: defaultDuplicateThreshold,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
