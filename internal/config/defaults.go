package config

const (
	defaultProjectDir      = "~/.local/share/subtrans/projects"
	defaultLogDir          = "~/.local/share/subtrans/logs"
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
	defaultBaseURL         = "https://openrouter.ai/api/v1/chat/completions"
	defaultModel           = "google/gemini-3-flash-preview"
	defaultProvider        = "openrouter"
	defaultTimeoutSeconds  = 120
	defaultSceneGapSeconds = 30.0
	defaultMinBatchSize    = 10
	defaultMaxBatchSize    = 100
	defaultMaxRetries      = 2
	defaultRateLimitRPM    = 60
	defaultWorkerWidth     = 4
	defaultMaxContextLines = 10
	defaultMinLengthRatio  = 0.2
	defaultMaxLengthRatio  = 5.0
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ProjectDir: defaultProjectDir,
			LogDir:     defaultLogDir,
		},
		LLM: LLM{
			Provider:       defaultProvider,
			BaseURL:        defaultBaseURL,
			Model:          defaultModel,
			TimeoutSeconds: defaultTimeoutSeconds,
		},
		Translation: Translation{
			SceneGapSeconds: defaultSceneGapSeconds,
			MinBatchSize:    defaultMinBatchSize,
			MaxBatchSize:    defaultMaxBatchSize,
			MaxRetries:      defaultMaxRetries,
			RateLimitRPM:    defaultRateLimitRPM,
			WorkerWidth:     defaultWorkerWidth,
			MaxContextLines: defaultMaxContextLines,
			MinLengthRatio:  defaultMinLengthRatio,
			MaxLengthRatio:  defaultMaxLengthRatio,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
