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
	if err := c.normalizeInstructions(); err != nil {
		return err
	}
	c.normalizeLLM()
	c.normalizeTranslation()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.ProjectDir) == "" {
		c.Paths.ProjectDir = defaultProjectDir
	}
	if c.Paths.ProjectDir, err = expandPath(c.Paths.ProjectDir); err != nil {
		return fmt.Errorf("paths.project_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLLM() {
	if key, ok := os.LookupEnv("SUBTRANS_API_KEY"); ok && strings.TrimSpace(c.LLM.APIKey) == "" {
		c.LLM.APIKey = key
	}
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultModel
	}
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	if c.LLM.Provider == "" {
		c.LLM.Provider = defaultProvider
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultTimeoutSeconds
	}
}

func (c *Config) normalizeTranslation() {
	t := &c.Translation
	t.TargetLanguage = strings.TrimSpace(t.TargetLanguage)
	t.MovieName = strings.TrimSpace(t.MovieName)
	t.Description = strings.TrimSpace(t.Description)
	names := t.Names[:0]
	for _, name := range t.Names {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			names = append(names, trimmed)
		}
	}
	t.Names = names
	if t.SceneGapSeconds <= 0 {
		t.SceneGapSeconds = defaultSceneGapSeconds
	}
	if t.MinBatchSize <= 0 {
		t.MinBatchSize = defaultMinBatchSize
	}
	if t.MaxBatchSize <= 0 {
		t.MaxBatchSize = defaultMaxBatchSize
	}
	if t.MaxRetries < 0 {
		t.MaxRetries = defaultMaxRetries
	}
	if t.RateLimitRPM < 0 {
		t.RateLimitRPM = 0
	}
	if t.WorkerWidth <= 0 {
		t.WorkerWidth = defaultWorkerWidth
	}
	if t.MaxContextLines <= 0 {
		t.MaxContextLines = defaultMaxContextLines
	}
	if t.MinLengthRatio <= 0 {
		t.MinLengthRatio = defaultMinLengthRatio
	}
	if t.MaxLengthRatio <= 0 {
		t.MaxLengthRatio = defaultMaxLengthRatio
	}
}

func (c *Config) normalizeInstructions() error {
	if c.Instructions.InstructionFile == "" {
		return nil
	}
	expanded, err := expandPath(c.Instructions.InstructionFile)
	if err != nil {
		return fmt.Errorf("instructions.instruction_file: %w", err)
	}
	c.Instructions.InstructionFile = expanded
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
