package config

import (
	"errors"
	"fmt"
	"os"

	"subtrans/internal/language"
)

// Validate ensures the configuration is usable. Violations here are
// configuration errors: they surface at startup, never per batch.
func (c *Config) Validate() error {
	if err := c.validateTranslation(); err != nil {
		return err
	}
	if err := c.validateInstructions(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateTranslation() error {
	t := c.Translation
	if t.MaxBatchSize < t.MinBatchSize {
		return fmt.Errorf("translation.max_batch_size (%d) must not be less than translation.min_batch_size (%d)", t.MaxBatchSize, t.MinBatchSize)
	}
	if t.TargetLanguage != "" {
		if _, err := language.Resolve(t.TargetLanguage); err != nil {
			return fmt.Errorf("translation.target_language: %w", err)
		}
	}
	if t.MinLengthRatio >= t.MaxLengthRatio {
		return fmt.Errorf("translation.min_length_ratio (%.2f) must be less than translation.max_length_ratio (%.2f)", t.MinLengthRatio, t.MaxLengthRatio)
	}
	return nil
}

func (c *Config) validateInstructions() error {
	if c.Instructions.InstructionFile == "" {
		return nil
	}
	info, err := os.Stat(c.Instructions.InstructionFile)
	if err != nil {
		return fmt.Errorf("instructions.instruction_file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("instructions.instruction_file %q is a directory", c.Instructions.InstructionFile)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return errors.New("logging.level must be one of debug, info, warn, error")
	}
}
