// Package testsupport provides shared fixtures for package tests.
package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"subtrans/internal/config"
	"subtrans/internal/subtitle"
)

// ConfigOption customizes the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.LLM.APIKey = "test-key"
	cfg.Translation.TargetLanguage = "Spanish"
	cfg.Paths.ProjectDir = filepath.Join(base, "projects")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithTargetLanguage overrides the target language on the test config.
func WithTargetLanguage(lang string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Translation.TargetLanguage = lang
	}
}

// WithBatchSizes overrides the batch bounds on the test config.
func WithBatchSizes(minSize, maxSize int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Translation.MinBatchSize = minSize
		cfg.Translation.MaxBatchSize = maxSize
	}
}

// Lines produces count subtitle lines, 3 seconds apart, with a long break
// before each multiple of breakEvery (0 disables breaks).
func Lines(count, breakEvery int) []subtitle.Line {
	lines := make([]subtitle.Line, 0, count)
	var cursor time.Duration
	for i := 1; i <= count; i++ {
		if breakEvery > 0 && i > 1 && (i-1)%breakEvery == 0 {
			cursor += 60 * time.Second
		}
		lines = append(lines, subtitle.Line{
			Number: i,
			Start:  cursor,
			End:    cursor + 2*time.Second,
			Text:   fmt.Sprintf("Line %d.", i),
		})
		cursor += 3 * time.Second
	}
	return lines
}

// WriteSRT writes an SRT document for the given lines and returns its path.
func WriteSRT(t testing.TB, dir string, lines []subtitle.Line) string {
	t.Helper()

	handler := subtitle.SRTHandler{}
	content, err := handler.Compose(lines, subtitle.DocumentMeta{Newline: "\n"})
	if err != nil {
		t.Fatalf("compose srt: %v", err)
	}
	path := filepath.Join(dir, "movie.srt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write srt: %v", err)
	}
	return path
}
