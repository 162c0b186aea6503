package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"subtrans/internal/events"
	"subtrans/internal/segment"
	"subtrans/internal/testsupport"
)

func TestConfigInitAndValidate(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "config.toml")

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"config", "init", "--path", target})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out.String(), target) {
		t.Fatalf("init output missing path: %s", out.String())
	}

	cmd = newRootCommand()
	out.Reset()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"config", "validate", "--config", target})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("config validate: %v", err)
	}
	if !strings.Contains(out.String(), "is valid") {
		t.Fatalf("validate output: %s", out.String())
	}
}

func TestConfigInitRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "config.toml")

	for i := 0; i < 2; i++ {
		cmd := newRootCommand()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{"config", "init", "--path", target})
		err := cmd.Execute()
		if i == 0 && err != nil {
			t.Fatalf("first init: %v", err)
		}
		if i == 1 {
			if err == nil || !strings.Contains(err.Error(), "already exists") {
				t.Fatalf("second init = %v, want already-exists error", err)
			}
		}
	}
}

func TestProjectPath(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	got, err := projectPath(cfg, "/media/movie.srt", "")
	if err != nil {
		t.Fatalf("projectPath: %v", err)
	}
	want := filepath.Join(cfg.Paths.ProjectDir, "movie.subtrans.db")
	if got != want {
		t.Fatalf("projectPath = %q, want %q", got, want)
	}

	explicit := filepath.Join(t.TempDir(), "state.db")
	got, err = projectPath(cfg, "/media/movie.srt", explicit)
	if err != nil {
		t.Fatalf("projectPath with flag: %v", err)
	}
	if got != explicit {
		t.Fatalf("projectPath with flag = %q, want %q", got, explicit)
	}
}

func TestRunTranslationRequiresLanguage(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithTargetLanguage(""))
	input := testsupport.WriteSRT(t, t.TempDir(), testsupport.Lines(4, 0))

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	err := runTranslation(cmd, cfg, runOptions{inputPath: input})
	if err == nil || !strings.Contains(err.Error(), "no target language") {
		t.Fatalf("err = %v, want missing-language error", err)
	}
}

func TestRunTranslationUnknownProvider(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithBatchSizes(2, 3))
	cfg.LLM.Provider = "nope"
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	input := testsupport.WriteSRT(t, t.TempDir(), testsupport.Lines(4, 0))

	cmd := &cobra.Command{}
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetContext(context.Background())
	err := runTranslation(cmd, cfg, runOptions{inputPath: input})
	if err == nil || !strings.Contains(err.Error(), "unknown provider") {
		t.Fatalf("err = %v, want unknown-provider error", err)
	}
}

func TestDefaultOutputPath(t *testing.T) {
	got := defaultOutputPath("/media/movie.srt", "es")
	if got != "/media/movie.es.srt" {
		t.Fatalf("output path = %q", got)
	}
	got = defaultOutputPath("/media/movie.srt", "pt-BR")
	if got != "/media/movie.pt-BR.srt" {
		t.Fatalf("output path = %q", got)
	}
}

func TestMaskSecret(t *testing.T) {
	if got := maskSecret(""); got != "(unset)" {
		t.Fatalf("empty = %q", got)
	}
	if got := maskSecret("short"); got != "****" {
		t.Fatalf("short = %q", got)
	}
	if got := maskSecret("sk-or-1234567890abcd"); got != "sk-o...abcd" {
		t.Fatalf("long = %q", got)
	}
}

func TestProgressPrinter(t *testing.T) {
	var out bytes.Buffer
	printer := newProgressPrinter(&out, 3)

	printer(events.Event{Kind: events.KindBatchCompleted, Scene: 1, Batch: 1,
		Status: segment.StatusTranslated, TranslatedLines: 10, TotalLines: 30})
	printer(events.Event{Kind: events.KindBatchCompleted, Scene: 1, Batch: 2,
		Status: segment.StatusFailed, Message: "line 12 missing from response", TranslatedLines: 15, TotalLines: 30})

	text := out.String()
	if !strings.Contains(text, "[1/3] scene 1 batch 1 ok (10/30 lines)") {
		t.Fatalf("missing ok line:\n%s", text)
	}
	if !strings.Contains(text, "[2/3] scene 1 batch 2 FAILED") {
		t.Fatalf("missing failed line:\n%s", text)
	}
}

func TestRenderTable(t *testing.T) {
	rendered := renderTable(
		[]string{"Scene", "Status"},
		[][]string{{"1", "translated"}, {"2", "pending"}},
		[]columnAlignment{alignRight, alignLeft},
	)
	// StyleRounded's default header format uppercases labels.
	if !strings.Contains(rendered, "translated") || !strings.Contains(rendered, "SCENE") {
		t.Fatalf("table output:\n%s", rendered)
	}
}
