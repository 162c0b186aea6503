package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"subtrans/internal/config"
	"subtrans/internal/events"
	"subtrans/internal/language"
	"subtrans/internal/logging"
	"subtrans/internal/project"
	"subtrans/internal/prompt"
	"subtrans/internal/provider"
	"subtrans/internal/ratelimit"
	"subtrans/internal/reconcile"
	"subtrans/internal/segment"
	"subtrans/internal/subtitle"
	"subtrans/internal/translator"
)

type runOptions struct {
	inputPath   string
	outputPath  string
	projectFlag string
	language    string
	movieName   string
	workers     int
	// requireProject refuses to start when no project database exists yet.
	requireProject bool
}

func runTranslation(cmd *cobra.Command, cfg *config.Config, opts runOptions) error {
	out := cmd.OutOrStdout()

	inputPath, err := config.ExpandPath(opts.inputPath)
	if err != nil {
		return fmt.Errorf("resolve input path: %w", err)
	}

	langValue := strings.TrimSpace(opts.language)
	if langValue == "" {
		langValue = cfg.Translation.TargetLanguage
	}
	if langValue == "" {
		return errors.New("no target language: set translation.target_language or pass --language")
	}
	lang, err := language.Resolve(langValue)
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{filepath.Join(cfg.Paths.LogDir, "subtrans.log")},
	})
	if err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}

	content, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("read subtitles: %w", err)
	}
	handler := subtitle.SRTHandler{}
	lines, meta, err := handler.Parse(string(content))
	if err != nil {
		return fmt.Errorf("parse subtitles: %w", err)
	}
	if len(lines) == 0 {
		return fmt.Errorf("%s contains no subtitles", inputPath)
	}
	store, err := subtitle.NewStore(lines)
	if err != nil {
		return fmt.Errorf("load subtitles: %w", err)
	}

	gap := time.Duration(cfg.Translation.SceneGapSeconds * float64(time.Second))
	plan := segment.BuildPlan(store.Lines(), gap, cfg.Translation.MinBatchSize, cfg.Translation.MaxBatchSize)

	projPath, err := projectPath(cfg, inputPath, opts.projectFlag)
	if err != nil {
		return fmt.Errorf("resolve project path: %w", err)
	}
	if opts.requireProject {
		if _, err := os.Stat(projPath); err != nil {
			return fmt.Errorf("no project to resume at %s (run `subtrans translate` first)", projPath)
		}
	}
	proj, err := project.Open(projPath)
	if err != nil {
		return fmt.Errorf("open project: %w", err)
	}
	defer proj.Close()
	if err := proj.Acquire(); err != nil {
		return err
	}
	defer func() { _ = proj.Release() }()

	if err := proj.SyncPlan(cmd.Context(), plan); err != nil {
		return fmt.Errorf("sync plan: %w", err)
	}
	if updates, err := proj.LineUpdates(cmd.Context()); err != nil {
		return fmt.Errorf("load saved translations: %w", err)
	} else if len(updates) > 0 {
		if err := store.ApplyUpdates(updates); err != nil {
			return fmt.Errorf("apply saved translations: %w", err)
		}
	}
	if summaries, err := proj.SceneSummaries(cmd.Context()); err == nil {
		for _, scene := range plan.Scenes {
			if summary, ok := summaries[scene.Number]; ok {
				scene.Summary = summary
			}
		}
	}

	instructions, err := resolveInstructions(cfg)
	if err != nil {
		return err
	}
	movieName := strings.TrimSpace(opts.movieName)
	if movieName == "" {
		movieName = cfg.Translation.MovieName
	}
	builder := prompt.NewBuilder(instructions, prompt.Settings{
		MovieName:       movieName,
		Description:     cfg.Translation.Description,
		Names:           cfg.Translation.Names,
		TargetLanguage:  lang.Name,
		MaxContextLines: cfg.Translation.MaxContextLines,
	})

	client, err := provider.New(cfg.LLM.Provider, provider.Settings{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		Referer:        cfg.LLM.Referer,
		Title:          cfg.LLM.Title,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
		Temperature:    cfg.LLM.Temperature,
	})
	if err != nil {
		return err
	}

	workers := opts.workers
	if workers <= 0 {
		workers = cfg.Translation.WorkerWidth
	}

	dispatcher := events.NewDispatcher()
	dispatcher.Subscribe(newProgressPrinter(out, plan.BatchCount()))

	tr, err := translator.New(
		client,
		builder,
		reconcile.New(reconcile.Config{
			MinLengthRatio: cfg.Translation.MinLengthRatio,
			MaxLengthRatio: cfg.Translation.MaxLengthRatio,
		}),
		ratelimit.New(cfg.Translation.RateLimitRPM),
		store,
		plan,
		proj,
		dispatcher,
		logger,
		translator.Options{
			Workers:           workers,
			MaxRetries:        cfg.Translation.MaxRetries,
			Temperature:       cfg.LLM.Temperature,
			RetryOnValidation: cfg.Translation.RetryOnValidation,
		},
	)
	if err != nil {
		return err
	}

	runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := proj.StartRun(runCtx, tr.RunID(), inputPath, lang.Name); err != nil {
		return fmt.Errorf("record run: %w", err)
	}

	fmt.Fprintf(out, "Translating %s to %s (%d lines, %d scenes, %d batches)\n",
		filepath.Base(inputPath), lang.Name, store.Len(), len(plan.Scenes), plan.BatchCount())

	runErr := tr.Run(runCtx)

	outputPath := strings.TrimSpace(opts.outputPath)
	if outputPath == "" {
		outputPath = defaultOutputPath(inputPath, lang.Tag)
	} else if outputPath, err = config.ExpandPath(outputPath); err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}

	// Write whatever translated, even after a failed or cancelled run.
	if store.TranslatedCount() > 0 {
		composed, err := handler.Compose(store.Lines(), meta)
		if err != nil {
			return fmt.Errorf("compose output: %w", err)
		}
		if err := os.WriteFile(outputPath, []byte(composed), 0o644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Fprintf(out, "Wrote %s (%d/%d lines translated)\n", outputPath, store.TranslatedCount(), store.Len())
	}

	if runErr != nil {
		return runErr
	}
	if failed := failedBatchCount(plan); failed > 0 {
		return fmt.Errorf("%d of %d batches failed; run `subtrans resume` to retry them", failed, plan.BatchCount())
	}
	return nil
}

func failedBatchCount(plan *segment.Plan) int {
	failed := 0
	for _, scene := range plan.Scenes {
		for _, batch := range scene.Batches {
			if batch.Status == segment.StatusFailed {
				failed++
			}
		}
	}
	return failed
}

func defaultOutputPath(inputPath, langTag string) string {
	ext := filepath.Ext(inputPath)
	return strings.TrimSuffix(inputPath, ext) + "." + langTag + ext
}

// resolveInstructions layers the instruction sources: file, then explicit
// config overrides, then the built-in defaults.
func resolveInstructions(cfg *config.Config) (prompt.Instructions, error) {
	instructions := prompt.DefaultInstructions()
	if cfg.Instructions.InstructionFile != "" {
		loaded, err := prompt.LoadInstructionsFile(cfg.Instructions.InstructionFile)
		if err != nil {
			return prompt.Instructions{}, fmt.Errorf("load instruction file: %w", err)
		}
		instructions = loaded
	}
	if v := strings.TrimSpace(cfg.Instructions.Prompt); v != "" {
		instructions.Prompt = v
	}
	if v := strings.TrimSpace(cfg.Instructions.Instructions); v != "" {
		instructions.Instructions = v
	}
	if v := strings.TrimSpace(cfg.Instructions.RetryInstructions); v != "" {
		instructions.RetryInstructions = v
	}
	return instructions, nil
}

// newProgressPrinter renders one line per finished batch or scene. On a
// terminal failures are easy to spot mid-run; in pipes the output stays
// grep-friendly.
func newProgressPrinter(out io.Writer, totalBatches int) events.Handler {
	tty := false
	if f, ok := out.(*os.File); ok {
		tty = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	done := 0
	return func(e events.Event) {
		switch e.Kind {
		case events.KindBatchCompleted:
			done++
			marker := "ok"
			if e.Status == segment.StatusFailed {
				marker = "FAILED"
			}
			fmt.Fprintf(out, "[%d/%d] scene %d batch %d %s (%d/%d lines)\n",
				done, totalBatches, e.Scene, e.Batch, marker, e.TranslatedLines, e.TotalLines)
			if e.Status == segment.StatusFailed && e.Message != "" && tty {
				fmt.Fprintf(out, "        %s\n", e.Message)
			}
		case events.KindRunFailed:
			fmt.Fprintf(out, "Run failed: %s\n", e.Message)
		}
	}
}
