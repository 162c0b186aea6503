package translator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"subtrans/internal/events"
	"subtrans/internal/logging"
	"subtrans/internal/project"
	"subtrans/internal/prompt"
	"subtrans/internal/provider"
	"subtrans/internal/ratelimit"
	"subtrans/internal/reconcile"
	"subtrans/internal/segment"
	"subtrans/internal/services"
	"subtrans/internal/subtitle"
)

// Options tunes a run.
type Options struct {
	// Workers bounds how many scenes translate concurrently.
	Workers int
	// MaxRetries is the number of additional attempts after the first.
	MaxRetries int
	// Temperature is passed through to the provider.
	Temperature float64
	// RetryOnValidation retries batches whose lines carry quality flags.
	RetryOnValidation bool
}

// Translator owns one run over one document.
type Translator struct {
	client     provider.Client
	builder    *prompt.Builder
	reconciler *reconcile.Reconciler
	limiter    *ratelimit.Limiter
	store      *subtitle.Store
	plan       *segment.Plan
	// proj is optional; a nil project store disables persistence.
	proj       *project.Store
	dispatcher *events.Dispatcher
	logger     *slog.Logger
	opts       Options

	runID string

	mu     sync.Mutex
	runErr error
}

// New constructs a Translator. The dispatcher and logger may be nil.
func New(
	client provider.Client,
	builder *prompt.Builder,
	reconciler *reconcile.Reconciler,
	limiter *ratelimit.Limiter,
	store *subtitle.Store,
	plan *segment.Plan,
	proj *project.Store,
	dispatcher *events.Dispatcher,
	logger *slog.Logger,
	opts Options,
) (*Translator, error) {
	if client == nil || builder == nil || reconciler == nil || store == nil || plan == nil {
		return nil, errors.New("translator requires client, builder, reconciler, store, and plan")
	}
	if limiter == nil {
		limiter = ratelimit.New(0)
	}
	if dispatcher == nil {
		dispatcher = events.NewDispatcher()
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	return &Translator{
		client:     client,
		builder:    builder,
		reconciler: reconciler,
		limiter:    limiter,
		store:      store,
		plan:       plan,
		proj:       proj,
		dispatcher: dispatcher,
		logger:     logging.NewComponentLogger(logger, "translator"),
		opts:       opts,
		runID:      uuid.NewString(),
	}, nil
}

// RunID returns the identifier stamped on this run's events.
func (t *Translator) RunID() string {
	return t.runID
}

// Run processes every pending batch in the plan. It returns the first fatal
// error, a cancellation error, or nil. Individual batch failures do not fail
// the run; inspect the plan's statuses afterwards.
func (t *Translator) Run(ctx context.Context) error {
	ctx = services.WithRequestID(ctx, t.runID)
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	t.logger.Info("run started",
		logging.String(logging.FieldRunID, t.runID),
		logging.Int("scenes", len(t.plan.Scenes)),
		logging.Int("batches", t.plan.BatchCount()),
		logging.Int("workers", t.opts.Workers),
	)

	sem := make(chan struct{}, t.opts.Workers)
	var wg sync.WaitGroup
	for _, scene := range t.plan.Scenes {
		select {
		case <-runCtx.Done():
		case sem <- struct{}{}:
			wg.Add(1)
			go func(scene *segment.Scene) {
				defer wg.Done()
				defer func() { <-sem }()
				t.runScene(runCtx, cancel, scene)
			}(scene)
			continue
		}
		break
	}
	wg.Wait()

	if err := t.finish(ctx); err != nil {
		return err
	}
	return nil
}

// finish records the run outcome and emits the closing event.
func (t *Translator) finish(ctx context.Context) error {
	t.mu.Lock()
	runErr := t.runErr
	t.mu.Unlock()
	if runErr == nil && ctx.Err() != nil {
		runErr = services.Wrap(services.ErrCancelled, "translator", "run", "run cancelled", ctx.Err())
	}

	translated := t.store.TranslatedCount()
	total := t.store.Len()

	if runErr != nil {
		t.logger.Error("run failed",
			logging.String(logging.FieldRunID, t.runID),
			logging.Error(runErr),
			logging.Int("translated_lines", translated),
			logging.Int("total_lines", total),
		)
		t.persistRun(ctx, "failed", runErr.Error())
		t.dispatcher.Publish(events.Event{
			Kind:            events.KindRunFailed,
			RunID:           t.runID,
			TranslatedLines: translated,
			TotalLines:      total,
			Message:         runErr.Error(),
		})
		return runErr
	}

	t.logger.Info("run completed",
		logging.String(logging.FieldRunID, t.runID),
		logging.Int("translated_lines", translated),
		logging.Int("total_lines", total),
	)
	t.persistRun(ctx, "completed", "")
	t.dispatcher.Publish(events.Event{
		Kind:            events.KindRunCompleted,
		RunID:           t.runID,
		TranslatedLines: translated,
		TotalLines:      total,
	})
	return nil
}

func (t *Translator) persistRun(ctx context.Context, status, message string) {
	if t.proj == nil {
		return
	}
	if err := t.proj.FinishRun(context.WithoutCancel(ctx), t.runID, status, message); err != nil {
		t.logger.Warn("persist run outcome failed", logging.Error(err))
	}
}

// recordFatal remembers the first fatal error and stops further submission.
func (t *Translator) recordFatal(cancel context.CancelFunc, err error) {
	t.mu.Lock()
	if t.runErr == nil {
		t.runErr = err
	}
	t.mu.Unlock()
	cancel()
}

// runScene walks a scene's batches in order. Later batches see the
// summaries of earlier ones.
func (t *Translator) runScene(ctx context.Context, cancel context.CancelFunc, scene *segment.Scene) {
	sceneCtx := services.WithScene(ctx, scene.Number)
	logger := t.logger.With(logging.Int(logging.FieldScene, scene.Number))

	var history []string
	sceneSummary := scene.Summary

	for _, batch := range scene.Batches {
		if ctx.Err() != nil {
			return
		}
		if batch.Status == segment.StatusTranslated {
			// Resume: completed batches contribute context but no work.
			if batch.Summary != "" {
				history = append(history, fmt.Sprintf("Batch %d: %s", batch.Number, batch.Summary))
			}
			continue
		}

		outcome := t.translateBatch(services.WithBatch(sceneCtx, batch.Number), logger, scene, batch, sceneSummary, history)
		if outcome.sceneSummary != "" {
			sceneSummary = outcome.sceneSummary
		}
		if batch.Summary != "" {
			history = append(history, fmt.Sprintf("Batch %d: %s", batch.Number, batch.Summary))
		}
		if outcome.fatal != nil {
			t.recordFatal(cancel, outcome.fatal)
			return
		}
	}

	if sceneSummary != "" {
		scene.Summary = sceneSummary
		if t.proj != nil {
			if err := t.proj.SaveSceneSummary(ctx, scene.Number, sceneSummary); err != nil {
				logger.Warn("persist scene summary failed", logging.Error(err))
			}
		}
	}

	status := scene.Status()
	logger.Info("scene finished", logging.String("status", string(status)))
	t.dispatcher.Publish(events.Event{
		Kind:            events.KindSceneCompleted,
		RunID:           t.runID,
		Scene:           scene.Number,
		Status:          status,
		TranslatedLines: t.store.TranslatedCount(),
		TotalLines:      t.store.Len(),
	})
}

// persistBatch writes a batch transition and notifies observers.
func (t *Translator) persistBatch(ctx context.Context, logger *slog.Logger, batch *segment.Batch, kind events.Kind) {
	if t.proj != nil {
		if err := t.proj.UpdateBatch(context.WithoutCancel(ctx), batch); err != nil {
			logger.Warn("persist batch failed", logging.Error(err))
		}
	}
	message := ""
	if len(batch.Errors) > 0 {
		message = strings.Join(batch.Errors, "; ")
	}
	t.dispatcher.Publish(events.Event{
		Kind:            kind,
		RunID:           t.runID,
		Scene:           batch.Scene,
		Batch:           batch.Number,
		Status:          batch.Status,
		Attempt:         batch.Attempts,
		TranslatedLines: t.store.TranslatedCount(),
		TotalLines:      t.store.Len(),
		Message:         message,
	})
}
