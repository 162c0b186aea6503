package translator

import (
	"context"
	"log/slog"
	"strings"

	"subtrans/internal/events"
	"subtrans/internal/logging"
	"subtrans/internal/prompt"
	"subtrans/internal/provider"
	"subtrans/internal/reconcile"
	"subtrans/internal/segment"
	"subtrans/internal/services"
	"subtrans/internal/subtitle"
)

// batchOutcome carries what a batch attempt loop produced back to the scene
// loop.
type batchOutcome struct {
	// sceneSummary is the scene tag from the last usable response.
	sceneSummary string
	// fatal is set when the whole run must stop.
	fatal error
}

// translateBatch runs the attempt loop for one batch and leaves the batch in
// a terminal status. Partial translations from the last attempt are kept
// even when the batch fails.
func (t *Translator) translateBatch(
	ctx context.Context,
	sceneLogger *slog.Logger,
	scene *segment.Scene,
	batch *segment.Batch,
	sceneSummary string,
	history []string,
) batchOutcome {
	logger := sceneLogger.With(logging.Int(logging.FieldBatch, batch.Number))

	lines, err := t.store.Range(batch.FirstLine, batch.LastLine)
	if err != nil {
		batch.Status = segment.StatusFailed
		batch.Errors = []string{err.Error()}
		t.persistBatch(ctx, logger, batch, events.KindBatchCompleted)
		return batchOutcome{fatal: services.Wrap(services.ErrConfiguration, "translator", "batch",
			"batch range does not match document", err)}
	}

	batch.Status = segment.StatusTranslating
	t.persistBatch(ctx, logger, batch, events.KindBatchUpdated)

	var (
		lastReport   reconcile.Report
		haveReport   bool
		lastErr      error
		sceneOut     string
		maxAttempts  = t.opts.MaxRetries + 1
		startAttempt = batch.Attempts
	)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			lastErr = services.Wrap(services.ErrCancelled, "translator", "batch", "batch cancelled", err)
			break
		}
		if err := t.limiter.Wait(ctx); err != nil {
			lastErr = services.Wrap(services.ErrCancelled, "translator", "batch", "cancelled waiting for rate limit", err)
			break
		}

		retry := attempt > 1
		request := t.builder.Build(lines, prompt.Context{
			SceneNumber:  scene.Number,
			BatchNumber:  batch.Number,
			SceneSummary: sceneSummary,
			BatchSummary: batch.Summary,
			History:      history,
		}, retry)

		batch.Attempts = startAttempt + attempt
		logger.Info("sending batch",
			logging.Int(logging.FieldAttempt, batch.Attempts),
			logging.Int("lines", len(lines)),
			logging.Bool("retry", retry),
		)

		response, err := t.client.Send(ctx, provider.Request{
			System:      request.System,
			User:        request.User,
			Temperature: t.opts.Temperature,
		})
		if err != nil {
			lastErr = err
			if services.Fatal(err) || !services.Retryable(err) {
				break
			}
			logger.Warn("provider attempt failed",
				logging.Int(logging.FieldAttempt, batch.Attempts),
				logging.Error(err),
			)
			continue
		}

		report := t.reconciler.Reconcile(lines, response.Text)
		lastReport = report
		haveReport = true
		if report.Scene != "" {
			sceneOut = report.Scene
		}

		switch {
		case report.ParseFailed():
			lastErr = services.Wrap(services.ErrParse, "translator", "reconcile",
				"no extraction pattern matched the response", nil)
		case report.Desync:
			lastErr = services.Wrap(services.ErrDesync, "translator", "reconcile",
				strings.Join(report.DesyncReasons, "; "), nil)
		case report.HasValidationIssues() && t.opts.RetryOnValidation && attempt < maxAttempts:
			lastErr = services.Wrap(services.ErrValidation, "translator", "reconcile",
				"response carries validation flags", nil)
		default:
			t.acceptBatch(ctx, logger, batch, report)
			return batchOutcome{sceneSummary: sceneOut}
		}

		logger.Warn("reconciliation attempt failed",
			logging.Int(logging.FieldAttempt, batch.Attempts),
			logging.Error(lastErr),
		)
	}

	t.failBatch(ctx, logger, batch, lastReport, haveReport, lastErr)
	if lastErr != nil && services.Fatal(lastErr) {
		return batchOutcome{sceneSummary: sceneOut, fatal: lastErr}
	}
	return batchOutcome{sceneSummary: sceneOut}
}

// acceptBatch applies a clean reconciliation and marks the batch done.
func (t *Translator) acceptBatch(ctx context.Context, logger *slog.Logger, batch *segment.Batch, report reconcile.Report) {
	t.applyReport(ctx, logger, report, false)
	batch.Status = segment.StatusTranslated
	batch.Summary = report.Summary
	batch.Errors = report.Errors()
	logger.Info("batch translated",
		logging.Int(logging.FieldAttempt, batch.Attempts),
		logging.Int("lines", len(report.Matched)),
	)
	t.persistBatch(ctx, logger, batch, events.KindBatchCompleted)
}

// failBatch records a terminal failure, keeping whatever the last attempt
// managed to translate.
func (t *Translator) failBatch(ctx context.Context, logger *slog.Logger, batch *segment.Batch, report reconcile.Report, haveReport bool, cause error) {
	if haveReport {
		t.applyReport(ctx, logger, report, true)
		batch.Errors = report.Errors()
		if batch.Summary == "" {
			batch.Summary = report.Summary
		}
	}
	if cause != nil {
		batch.Errors = append(batch.Errors, cause.Error())
	}
	batch.Status = segment.StatusFailed
	logger.Error("batch failed",
		logging.Int(logging.FieldAttempt, batch.Attempts),
		logging.Error(cause),
	)
	t.persistBatch(ctx, logger, batch, events.KindBatchCompleted)
}

// applyReport writes matched translations into the document and the project
// store. On failure the missing lines get an error reason so the composed
// output can show what went untranslated.
func (t *Translator) applyReport(ctx context.Context, logger *slog.Logger, report reconcile.Report, failed bool) {
	updates := make([]subtitle.LineUpdate, 0, len(report.Matched)+len(report.Missing))
	for _, m := range report.Matched {
		updates = append(updates, subtitle.LineUpdate{
			Number:      m.Number,
			Translation: m.Text,
			ErrorReason: strings.Join(m.ValidationIssues, "; "),
		})
	}
	if failed {
		for _, number := range report.Missing {
			updates = append(updates, subtitle.LineUpdate{Number: number, ErrorReason: "no translation received"})
		}
	}
	if len(updates) == 0 {
		return
	}
	if err := t.store.ApplyUpdates(updates); err != nil {
		logger.Warn("apply line updates failed", logging.Error(err))
		return
	}
	if t.proj != nil {
		if err := t.proj.SaveLineUpdates(context.WithoutCancel(ctx), updates); err != nil {
			logger.Warn("persist line updates failed", logging.Error(err))
		}
	}
}
