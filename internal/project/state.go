package project

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"subtrans/internal/segment"
	"subtrans/internal/subtitle"
)

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// SyncPlan reconciles the persisted batch table with a freshly computed
// plan. Batches whose line range matches a stored row inherit the stored
// status, summary, attempt count, and errors; ranges that moved are reset
// to pending. Rows for batches no longer in the plan are removed.
func (s *Store) SyncPlan(ctx context.Context, plan *segment.Plan) error {
	ctx = ensureContext(ctx)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin plan tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	type key struct{ scene, batch int }
	stored := map[key]*segment.Batch{}
	rows, err := tx.QueryContext(ctx,
		`SELECT scene, batch, first_line, last_line, size, status, summary, attempts, errors_json FROM batches`)
	if err != nil {
		return fmt.Errorf("load batches: %w", err)
	}
	for rows.Next() {
		var b segment.Batch
		var status, errorsJSON string
		if err := rows.Scan(&b.Scene, &b.Number, &b.FirstLine, &b.LastLine, &b.Size, &status, &b.Summary, &b.Attempts, &errorsJSON); err != nil {
			rows.Close()
			return fmt.Errorf("scan batch: %w", err)
		}
		if parsed, ok := segment.ParseStatus(status); ok {
			b.Status = parsed
		} else {
			b.Status = segment.StatusPending
		}
		if err := json.Unmarshal([]byte(errorsJSON), &b.Errors); err != nil {
			b.Errors = nil
		}
		stored[key{b.Scene, b.Number}] = &b
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("iterate batches: %w", err)
	}
	rows.Close()

	if _, err := tx.ExecContext(ctx, `DELETE FROM batches`); err != nil {
		return fmt.Errorf("clear batches: %w", err)
	}

	now := timestamp()
	for _, scene := range plan.Scenes {
		for _, batch := range scene.Batches {
			if prev, ok := stored[key{batch.Scene, batch.Number}]; ok &&
				prev.FirstLine == batch.FirstLine && prev.LastLine == batch.LastLine {
				batch.Status = prev.Status
				batch.Summary = prev.Summary
				batch.Attempts = prev.Attempts
				batch.Errors = prev.Errors
				// A run that died mid-flight leaves translating batches
				// behind; they restart from pending.
				if batch.Status == segment.StatusTranslating {
					batch.Status = segment.StatusPending
				}
			}
			errorsJSON, err := json.Marshal(batch.Errors)
			if err != nil {
				return fmt.Errorf("marshal batch errors: %w", err)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO batches (scene, batch, first_line, last_line, size, status, summary, attempts, errors_json, updated_at)
                 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				batch.Scene, batch.Number, batch.FirstLine, batch.LastLine, batch.Size,
				string(batch.Status), batch.Summary, batch.Attempts, string(errorsJSON), now,
			); err != nil {
				return fmt.Errorf("insert batch %d/%d: %w", batch.Scene, batch.Number, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit plan: %w", err)
	}
	return nil
}

// UpdateBatch persists one batch's state transition.
func (s *Store) UpdateBatch(ctx context.Context, batch *segment.Batch) error {
	if batch == nil {
		return errors.New("batch is nil")
	}
	errorsJSON, err := json.Marshal(batch.Errors)
	if err != nil {
		return fmt.Errorf("marshal batch errors: %w", err)
	}
	return s.execWithRetry(ctx,
		`UPDATE batches SET status = ?, summary = ?, attempts = ?, errors_json = ?, updated_at = ?
         WHERE scene = ? AND batch = ?`,
		string(batch.Status), batch.Summary, batch.Attempts, string(errorsJSON), timestamp(),
		batch.Scene, batch.Number,
	)
}

// Batches returns all persisted batches in scene then batch order.
func (s *Store) Batches(ctx context.Context) ([]segment.Batch, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT scene, batch, first_line, last_line, size, status, summary, attempts, errors_json
         FROM batches ORDER BY scene, batch`)
	if err != nil {
		return nil, fmt.Errorf("query batches: %w", err)
	}
	defer rows.Close()

	var out []segment.Batch
	for rows.Next() {
		var b segment.Batch
		var status, errorsJSON string
		if err := rows.Scan(&b.Scene, &b.Number, &b.FirstLine, &b.LastLine, &b.Size, &status, &b.Summary, &b.Attempts, &errorsJSON); err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		if parsed, ok := segment.ParseStatus(status); ok {
			b.Status = parsed
		}
		if err := json.Unmarshal([]byte(errorsJSON), &b.Errors); err != nil {
			b.Errors = nil
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// SaveSceneSummary persists a scene's rolling summary.
func (s *Store) SaveSceneSummary(ctx context.Context, scene int, summary string) error {
	return s.execWithRetry(ctx,
		`INSERT INTO scenes (scene, summary) VALUES (?, ?)
         ON CONFLICT(scene) DO UPDATE SET summary = excluded.summary`,
		scene, summary,
	)
}

// SceneSummaries returns the persisted scene summaries keyed by scene
// number.
func (s *Store) SceneSummaries(ctx context.Context) (map[int]string, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT scene, summary FROM scenes`)
	if err != nil {
		return nil, fmt.Errorf("query scenes: %w", err)
	}
	defer rows.Close()

	out := map[int]string{}
	for rows.Next() {
		var scene int
		var summary string
		if err := rows.Scan(&scene, &summary); err != nil {
			return nil, fmt.Errorf("scan scene: %w", err)
		}
		out[scene] = summary
	}
	return out, rows.Err()
}

// SaveLineUpdates persists reconciled translations in one transaction.
func (s *Store) SaveLineUpdates(ctx context.Context, updates []subtitle.LineUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin lines tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		now := timestamp()
		for _, update := range updates {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO lines (number, translation, error_reason, updated_at) VALUES (?, ?, ?, ?)
                 ON CONFLICT(number) DO UPDATE SET
                     translation = excluded.translation,
                     error_reason = excluded.error_reason,
                     updated_at = excluded.updated_at`,
				update.Number, update.Translation, update.ErrorReason, now,
			); err != nil {
				return fmt.Errorf("upsert line %d: %w", update.Number, err)
			}
		}
		return tx.Commit()
	})
}

// LineUpdates returns every persisted translation in line order, for
// rehydrating an in-memory document on resume.
func (s *Store) LineUpdates(ctx context.Context) ([]subtitle.LineUpdate, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT number, translation, error_reason FROM lines ORDER BY number`)
	if err != nil {
		return nil, fmt.Errorf("query lines: %w", err)
	}
	defer rows.Close()

	var out []subtitle.LineUpdate
	for rows.Next() {
		var update subtitle.LineUpdate
		if err := rows.Scan(&update.Number, &update.Translation, &update.ErrorReason); err != nil {
			return nil, fmt.Errorf("scan line: %w", err)
		}
		out = append(out, update)
	}
	return out, rows.Err()
}

// Run is one translation attempt over the document.
type Run struct {
	ID             string
	SourcePath     string
	TargetLanguage string
	Status         string
	Message        string
	StartedAt      time.Time
	FinishedAt     *time.Time
}

// StartRun records a new run in the history.
func (s *Store) StartRun(ctx context.Context, id, sourcePath, targetLanguage string) error {
	return s.execWithRetry(ctx,
		`INSERT INTO runs (id, source_path, target_language, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		id, sourcePath, targetLanguage, "running", timestamp(),
	)
}

// FinishRun marks a run as completed or failed.
func (s *Store) FinishRun(ctx context.Context, id, status, message string) error {
	return s.execWithRetry(ctx,
		`UPDATE runs SET status = ?, message = ?, finished_at = ? WHERE id = ?`,
		status, message, timestamp(), id,
	)
}

// LastRun returns the most recently started run, or nil when the project
// has none.
func (s *Store) LastRun(ctx context.Context) (*Run, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		`SELECT id, source_path, target_language, status, message, started_at, finished_at
         FROM runs ORDER BY started_at DESC LIMIT 1`)

	var run Run
	var startedAt string
	var finishedAt sql.NullString
	err := row.Scan(&run.ID, &run.SourcePath, &run.TargetLanguage, &run.Status, &run.Message, &startedAt, &finishedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}
	if parsed, err := time.Parse(time.RFC3339Nano, startedAt); err == nil {
		run.StartedAt = parsed
	}
	if finishedAt.Valid {
		if parsed, err := time.Parse(time.RFC3339Nano, finishedAt.String); err == nil {
			run.FinishedAt = &parsed
		}
	}
	return &run, nil
}
