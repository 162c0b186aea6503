package project

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"subtrans/internal/segment"
	"subtrans/internal/subtitle"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "movie.subtrans.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testPlan() *segment.Plan {
	return &segment.Plan{Scenes: []*segment.Scene{
		{
			Number: 1,
			Batches: []*segment.Batch{
				{Scene: 1, Number: 1, FirstLine: 1, LastLine: 10, Size: 10, Status: segment.StatusPending},
				{Scene: 1, Number: 2, FirstLine: 11, LastLine: 20, Size: 10, Status: segment.StatusPending},
			},
		},
		{
			Number: 2,
			Batches: []*segment.Batch{
				{Scene: 2, Number: 1, FirstLine: 21, LastLine: 25, Size: 5, Status: segment.StatusPending},
			},
		},
	}}
}

func TestSyncPlanRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.SyncPlan(ctx, testPlan()); err != nil {
		t.Fatalf("SyncPlan: %v", err)
	}
	batches, err := store.Batches(ctx)
	if err != nil {
		t.Fatalf("Batches: %v", err)
	}
	if len(batches) != 3 {
		t.Fatalf("persisted %d batches, want 3", len(batches))
	}
	if batches[0].Scene != 1 || batches[0].Number != 1 || batches[2].Scene != 2 {
		t.Fatalf("batch order wrong: %+v", batches)
	}
}

func TestSyncPlanPreservesMatchingRanges(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	plan := testPlan()
	if err := store.SyncPlan(ctx, plan); err != nil {
		t.Fatalf("SyncPlan: %v", err)
	}
	done := plan.Scenes[0].Batches[0]
	done.Status = segment.StatusTranslated
	done.Summary = "an opening chase"
	done.Attempts = 2
	done.Errors = []string{"line 3 missing from response"}
	if err := store.UpdateBatch(ctx, done); err != nil {
		t.Fatalf("UpdateBatch: %v", err)
	}

	fresh := testPlan()
	if err := store.SyncPlan(ctx, fresh); err != nil {
		t.Fatalf("second SyncPlan: %v", err)
	}
	got := fresh.Scenes[0].Batches[0]
	if got.Status != segment.StatusTranslated {
		t.Fatalf("status = %s, want translated", got.Status)
	}
	if got.Summary != "an opening chase" || got.Attempts != 2 {
		t.Fatalf("summary/attempts not restored: %+v", got)
	}
	if len(got.Errors) != 1 {
		t.Fatalf("errors not restored: %v", got.Errors)
	}
}

func TestSyncPlanResetsChangedRanges(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	plan := testPlan()
	if err := store.SyncPlan(ctx, plan); err != nil {
		t.Fatalf("SyncPlan: %v", err)
	}
	plan.Scenes[0].Batches[0].Status = segment.StatusTranslated
	if err := store.UpdateBatch(ctx, plan.Scenes[0].Batches[0]); err != nil {
		t.Fatalf("UpdateBatch: %v", err)
	}

	// Same numbering, different line range: stored status must not carry
	// over.
	moved := testPlan()
	moved.Scenes[0].Batches[0].LastLine = 12
	moved.Scenes[0].Batches[1].FirstLine = 13
	if err := store.SyncPlan(ctx, moved); err != nil {
		t.Fatalf("SyncPlan after move: %v", err)
	}
	if got := moved.Scenes[0].Batches[0].Status; got != segment.StatusPending {
		t.Fatalf("status after range change = %s, want pending", got)
	}
}

func TestSyncPlanRestartsTranslatingBatches(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	plan := testPlan()
	if err := store.SyncPlan(ctx, plan); err != nil {
		t.Fatalf("SyncPlan: %v", err)
	}
	plan.Scenes[0].Batches[1].Status = segment.StatusTranslating
	if err := store.UpdateBatch(ctx, plan.Scenes[0].Batches[1]); err != nil {
		t.Fatalf("UpdateBatch: %v", err)
	}

	fresh := testPlan()
	if err := store.SyncPlan(ctx, fresh); err != nil {
		t.Fatalf("second SyncPlan: %v", err)
	}
	if got := fresh.Scenes[0].Batches[1].Status; got != segment.StatusPending {
		t.Fatalf("interrupted batch status = %s, want pending", got)
	}
}

func TestLineUpdatesRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	updates := []subtitle.LineUpdate{
		{Number: 1, Translation: "Hola."},
		{Number: 2, Translation: "Tenemos que hablar."},
		{Number: 3, ErrorReason: "empty translation"},
	}
	if err := store.SaveLineUpdates(ctx, updates); err != nil {
		t.Fatalf("SaveLineUpdates: %v", err)
	}
	// Second save overwrites.
	if err := store.SaveLineUpdates(ctx, []subtitle.LineUpdate{{Number: 3, Translation: "Es sobre ayer."}}); err != nil {
		t.Fatalf("second SaveLineUpdates: %v", err)
	}

	got, err := store.LineUpdates(ctx)
	if err != nil {
		t.Fatalf("LineUpdates: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("loaded %d lines, want 3", len(got))
	}
	if got[2].Translation != "Es sobre ayer." || got[2].ErrorReason != "" {
		t.Fatalf("line 3 = %+v", got[2])
	}
}

func TestSceneSummaries(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.SaveSceneSummary(ctx, 1, "a chase"); err != nil {
		t.Fatalf("SaveSceneSummary: %v", err)
	}
	if err := store.SaveSceneSummary(ctx, 1, "a longer chase"); err != nil {
		t.Fatalf("overwrite SaveSceneSummary: %v", err)
	}
	got, err := store.SceneSummaries(ctx)
	if err != nil {
		t.Fatalf("SceneSummaries: %v", err)
	}
	if got[1] != "a longer chase" {
		t.Fatalf("summaries = %v", got)
	}
}

func TestRunHistory(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.StartRun(ctx, "run-1", "/tmp/movie.srt", "Spanish"); err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if err := store.FinishRun(ctx, "run-1", "completed", ""); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	run, err := store.LastRun(ctx)
	if err != nil {
		t.Fatalf("LastRun: %v", err)
	}
	if run == nil || run.ID != "run-1" || run.Status != "completed" {
		t.Fatalf("run = %+v", run)
	}
	if run.FinishedAt == nil {
		t.Fatal("finished run should carry a timestamp")
	}
}

func TestLastRunEmpty(t *testing.T) {
	store := openTestStore(t)
	run, err := store.LastRun(context.Background())
	if err != nil {
		t.Fatalf("LastRun: %v", err)
	}
	if run != nil {
		t.Fatalf("empty project returned run %+v", run)
	}
}

func TestSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "movie.subtrans.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := store.db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := Open(path); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("reopen = %v, want schema mismatch", err)
	}
}

func TestAcquireRelease(t *testing.T) {
	store := openTestStore(t)
	if err := store.Acquire(); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := store.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
}
