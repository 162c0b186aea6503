package subtitle_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"subtrans/internal/subtitle"
)

func makeLines(count int) []subtitle.Line {
	lines := make([]subtitle.Line, 0, count)
	for i := 0; i < count; i++ {
		lines = append(lines, subtitle.Line{
			Number: i + 1,
			Start:  time.Duration(i*3) * time.Second,
			End:    time.Duration(i*3+2) * time.Second,
			Text:   "line",
		})
	}
	return lines
}

func TestNewStoreRejectsNonIncreasingNumbers(t *testing.T) {
	lines := makeLines(3)
	lines[2].Number = 2
	if _, err := subtitle.NewStore(lines); err == nil {
		t.Fatal("expected error for duplicate number")
	}
}

func TestApplyUpdatesOverwritesDeterministically(t *testing.T) {
	store, err := subtitle.NewStore(makeLines(3))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	first := []subtitle.LineUpdate{{Number: 2, Translation: "hola"}}
	second := []subtitle.LineUpdate{{Number: 2, Translation: "buenas"}}
	if err := store.ApplyUpdates(first); err != nil {
		t.Fatalf("ApplyUpdates failed: %v", err)
	}
	if err := store.ApplyUpdates(second); err != nil {
		t.Fatalf("ApplyUpdates failed: %v", err)
	}

	line, ok := store.Get(2)
	if !ok || line.Translation != "buenas" {
		t.Fatalf("unexpected line: %#v", line)
	}
	if store.TranslatedCount() != 1 {
		t.Fatalf("translated count = %d, want 1", store.TranslatedCount())
	}
}

func TestApplyUpdatesRejectsUnknownNumber(t *testing.T) {
	store, err := subtitle.NewStore(makeLines(2))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if err := store.ApplyUpdates([]subtitle.LineUpdate{{Number: 99}}); err == nil {
		t.Fatal("expected error for unknown line number")
	}
}

func TestStoreConcurrentApplyAndCount(t *testing.T) {
	const workers = 8
	const perWorker = 8
	store, err := subtitle.NewStore(makeLines(workers * perWorker))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		first := w*perWorker + 1
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				updates := make([]subtitle.LineUpdate, 0, perWorker)
				for n := first; n < first+perWorker; n++ {
					updates = append(updates, subtitle.LineUpdate{
						Number:      n,
						Translation: fmt.Sprintf("pass %d line %d", i, n),
					})
				}
				if err := store.ApplyUpdates(updates); err != nil {
					t.Errorf("ApplyUpdates failed: %v", err)
					return
				}
				store.TranslatedCount()
				store.Lines()
			}
		}()
	}
	wg.Wait()

	if got := store.TranslatedCount(); got != workers*perWorker {
		t.Fatalf("TranslatedCount = %d, want %d", got, workers*perWorker)
	}
}

func TestRange(t *testing.T) {
	store, err := subtitle.NewStore(makeLines(5))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	lines, err := store.Range(2, 4)
	if err != nil {
		t.Fatalf("Range failed: %v", err)
	}
	if len(lines) != 3 || lines[0].Number != 2 || lines[2].Number != 4 {
		t.Fatalf("unexpected range: %#v", lines)
	}
}

func TestGapToClampsOverlap(t *testing.T) {
	a := subtitle.Line{Start: 0, End: 5 * time.Second}
	b := subtitle.Line{Start: 3 * time.Second, End: 6 * time.Second}
	if gap := a.GapTo(b); gap != 0 {
		t.Fatalf("gap = %v, want 0", gap)
	}
	c := subtitle.Line{Start: 9 * time.Second, End: 10 * time.Second}
	if gap := a.GapTo(c); gap != 4*time.Second {
		t.Fatalf("gap = %v, want 4s", gap)
	}
}
