package segment_test

import (
	"testing"
	"time"

	"subtrans/internal/segment"
	"subtrans/internal/subtitle"
)

func line(number int, start, end float64) subtitle.Line {
	return subtitle.Line{
		Number: number,
		Start:  time.Duration(start * float64(time.Second)),
		End:    time.Duration(end * float64(time.Second)),
		Text:   "line",
	}
}

func TestSegmentSplitsOnGap(t *testing.T) {
	lines := []subtitle.Line{
		line(1, 0, 2),
		line(2, 3, 5),
		line(3, 70, 72),
	}
	scenes := segment.Segment(lines, 60*time.Second)
	if len(scenes) != 2 {
		t.Fatalf("scene count = %d, want 2", len(scenes))
	}
	if len(scenes[0]) != 2 || len(scenes[1]) != 1 {
		t.Fatalf("scene sizes = %d, %d", len(scenes[0]), len(scenes[1]))
	}
	if scenes[1][0].Number != 3 {
		t.Fatalf("second scene starts at line %d", scenes[1][0].Number)
	}
}

func TestSegmentPreservesOrderAndCoverage(t *testing.T) {
	var lines []subtitle.Line
	for i := 0; i < 50; i++ {
		start := float64(i * 7)
		lines = append(lines, line(i+1, start, start+2))
	}
	scenes := segment.Segment(lines, 4*time.Second)

	var flattened []subtitle.Line
	for _, scene := range scenes {
		flattened = append(flattened, scene...)
	}
	if len(flattened) != len(lines) {
		t.Fatalf("coverage: %d lines out, %d in", len(flattened), len(lines))
	}
	for i, l := range flattened {
		if l.Number != lines[i].Number {
			t.Fatalf("order broken at position %d: %d != %d", i, l.Number, lines[i].Number)
		}
	}
}

func TestSegmentEmptyAndSingle(t *testing.T) {
	if scenes := segment.Segment(nil, time.Minute); scenes != nil {
		t.Fatalf("empty input should yield no scenes, got %d", len(scenes))
	}
	scenes := segment.Segment([]subtitle.Line{line(1, 0, 2)}, time.Minute)
	if len(scenes) != 1 || len(scenes[0]) != 1 {
		t.Fatalf("single line should yield one scene of one line")
	}
}

func TestSegmentOverlapNeverSplits(t *testing.T) {
	lines := []subtitle.Line{
		line(1, 0, 10),
		line(2, 5, 12), // starts before previous ends
	}
	scenes := segment.Segment(lines, 1*time.Second)
	if len(scenes) != 1 {
		t.Fatalf("overlap must clamp to zero gap, got %d scenes", len(scenes))
	}
}

func TestSegmentLongLineStaysInScene(t *testing.T) {
	lines := []subtitle.Line{
		line(1, 0, 120), // duration alone exceeds threshold
		line(2, 121, 123),
	}
	scenes := segment.Segment(lines, 60*time.Second)
	if len(scenes) != 1 {
		t.Fatalf("long line must not split its scene, got %d scenes", len(scenes))
	}
}

func TestSplitSingleBatchWhenSmall(t *testing.T) {
	var lines []subtitle.Line
	for i := 0; i < 15; i++ {
		start := float64(i * 3)
		lines = append(lines, line(i+1, start, start+2))
	}
	chunks := segment.Split(lines, 10, 20)
	if len(chunks) != 1 || len(chunks[0]) != 15 {
		t.Fatalf("expected one batch of 15, got %d chunks", len(chunks))
	}
}

func TestSplitPrefersLargestGapInWindow(t *testing.T) {
	// 25 lines, 3s apart, except a 30s discontinuity after line 14.
	var lines []subtitle.Line
	start := 0.0
	for i := 0; i < 25; i++ {
		lines = append(lines, line(i+1, start, start+2))
		if i == 13 {
			start += 30
		} else {
			start += 3
		}
	}
	chunks := segment.Split(lines, 10, 20)
	if len(chunks) != 2 {
		t.Fatalf("chunk count = %d, want 2", len(chunks))
	}
	if len(chunks[0]) != 14 {
		t.Fatalf("first chunk size = %d, want cut at the 30s gap (14)", len(chunks[0]))
	}
	if len(chunks[0])+len(chunks[1]) != 25 {
		t.Fatalf("sizes must sum to 25")
	}
}

func TestSplitTieBreaksTowardMin(t *testing.T) {
	// Uniform gaps: every candidate scores equally, so the cut lands at min.
	var lines []subtitle.Line
	for i := 0; i < 25; i++ {
		start := float64(i * 3)
		lines = append(lines, line(i+1, start, start+2))
	}
	chunks := segment.Split(lines, 10, 20)
	if len(chunks[0]) != 10 {
		t.Fatalf("first chunk size = %d, want 10 (tie toward min)", len(chunks[0]))
	}
}

func TestSplitSizeBounds(t *testing.T) {
	var lines []subtitle.Line
	for i := 0; i < 97; i++ {
		start := float64(i * 3)
		lines = append(lines, line(i+1, start, start+2))
	}
	const min, max = 5, 12
	chunks := segment.Split(lines, min, max)
	total := 0
	for i, chunk := range chunks {
		total += len(chunk)
		if len(chunk) < 1 || len(chunk) > max {
			t.Fatalf("chunk %d size %d outside [1, %d]", i, len(chunk), max)
		}
		if i < len(chunks)-1 && len(chunk) < min {
			t.Fatalf("non-final chunk %d smaller than min", i)
		}
	}
	if total != len(lines) {
		t.Fatalf("coverage: %d != %d", total, len(lines))
	}
}

func TestBuildPlanInvariants(t *testing.T) {
	var lines []subtitle.Line
	start := 0.0
	for i := 0; i < 60; i++ {
		lines = append(lines, line(i+1, start, start+2))
		if i%20 == 19 {
			start += 100 // force a scene break every 20 lines
		} else {
			start += 3
		}
	}
	plan := segment.BuildPlan(lines, 60*time.Second, 5, 8)
	if len(plan.Scenes) != 3 {
		t.Fatalf("scene count = %d, want 3", len(plan.Scenes))
	}
	expectNext := 1
	for _, scene := range plan.Scenes {
		sum := 0
		for i, batch := range scene.Batches {
			if batch.Number != i+1 {
				t.Fatalf("batch numbering broken in scene %d", scene.Number)
			}
			if batch.FirstLine != expectNext {
				t.Fatalf("batch ranges not contiguous: first=%d want=%d", batch.FirstLine, expectNext)
			}
			if batch.Status != segment.StatusPending {
				t.Fatalf("new batch status = %q", batch.Status)
			}
			expectNext = batch.LastLine + 1
			sum += batch.Size
		}
		if sum != scene.LineCount() {
			t.Fatalf("scene %d: batch sizes %d != line count %d", scene.Number, sum, scene.LineCount())
		}
	}
	if expectNext != 61 {
		t.Fatalf("plan does not cover all lines, next expected %d", expectNext)
	}
}

func TestSceneStatusAggregation(t *testing.T) {
	scene := &segment.Scene{
		Number: 1,
		Batches: []*segment.Batch{
			{Status: segment.StatusTranslated},
			{Status: segment.StatusPending},
		},
	}
	if got := scene.Status(); got != segment.StatusTranslating {
		t.Fatalf("status = %q, want translating", got)
	}
	scene.Batches[1].Status = segment.StatusTranslated
	if got := scene.Status(); got != segment.StatusTranslated {
		t.Fatalf("status = %q, want translated", got)
	}
	scene.Batches[1].Status = segment.StatusFailed
	if got := scene.Status(); got != segment.StatusFailed {
		t.Fatalf("status = %q, want failed", got)
	}
}

func TestParseStatus(t *testing.T) {
	if status, ok := segment.ParseStatus(" Translated "); !ok || status != segment.StatusTranslated {
		t.Fatalf("ParseStatus = %q, %v", status, ok)
	}
	if _, ok := segment.ParseStatus("bogus"); ok {
		t.Fatal("unknown status must not parse")
	}
}
