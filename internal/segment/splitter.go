package segment

import (
	"time"

	"subtrans/internal/subtitle"
)

// Split subdivides a scene's lines into chunks of at most max lines each.
// Cut points inside the [min, max] window are scored by the gap between the
// line ending the chunk and the line after it; the largest gap wins, with
// ties resolved toward min to keep chunks compact. The final remainder may be
// smaller than min.
func Split(lines []subtitle.Line, min, max int) [][]subtitle.Line {
	if len(lines) == 0 {
		return nil
	}
	if min < 1 {
		min = 1
	}
	if max < 1 {
		max = 1
	}

	var chunks [][]subtitle.Line
	rest := lines
	for len(rest) > max {
		cut := bestCut(rest, min, max)
		chunks = append(chunks, rest[:cut])
		rest = rest[cut:]
	}
	chunks = append(chunks, rest)
	return chunks
}

// bestCut returns the chunk size to cut at, within [min, max]. The candidate
// with the largest following gap wins; equal gaps keep the earlier (smaller)
// cut. A misconfigured window (max < min) degrades to a forced cut at max.
func bestCut(lines []subtitle.Line, min, max int) int {
	if max < min {
		return max
	}
	best := min
	bestGap := time.Duration(-1)
	for size := min; size <= max && size < len(lines); size++ {
		gap := lines[size-1].GapTo(lines[size])
		if gap > bestGap {
			bestGap = gap
			best = size
		}
	}
	return best
}

// BuildPlan segments lines into scenes and splits each scene into pending
// batches, numbering scenes and batches from 1.
func BuildPlan(lines []subtitle.Line, threshold time.Duration, min, max int) *Plan {
	plan := &Plan{}
	for sceneIdx, sceneLines := range Segment(lines, threshold) {
		scene := &Scene{Number: sceneIdx + 1}
		for batchIdx, chunk := range Split(sceneLines, min, max) {
			scene.Batches = append(scene.Batches, &Batch{
				Scene:     scene.Number,
				Number:    batchIdx + 1,
				FirstLine: chunk[0].Number,
				LastLine:  chunk[len(chunk)-1].Number,
				Size:      len(chunk),
				Status:    StatusPending,
			})
		}
		plan.Scenes = append(plan.Scenes, scene)
	}
	return plan
}
