package segment

import (
	"time"

	"subtrans/internal/subtitle"
)

// Segment groups lines into scenes. A new scene starts whenever the gap
// between one line's end and the next line's start exceeds threshold.
// Overlapping lines count as a zero gap and never force a split, and a single
// long line stays within its scene regardless of duration.
func Segment(lines []subtitle.Line, threshold time.Duration) [][]subtitle.Line {
	if len(lines) == 0 {
		return nil
	}
	var scenes [][]subtitle.Line
	current := []subtitle.Line{lines[0]}
	for _, line := range lines[1:] {
		prev := current[len(current)-1]
		if prev.GapTo(line) > threshold {
			scenes = append(scenes, current)
			current = []subtitle.Line{line}
			continue
		}
		current = append(current, line)
	}
	scenes = append(scenes, current)
	return scenes
}
