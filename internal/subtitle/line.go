package subtitle

import (
	"fmt"
	"strings"
	"time"
)

// Line is a single subtitle cue. Number, Start, End, and Text are fixed at
// load time; Translation and ErrorReason are filled in as the pipeline runs.
type Line struct {
	Number      int
	Start       time.Duration
	End         time.Duration
	Text        string
	Translation string
	ErrorReason string
	// Metadata carries format-specific details the pipeline never interprets.
	Metadata map[string]string
}

// Duration returns the on-screen time of the line.
func (l Line) Duration() time.Duration {
	if l.End < l.Start {
		return 0
	}
	return l.End - l.Start
}

// Translated reports whether the line has a translation.
func (l Line) Translated() bool {
	return strings.TrimSpace(l.Translation) != ""
}

// GapTo returns the gap between this line's end and the next line's start,
// clamped to zero when the lines overlap.
func (l Line) GapTo(next Line) time.Duration {
	gap := next.Start - l.End
	if gap < 0 {
		return 0
	}
	return gap
}

// FormatTimestamp renders a duration as an SRT timestamp (HH:MM:SS,mmm).
func FormatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := d.Milliseconds()
	millis := total % 1000
	seconds := (total / 1000) % 60
	minutes := (total / 60000) % 60
	hours := total / 3600000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, millis)
}
