package segment

import "strings"

// Status represents the lifecycle of a batch.
type Status string

const (
	StatusPending     Status = "pending"
	StatusTranslating Status = "translating"
	StatusTranslated  Status = "translated"
	StatusFailed      Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusTranslating,
	StatusTranslated,
	StatusFailed,
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, status := range allStatuses {
		if status == normalized {
			return status, true
		}
	}
	return "", false
}

// Terminal reports whether a status is an end state.
func (s Status) Terminal() bool {
	return s == StatusTranslated || s == StatusFailed
}

// Batch is a contiguous range of lines sent to the provider as one request.
type Batch struct {
	Scene  int
	Number int
	// FirstLine and LastLine are inclusive line numbers.
	FirstLine int
	LastLine  int
	Size      int

	Status   Status
	Summary  string
	Attempts int
	// Errors holds reconciliation diagnostics from the most recent attempt.
	Errors []string
}

// Scene is an ordered group of batches covering a run of temporally close
// lines.
type Scene struct {
	Number  int
	Batches []*Batch
	Summary string
}

// LineCount returns the total number of lines across the scene's batches.
func (s *Scene) LineCount() int {
	total := 0
	for _, batch := range s.Batches {
		total += batch.Size
	}
	return total
}

// Status derives the scene's aggregate status from its batches.
func (s *Scene) Status() Status {
	if len(s.Batches) == 0 {
		return StatusPending
	}
	allTranslated := true
	anyFailed := false
	anyStarted := false
	for _, batch := range s.Batches {
		switch batch.Status {
		case StatusTranslated:
			anyStarted = true
		case StatusFailed:
			anyFailed = true
			anyStarted = true
			allTranslated = false
		case StatusTranslating:
			anyStarted = true
			allTranslated = false
		default:
			allTranslated = false
		}
	}
	switch {
	case allTranslated:
		return StatusTranslated
	case anyFailed && terminalAll(s.Batches):
		return StatusFailed
	case anyStarted:
		return StatusTranslating
	default:
		return StatusPending
	}
}

func terminalAll(batches []*Batch) bool {
	for _, batch := range batches {
		if !batch.Status.Terminal() {
			return false
		}
	}
	return true
}

// Plan is the full scene/batch division of a document.
type Plan struct {
	Scenes []*Scene
}

// Batch finds a batch by scene and batch number.
func (p *Plan) Batch(scene, number int) (*Batch, bool) {
	for _, s := range p.Scenes {
		if s.Number != scene {
			continue
		}
		for _, b := range s.Batches {
			if b.Number == number {
				return b, true
			}
		}
	}
	return nil, false
}

// BatchCount returns the total number of batches in the plan.
func (p *Plan) BatchCount() int {
	total := 0
	for _, scene := range p.Scenes {
		total += len(scene.Batches)
	}
	return total
}
