package events

import (
	"sync"
	"time"

	"subtrans/internal/segment"
)

// Kind identifies an event type.
type Kind string

const (
	KindBatchUpdated   Kind = "batch-updated"
	KindBatchCompleted Kind = "batch-completed"
	KindSceneCompleted Kind = "scene-completed"
	KindRunCompleted   Kind = "run-completed"
	KindRunFailed      Kind = "run-failed"
)

// Event is one progress notification.
type Event struct {
	Kind      Kind
	RunID     string
	Timestamp time.Time

	// Scene and Batch locate the subject for batch and scene kinds. Zero
	// for run-level kinds.
	Scene int
	Batch int

	// Status is the batch or scene status after the transition.
	Status segment.Status

	// Attempt counts provider calls for the batch so far.
	Attempt int

	// TranslatedLines and TotalLines summarize run progress at emission
	// time.
	TranslatedLines int
	TotalLines      int

	// Message carries failure detail for KindRunFailed and the last batch
	// error for failed batches.
	Message string
}

// Handler receives events. Handlers run on the publisher's goroutine and
// must not block for long.
type Handler func(Event)

// Dispatcher fans events out to subscribers in publish order.
type Dispatcher struct {
	mu       sync.Mutex
	handlers []Handler
	now      func() time.Time
}

// NewDispatcher constructs an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{now: time.Now}
}

// Subscribe registers a handler for all subsequent events.
func (d *Dispatcher) Subscribe(h Handler) {
	if h == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers = append(d.handlers, h)
}

// Publish delivers the event to every subscriber. The dispatcher lock is
// held across delivery so concurrent publishers cannot interleave their
// events.
func (d *Dispatcher) Publish(event Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if event.Timestamp.IsZero() {
		event.Timestamp = d.now()
	}
	for _, h := range d.handlers {
		h(event)
	}
}
