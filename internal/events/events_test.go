package events

import (
	"sync"
	"testing"

	"subtrans/internal/segment"
)

func TestDispatcherDeliversInOrder(t *testing.T) {
	d := NewDispatcher()
	var got []Kind
	d.Subscribe(func(e Event) { got = append(got, e.Kind) })

	d.Publish(Event{Kind: KindBatchUpdated})
	d.Publish(Event{Kind: KindBatchCompleted})
	d.Publish(Event{Kind: KindSceneCompleted})
	d.Publish(Event{Kind: KindRunCompleted})

	want := []Kind{KindBatchUpdated, KindBatchCompleted, KindSceneCompleted, KindRunCompleted}
	if len(got) != len(want) {
		t.Fatalf("delivered %d events, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestDispatcherMultipleSubscribers(t *testing.T) {
	d := NewDispatcher()
	var first, second int
	d.Subscribe(func(Event) { first++ })
	d.Subscribe(func(Event) { second++ })

	d.Publish(Event{Kind: KindBatchUpdated, Status: segment.StatusTranslating})
	d.Publish(Event{Kind: KindBatchCompleted, Status: segment.StatusTranslated})

	if first != 2 || second != 2 {
		t.Fatalf("deliveries = %d/%d, want 2/2", first, second)
	}
}

func TestDispatcherStampsTimestamp(t *testing.T) {
	d := NewDispatcher()
	var got Event
	d.Subscribe(func(e Event) { got = e })

	d.Publish(Event{Kind: KindBatchUpdated})
	if got.Timestamp.IsZero() {
		t.Fatal("dispatcher should stamp a timestamp")
	}
}

func TestDispatcherConcurrentPublishersDoNotInterleave(t *testing.T) {
	d := NewDispatcher()
	var events []Event
	d.Subscribe(func(e Event) { events = append(events, e) })

	var wg sync.WaitGroup
	for scene := 1; scene <= 8; scene++ {
		wg.Add(1)
		go func(scene int) {
			defer wg.Done()
			for batch := 1; batch <= 50; batch++ {
				d.Publish(Event{Kind: KindBatchCompleted, Scene: scene, Batch: batch})
			}
		}(scene)
	}
	wg.Wait()

	if len(events) != 8*50 {
		t.Fatalf("delivered %d events, want %d", len(events), 8*50)
	}
	// Per-publisher order survives the fan-in.
	next := map[int]int{}
	for _, e := range events {
		if e.Batch != next[e.Scene]+1 {
			t.Fatalf("scene %d saw batch %d after batch %d", e.Scene, e.Batch, next[e.Scene])
		}
		next[e.Scene] = e.Batch
	}
}

func TestDispatcherNilHandlerIgnored(t *testing.T) {
	d := NewDispatcher()
	d.Subscribe(nil)
	d.Publish(Event{Kind: KindRunFailed, Message: "boom"})
}
