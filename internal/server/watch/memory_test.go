package watch

import (
	"context"
	"testing"
	"time"
)

func TestMemoryBroker_PublishSubscribe(t *testing.T) {
	b := NewMemoryBroker()
	defer b.Close()

	events, cancel, err := b.Subscribe(context.Background(), "patients")
	if err != nil {
		t.Fatalf("Subscribe error: %v", err)
	}
	defer cancel()

	if err := b.Publish(context.Background(), Event{Collection: "patients", DocID: "p1", Kind: ChangeAdded}); err != nil {
		t.Fatalf("Publish error: %v", err)
	}

	select {
	case e := <-events:
		if e.DocID != "p1" || e.Kind != ChangeAdded {
			t.Fatalf("unexpected event: %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatalf("event not delivered")
	}
}

func TestMemoryBroker_CollectionScoping(t *testing.T) {
	b := NewMemoryBroker()
	defer b.Close()

	events, cancel, err := b.Subscribe(context.Background(), "goals")
	if err != nil {
		t.Fatalf("Subscribe error: %v", err)
	}
	defer cancel()

	_ = b.Publish(context.Background(), Event{Collection: "patients", DocID: "p1", Kind: ChangeAdded})

	select {
	case e := <-events:
		t.Fatalf("event leaked across collections: %+v", e)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryBroker_CancelClosesChannel(t *testing.T) {
	b := NewMemoryBroker()
	defer b.Close()

	events, cancel, err := b.Subscribe(context.Background(), "patients")
	if err != nil {
		t.Fatalf("Subscribe error: %v", err)
	}
	cancel()

	select {
	case _, ok := <-events:
		if ok {
			t.Fatalf("received an event after cancel")
		}
	case <-time.After(time.Second):
		t.Fatalf("channel not closed after cancel")
	}

	// Cancel is idempotent.
	cancel()
}

func TestMemoryBroker_SlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	b := NewMemoryBroker()
	defer b.Close()

	_, cancel, err := b.Subscribe(context.Background(), "patients")
	if err != nil {
		t.Fatalf("Subscribe error: %v", err)
	}
	defer cancel()

	// Overfill the buffered channel; Publish must never block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			_ = b.Publish(context.Background(), Event{Collection: "patients", DocID: "p", Kind: ChangeModified})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("publish blocked on a slow subscriber")
	}
}
