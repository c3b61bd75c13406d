package watch

import (
	"context"
	"sync"
)

// MemoryBroker is an in-process Broker used in tests and single-node runs.
type MemoryBroker struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]chan Event
	closed bool
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{subs: make(map[string]map[int]chan Event)}
}

func (b *MemoryBroker) Publish(ctx context.Context, event Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs[event.Collection] {
		// Non-blocking: a stalled subscriber drops events instead of
		// wedging every publisher.
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

func (b *MemoryBroker) Subscribe(ctx context.Context, collection string) (<-chan Event, func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++

	ch := make(chan Event, 16)
	if b.subs[collection] == nil {
		b.subs[collection] = make(map[int]chan Event)
	}
	b.subs[collection][id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[collection][id]; ok {
			delete(b.subs[collection], id)
			close(sub)
		}
	}

	return ch, cancel, nil
}

func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for _, subs := range b.subs {
		for id, ch := range subs {
			delete(subs, id)
			close(ch)
		}
	}
	return nil
}
