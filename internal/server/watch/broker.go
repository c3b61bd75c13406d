// Package watch fans document-change events out to snapshot subscribers.
// Every successful mutation publishes one event; subscribers receive events
// for a single collection in broker emission order. No cross-collection
// ordering is guaranteed.
package watch

import "context"

// ChangeKind classifies a document mutation.
type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeModified ChangeKind = "modified"
	ChangeRemoved  ChangeKind = "removed"
)

// Event describes one document change within a collection.
type Event struct {
	Collection string     `json:"collection"`
	DocID      string     `json:"doc_id"`
	Kind       ChangeKind `json:"kind"`
}

// Broker publishes change events and hands out per-collection subscriptions.
type Broker interface {
	Publish(ctx context.Context, event Event) error

	// Subscribe returns a channel of events for one collection and a
	// cancel function that must be called when the subscriber goes away.
	// The channel is closed after cancellation.
	Subscribe(ctx context.Context, collection string) (<-chan Event, func(), error)

	Close() error
}
