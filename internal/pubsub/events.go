// Package pubsub is a typed, non-blocking fan-out broker. The registry
// publishes a committed AddIntegration as CreatedEvent, EditIntegration as
// UpdatedEvent and RemoveIntegration as DeletedEvent; the log package
// publishes every written line.
package pubsub

import (
	"context"
	"time"
)

// EventType names what happened to the payload.
type EventType string

const (
	CreatedEvent EventType = "created" // a binding was added
	UpdatedEvent EventType = "updated" // a binding was repointed
	DeletedEvent EventType = "deleted" // a binding was removed
)

// Event is one delivery. Timestamp is the time the change was committed
// when published with PublishAt, otherwise the publish time.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Subscriber hands out a channel of events that closes when ctx is done
// or the source shuts down.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

// Publisher fans a payload out to every current subscriber.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
	PublishAt(eventType EventType, payload T, at time.Time)
}
