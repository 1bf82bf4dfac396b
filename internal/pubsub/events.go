// Package pubsub provides a generic publish/subscribe event system.
package pubsub

import (
	"time"
)

// EventType represents the type of event being published.
type EventType string

const (
	TypeChangedEvent      EventType = "type_changed"
	ValueChangedEvent     EventType = "value_changed"
	ActivatedEvent        EventType = "activated"
	RenameCommittedEvent  EventType = "rename_committed"
	SelectionChangedEvent EventType = "selection_changed"
	LoggedEvent           EventType = "logged"
)

// Event represents a published event with a typed payload.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Publisher allows publishing events with a typed payload.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
}
