package pubsub

import (
	"sync"
	"time"
)

// Handler receives events from a Subject.
type Handler[T any] func(Event[T])

type subscription[T any] struct {
	id int
	fn Handler[T]
}

// Subject is a synchronous pub/sub fan-out.
// Publish calls every subscriber on the caller's goroutine, in subscription
// order, before returning. Nothing is queued or dropped.
type Subject[T any] struct {
	mu     sync.Mutex
	subs   []subscription[T]
	nextID int
	closed bool
}

var _ Publisher[string] = (*Subject[string])(nil)

// NewSubject creates an empty subject.
func NewSubject[T any]() *Subject[T] {
	return &Subject[T]{}
}

// Subscribe registers fn and returns a function that removes it.
// Subscribing to a closed subject is a no-op.
func (s *Subject[T]) Subscribe(fn Handler[T]) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || fn == nil {
		return func() {}
	}

	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscription[T]{id: id, fn: fn})

	return func() { s.remove(id) }
}

func (s *Subject[T]) remove(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, sub := range s.subs {
		if sub.id == id {
			s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
			return
		}
	}
}

// Publish delivers an event to all current subscribers.
// Handlers may subscribe or unsubscribe while being called; such changes
// take effect from the next Publish.
func (s *Subject[T]) Publish(eventType EventType, payload T) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	subs := make([]subscription[T], len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	event := Event[T]{
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now(),
	}
	for _, sub := range subs {
		sub.fn(event)
	}
}

// Close drops all subscribers. Later publishes are ignored.
func (s *Subject[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.subs = nil
}

// SubscriberCount returns the number of active subscribers.
func (s *Subject[T]) SubscriberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}
