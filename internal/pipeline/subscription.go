package pipeline

import (
	"context"
	"sync"
)

// Subscription is one open progress stream. Events arrive on Events();
// the channel closes when the stream ends or Close is called.
type Subscription struct {
	events chan Event
	cancel context.CancelFunc
	once   sync.Once
}

func newSubscription(cancel context.CancelFunc) *Subscription {
	return &Subscription{
		events: make(chan Event, 16),
		cancel: cancel,
	}
}

// Events returns the stream's event channel.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Close tears down the stream. Idempotent; the first call cancels the
// underlying connection, later calls are no-ops.
func (s *Subscription) Close() {
	s.once.Do(s.cancel)
}
