package llm

import (
	"context"
	"time"
)

// Observer receives a notification after every completion call, successful
// or not. Implementations must not block.
type Observer interface {
	OnCall(ctx context.Context, event CallEvent)
}

// CallEvent describes one completion call.
type CallEvent struct {
	Provider  string
	Model     string
	Attempt   int // Caller-defined attempt number, 1-based
	Request   Request
	Response  *Response // nil when the call failed before a reply
	Error     error
	StartedAt time.Time
	Duration  time.Duration
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, event CallEvent)

// OnCall implements Observer.
func (f ObserverFunc) OnCall(ctx context.Context, event CallEvent) {
	f(ctx, event)
}

// MultiObserver fans an event out to several observers.
type MultiObserver struct {
	observers []Observer
}

// NewMultiObserver creates an observer that dispatches to all given observers.
func NewMultiObserver(observers ...Observer) *MultiObserver {
	return &MultiObserver{observers: observers}
}

// OnCall dispatches the event to every registered observer.
func (m *MultiObserver) OnCall(ctx context.Context, event CallEvent) {
	for _, obs := range m.observers {
		obs.OnCall(ctx, event)
	}
}

// Add appends an observer.
func (m *MultiObserver) Add(obs Observer) {
	m.observers = append(m.observers, obs)
}
