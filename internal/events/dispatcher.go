// Package events distributes domain events to registered observers.
package events

import (
	"context"
	"log/slog"
	"sync"
)

// Event is a domain event.
type Event struct {
	// Type is the event type, e.g. "wishlist:updated".
	Type string

	// Data is the typed payload; see messages.go.
	Data any

	Context context.Context
}

// Observer is notified of dispatched events.
type Observer interface {
	OnEvent(event Event) error

	// Name identifies the observer in logs.
	Name() string

	// ShouldHandle filters the event types the observer receives.
	ShouldHandle(eventType string) bool
}

// Dispatcher implements the observer pattern. It is safe for concurrent
// use.
type Dispatcher struct {
	observers []Observer
	mu        sync.RWMutex
	logger    *slog.Logger
}

// NewDispatcher creates a dispatcher. A nil logger uses slog.Default.
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		observers: make([]Observer, 0),
		logger:    logger,
	}
}

// Register adds an observer.
func (d *Dispatcher) Register(observer Observer) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.observers = append(d.observers, observer)
	d.logger.Debug("registered observer", "observer", observer.Name())
}

// Unregister removes an observer.
func (d *Dispatcher) Unregister(observer Observer) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, obs := range d.observers {
		if obs == observer {
			d.observers = append(d.observers[:i], d.observers[i+1:]...)
			d.logger.Debug("unregistered observer", "observer", observer.Name())
			return
		}
	}
}

// Dispatch notifies observers sequentially in registration order. Observer
// errors are logged and do not stop dispatch.
func (d *Dispatcher) Dispatch(event Event) {
	d.mu.RLock()
	observers := make([]Observer, len(d.observers))
	copy(observers, d.observers)
	d.mu.RUnlock()

	for _, observer := range observers {
		if !observer.ShouldHandle(event.Type) {
			continue
		}
		if err := observer.OnEvent(event); err != nil {
			d.logger.Warn("observer failed to handle event",
				"observer", observer.Name(), "event", event.Type, "error", err)
		}
	}
}

// ObserverCount returns the number of registered observers.
func (d *Dispatcher) ObserverCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.observers)
}

// Data extracts a typed payload from an event.
func Data[T any](event Event) (T, bool) {
	typed, ok := event.Data.(T)
	return typed, ok
}
