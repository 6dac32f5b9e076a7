package syncws

import (
	"sync"
)

type callback[T any] func(T)

// EventEmitterCallback maps events (of type K) to listeners receiving a V.
// Listeners run synchronously on the goroutine calling Emit.
type EventEmitterCallback[K comparable, V any] struct {
	listeners map[K][]callback[V]
	lock      sync.RWMutex
}

// NewEventEmitter creates a new EventEmitterCallback and returns a pointer to it.
func NewEventEmitter[K comparable, V any]() *EventEmitterCallback[K, V] {
	return &EventEmitterCallback[K, V]{
		listeners: make(map[K][]callback[V]),
	}
}

// On registers a new listener for the given event.
func (e *EventEmitterCallback[K, V]) On(event K, listener callback[V]) {
	e.lock.Lock()
	defer e.lock.Unlock()

	e.listeners[event] = append(e.listeners[event], listener)
}

// Emit calls every listener registered for event, in registration order. The
// listener list is copied first, so listeners may register others or call
// Close without deadlocking.
func (e *EventEmitterCallback[K, V]) Emit(event K, data V) {
	e.lock.RLock()
	listeners := append([]callback[V](nil), e.listeners[event]...)
	e.lock.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// Has reports whether any listener is registered for event.
func (e *EventEmitterCallback[K, V]) Has(event K) bool {
	e.lock.RLock()
	defer e.lock.RUnlock()

	return len(e.listeners[event]) > 0
}

// Close removes all listeners.
func (e *EventEmitterCallback[K, V]) Close() {
	e.lock.Lock()
	defer e.lock.Unlock()

	e.listeners = make(map[K][]callback[V])
}
