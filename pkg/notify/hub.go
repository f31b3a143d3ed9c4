// Package notify propagates preference changes between contexts: an
// actor-style hub relays events to registered listeners, and a filesystem
// watcher feeds the hub with writes made by other processes.
package notify

import "context"

// Length of hub operation queue.
const opChanLen = 100

// Listener receives events relayed by a Hub.
type Listener[E any] interface {
	Receive(event E) error
}

// Hub relays events on to its listeners.  All state is owned by the actor
// goroutine started by Start; public methods only queue operations.
type Hub[E any] struct {
	listeners map[Listener[E]]struct{}
	opChan    chan func(h *Hub[E])
}

// NewHub constructs an empty Hub.  Call Start to begin processing.
func NewHub[E any]() *Hub[E] {
	return &Hub[E]{
		listeners: make(map[Listener[E]]struct{}),
		opChan:    make(chan func(h *Hub[E]), opChanLen),
	}
}

// Start runs the Hub processing loop until ctx is canceled.
func (hub *Hub[E]) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(hub.opChan)
			return
		case op := <-hub.opChan:
			op(hub)
		}
	}
}

// Dispatch queues an event for broadcast to all registered listeners.
// Listeners returning an error are removed.
func (hub *Hub[E]) Dispatch(event E) {
	hub.opChan <- func(h *Hub[E]) {
		for l := range h.listeners {
			if err := l.Receive(event); err != nil {
				delete(h.listeners, l)
			}
		}
	}
}

// AddListener registers a listener to receive broadcast events.
func (hub *Hub[E]) AddListener(l Listener[E]) {
	hub.opChan <- func(h *Hub[E]) {
		h.listeners[l] = struct{}{}
	}
}

// RemoveListener deletes a listener registration, it will cease to receive
// events.
func (hub *Hub[E]) RemoveListener(l Listener[E]) {
	hub.opChan <- func(h *Hub[E]) {
		delete(h.listeners, l)
	}
}

// Sync blocks until the hub has processed its queue up to this point,
// useful for unit tests.
func (hub *Hub[E]) Sync() {
	done := make(chan struct{})
	hub.opChan <- func(h *Hub[E]) {
		close(done)
	}
	<-done
}

// listenerFunc adapts a plain function to the Listener interface.
type listenerFunc[E any] struct {
	fn func(E)
}

func (l *listenerFunc[E]) Receive(event E) error {
	l.fn(event)
	return nil
}

// OnChange registers fn to be invoked for every dispatched event.
func (hub *Hub[E]) OnChange(fn func(E)) {
	hub.AddListener(&listenerFunc[E]{fn: fn})
}
