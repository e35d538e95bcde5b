// Package event implements the publish/subscribe channel used to announce
// lifecycle changes.
package event

import "sync"

// Type names an event.
type Type string

// StateChange is dispatched once per completed state swap.
const StateChange Type = "stateChange"

// Event is a dispatched message. Target is the component that raised it and
// Data carries the event specific payload.
type Event struct {
	Type   Type
	Target any
	Data   any
}

// Handler receives dispatched events.
type Handler func(Event)

// HandlerID identifies a registration so it can be removed with Off.
type HandlerID uint64

type entry struct {
	id   HandlerID
	fn   Handler
	once bool
}

// Dispatcher fans events out to handlers registered per event type.
// It is safe for concurrent use; handlers run on the dispatching goroutine.
type Dispatcher struct {
	mu       sync.Mutex
	next     HandlerID
	handlers map[Type][]entry
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		handlers: make(map[Type][]entry),
	}
}

// On registers fn for events of type t.
func (d *Dispatcher) On(t Type, fn Handler) HandlerID {
	return d.add(t, fn, false)
}

// Once registers fn to be called for the next event of type t only.
func (d *Dispatcher) Once(t Type, fn Handler) HandlerID {
	return d.add(t, fn, true)
}

func (d *Dispatcher) add(t Type, fn Handler, once bool) HandlerID {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.next++
	d.handlers[t] = append(d.handlers[t], entry{id: d.next, fn: fn, once: once})
	return d.next
}

// Off removes the handler registered under id. Unknown ids are ignored.
func (d *Dispatcher) Off(t Type, id HandlerID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.remove(t, id)
}

func (d *Dispatcher) remove(t Type, id HandlerID) bool {
	list := d.handlers[t]
	for i, e := range list {
		if e.id != id {
			continue
		}
		// copy so in-flight dispatch snapshots are left untouched
		next := make([]entry, 0, len(list)-1)
		next = append(next, list[:i]...)
		next = append(next, list[i+1:]...)
		if len(next) == 0 {
			delete(d.handlers, t)
		} else {
			d.handlers[t] = next
		}
		return true
	}
	return false
}

// Has reports whether any handler is registered for t.
func (d *Dispatcher) Has(t Type) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.handlers[t]) > 0
}

// Dispatch calls every handler registered for e.Type in registration order.
// Handlers added during dispatch are not called for this event.
func (d *Dispatcher) Dispatch(e Event) {
	d.mu.Lock()
	list := d.handlers[e.Type]
	var fire []entry
	for _, h := range list {
		if h.once && !d.remove(e.Type, h.id) {
			continue
		}
		fire = append(fire, h)
	}
	d.mu.Unlock()

	for _, h := range fire {
		h.fn(e)
	}
}

// ClearHandlers removes handlers for the given types, or all handlers when
// called without arguments.
func (d *Dispatcher) ClearHandlers(types ...Type) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(types) == 0 {
		d.handlers = make(map[Type][]entry)
		return
	}
	for _, t := range types {
		delete(d.handlers, t)
	}
}
