// Package event defines the universal message type flowing through the
// dispatch fabric, the interest matcher evaluated against it, and the
// bounded per-subscriber delivery queue.
package event

import (
	"sync/atomic"
	"time"
)

// Event is the immutable message shared by reference among every matching
// subscriber. Once constructed, an Event's fields are never mutated.
type Event struct {
	Topic     string
	Timestamp time.Time
	Data      []byte
}

// New creates an Event stamped with the current UTC wall-clock time.
func New(topic string, data []byte) Event {
	return Event{
		Topic:     topic,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// FromWire reconstructs an Event from its decoded wire fields. unixNano is
// the timestamp as nanoseconds since the Unix epoch, UTC, matching what New
// stamps on the sending side.
func FromWire(topic string, unixNano int64, data []byte) Event {
	return Event{
		Topic:     topic,
		Timestamp: time.Unix(0, unixNano).UTC(),
		Data:      data,
	}
}

// Handle is a reference-counted view onto a shared Event. Dispatch fans a
// single Event out to many subscribers without copying its payload: the
// Dispatcher mints one Handle per Forward command and Clones it once per
// surviving subscription, releasing its own reference after the fan-out
// pass completes. Go's garbage collector reclaims the underlying Event
// regardless of the count reaching zero; the count exists so callers can
// observe and test the handle's lifecycle, matching the reference-counted
// sharing model spec'd for the fabric.
type Handle struct {
	shared *shared
}

type shared struct {
	event Event
	refs  atomic.Int32
}

// NewHandle wraps e in a Handle with one outstanding reference.
func NewHandle(e Event) Handle {
	s := &shared{event: e}
	s.refs.Store(1)
	return Handle{shared: s}
}

// Event returns the wrapped Event. Safe to call on a released Handle; the
// payload is never mutated in place.
func (h Handle) Event() *Event {
	return &h.shared.event
}

// Clone increments the reference count and returns a Handle to the same
// underlying Event. Each Clone must be balanced by exactly one Release.
func (h Handle) Clone() Handle {
	h.shared.refs.Add(1)
	return h
}

// Release decrements the reference count. It returns true the first time
// the count reaches zero (the point at which, in a manually-memory-managed
// runtime, the Event would be freed).
func (h Handle) Release() bool {
	return h.shared.refs.Add(-1) == 0
}

// RefCount reports the current number of outstanding references. Intended
// for tests and diagnostics, not for control flow.
func (h Handle) RefCount() int32 {
	return h.shared.refs.Load()
}
