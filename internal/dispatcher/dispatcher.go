// Package dispatcher implements the single-writer fan-out engine that owns
// the subscription table and forwards events to every matching subscriber
// under bounded-queue backpressure.
package dispatcher

import (
	"context"

	"github.com/evfabric/evfabric/internal/event"
	"github.com/evfabric/evfabric/internal/metrics"
)

// Command is the tagged union accepted on the Dispatcher's inbox: either
// register a new Subscription or forward an Event to every match.
type Command struct {
	subscribe *event.Subscription
	forward   *event.Event
}

// Subscribe builds a command that registers sub with the Dispatcher. No
// deduplication is performed: identical interests produce independent
// subscribers.
func Subscribe(sub event.Subscription) Command {
	return Command{subscribe: &sub}
}

// Forward builds a command that publishes e to every matching subscriber.
func Forward(e event.Event) Command {
	return Command{forward: &e}
}

// Producer is the handle other tasks use to talk to a running Dispatcher.
// It wraps the bounded inbox channel; sending on it is the only ingress
// point that may legitimately block (producers feeding the Dispatcher
// wait, subscribers never do).
type Producer struct {
	inbox chan Command
}

// Send enqueues cmd, blocking if the inbox is full, or returning early if
// ctx is cancelled first.
func (p Producer) Send(ctx context.Context, cmd Command) error {
	select {
	case p.inbox <- cmd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// dispatcher is the single task that owns the subscription table. No other
// goroutine ever reads or writes subs.
type dispatcher struct {
	inbox   chan Command
	subs    []event.Subscription
	metrics *metrics.Dispatcher
}

// New spawns the Dispatcher task and returns the Producer other tasks use
// to reach it. The task runs until ctx is cancelled, at which point the
// inbox is abandoned and any in-flight events are lost, per spec.
func New(ctx context.Context, inboxCapacity int, m *metrics.Dispatcher) Producer {
	d := &dispatcher{
		inbox:   make(chan Command, inboxCapacity),
		metrics: m,
	}
	go d.run(ctx)
	return Producer{inbox: d.inbox}
}

func (d *dispatcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-d.inbox:
			d.handle(cmd)
		}
	}
}

func (d *dispatcher) handle(cmd Command) {
	switch {
	case cmd.subscribe != nil:
		d.subs = append(d.subs, *cmd.subscribe)
		d.metrics.SetActiveSubscriptions(len(d.subs))
	case cmd.forward != nil:
		d.dispatch(*cmd.forward)
	}
}

// dispatch wraps e in a shared Handle and offers it to every surviving
// subscription in insertion order, compacting the table in place so dead
// subscribers are reaped during the same pass that dispatches the event.
func (d *dispatcher) dispatch(e event.Event) {
	h := event.NewHandle(e)

	live := d.subs[:0]
	reaped := 0
	for _, sub := range d.subs {
		if !sub.IsAlive() {
			reaped++
			continue
		}

		clone := h.Clone()
		switch sub.Forward(clone) {
		case event.Delivered:
			d.metrics.IncEventsForwarded()
		case event.DroppedFull:
			clone.Release()
			d.metrics.IncEventsDropped("full")
		case event.DroppedClosed:
			clone.Release()
			d.metrics.IncEventsDropped("closed")
			reaped++
			continue
		case event.NotMatched:
			clone.Release()
		}
		live = append(live, sub)
	}
	d.subs = live
	if reaped > 0 {
		d.metrics.AddSubscriptionsReaped(reaped)
	}
	d.metrics.SetActiveSubscriptions(len(d.subs))

	h.Release()
}
