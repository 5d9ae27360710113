package fabric

import (
	"context"
	"fmt"

	"github.com/evfabric/evfabric/internal/dispatcher"
	"github.com/evfabric/evfabric/internal/event"
	"github.com/evfabric/evfabric/internal/transport"
)

// Logger is the narrow console interface the fabric uses to report
// per-channel and per-unit problems that are recoverable (a bad interest
// pattern, a bind failure) without aborting the whole fabric.
type Logger interface {
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Options configures InitConnections.
type Options struct {
	Advertise    bool
	ChannelsSize int
	Log          Logger
}

// InitConnections loads every configuration unit under path and, for each
// one, binds its receiver channels, subscribes its sender channels to the
// Dispatcher, and — when opts.Advertise is set — runs the advertisement
// redirector that lets newly discovered peers expand the sender set at
// runtime (spec.md §4.6).
func InitConnections(ctx context.Context, path string, disp dispatcher.Producer, opts Options) error {
	units, err := LoadUnits(path, func(p string, err error) {
		if opts.Log != nil {
			opts.Log.Warnf("skipping malformed config unit %s: %v", p, err)
		}
	})
	if err != nil {
		return fmt.Errorf("fabric: load units under %s: %w", path, err)
	}

	for _, unit := range units {
		launchUnit(ctx, unit, disp, opts)
	}
	return nil
}

func launchUnit(ctx context.Context, unit ConfigUnit, disp dispatcher.Producer, opts Options) {
	var advInterest event.Interest
	advertiseEnabled := opts.Advertise && unit.Receiver != nil && unit.Receiver.AdvInterest != ""
	if advertiseEnabled {
		var err error
		advInterest, err = event.CompileInterest(unit.Receiver.AdvInterest)
		if err != nil {
			if opts.Log != nil {
				opts.Log.Warnf("bad adv_interest %q: %v", unit.Receiver.AdvInterest, err)
			}
			advertiseEnabled = false
		}
	}

	redirect := make(chan event.Event, opts.ChannelsSize)
	if advertiseEnabled {
		go advertisementRedirector(ctx, redirect, disp, opts)
	}

	if unit.Receiver != nil {
		for _, ch := range unit.Receiver.Node.Channels {
			launchReceiver(ctx, ch, disp, advertiseEnabled, advInterest, redirect, opts)
		}
	}

	var selfAdvertisement *event.Event
	if advertiseEnabled {
		payload, err := encodeAdvertisement(unit.Receiver.Node.Channels)
		if err != nil {
			if opts.Log != nil {
				opts.Log.Warnf("encode advertisement: %v", err)
			}
		} else {
			e := event.New(unit.Receiver.AdvTopic, payload)
			selfAdvertisement = &e
		}
	}

	if unit.Sender != nil {
		for _, ch := range unit.Sender.Channels {
			launchSender(ctx, ch, disp, selfAdvertisement, opts)
		}
	}
}

// launchReceiver compiles ch's interest (skipping the channel on a bad
// pattern), binds ch, then drains decoded Events into the unit's
// advertisement redirector (advertisements) or the Dispatcher (events
// matching ch's interest); any other event is dropped (step 1 of
// spec.md §4.6).
func launchReceiver(ctx context.Context, ch ChannelSpec, disp dispatcher.Producer, advertiseEnabled bool, advInterest event.Interest, redirect chan<- event.Event, opts Options) {
	interest, err := event.CompileInterest(ch.Interest)
	if err != nil {
		if opts.Log != nil {
			opts.Log.Warnf("bad interest %q for receiver %s: %v", ch.Interest, ch.Address, err)
		}
		return
	}

	out := make(chan event.Event, opts.ChannelsSize)

	switch ch.Protocol {
	case ProtocolTCP:
		err = transport.NewStreamReceiver(ctx, ch.Address, out)
	case ProtocolUDP:
		err = transport.NewDatagramReceiver(ctx, ch.Address, out)
	default:
		if opts.Log != nil {
			opts.Log.Warnf("unknown protocol %q for receiver %s", ch.Protocol, ch.Address)
		}
		return
	}
	if err != nil {
		if opts.Log != nil {
			opts.Log.Errorf("receiver %s: %v", ch.Address, err)
		}
		return
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-out:
				if !ok {
					return
				}
				if advertiseEnabled && advInterest.Matches(&e) {
					select {
					case redirect <- e:
					case <-ctx.Done():
						return
					}
					continue
				}
				if !interest.Matches(&e) {
					continue
				}
				if err := disp.Send(ctx, dispatcher.Forward(e)); err != nil {
					return
				}
			}
		}
	}()
}

// launchSender compiles ch's interest, subscribes to the Dispatcher, and
// drains matching events to a sender task over ch's transport. When
// advertise is non-nil it is written to the sender's channel before the
// subscription begins draining (spec.md §4.6 step 2).
func launchSender(ctx context.Context, ch ChannelSpec, disp dispatcher.Producer, advertise *event.Event, opts Options) {
	interest, err := event.CompileInterest(ch.Interest)
	if err != nil {
		if opts.Log != nil {
			opts.Log.Warnf("bad interest %q for sender %s: %v", ch.Interest, ch.Address, err)
		}
		return
	}

	sub, consumer := event.New(interest, opts.ChannelsSize)
	in := make(chan event.Event, opts.ChannelsSize)

	switch ch.Protocol {
	case ProtocolTCP:
		err = transport.NewStreamSender(ctx, ch.Address, in)
	case ProtocolUDP:
		err = transport.NewDatagramSender(ctx, ch.Address, in)
	default:
		if opts.Log != nil {
			opts.Log.Warnf("unknown protocol %q for sender %s", ch.Protocol, ch.Address)
		}
		return
	}
	if err != nil {
		if opts.Log != nil {
			opts.Log.Errorf("sender %s: %v", ch.Address, err)
		}
		return
	}

	if err := disp.Send(ctx, dispatcher.Subscribe(sub)); err != nil {
		return
	}

	go func() {
		if advertise != nil {
			select {
			case in <- *advertise:
			case <-ctx.Done():
				return
			}
		}
		for {
			select {
			case <-ctx.Done():
				return
			case h := <-consumer.Recv():
				select {
				case in <- *h.Event():
				case <-ctx.Done():
					return
				}
				h.Release()
			}
		}
	}()
}

// advertisementRedirector consumes events flagged by launchReceiver as
// advertisements, deserializes each as a peer's receiver-side
// description, and spawns a new sender per announced channel — the
// mechanism by which nodes learn of newly announced peers at runtime
// without restarting (spec.md §4.6 step 3).
func advertisementRedirector(ctx context.Context, redirect <-chan event.Event, disp dispatcher.Producer, opts Options) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-redirect:
			if !ok {
				return
			}
			channels, err := decodeAdvertisement(e.Data)
			if err != nil {
				if opts.Log != nil {
					opts.Log.Warnf("decode advertisement on %q: %v", e.Topic, err)
				}
				continue
			}
			for _, ch := range channels {
				launchSender(ctx, ch, disp, nil, opts)
			}
		}
	}
}
