package wire

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/evfabric/evfabric/internal/event"
)

// wireEvent mirrors event.Event's exported shape for MessagePack encoding.
// Kept separate from event.Event itself so the wire package owns the wire
// tags and event stays free of serialization concerns.
type wireEvent struct {
	Topic     string `msgpack:"topic"`
	Timestamp int64  `msgpack:"timestamp"`
	Data      []byte `msgpack:"data"`
}

// EncodeEvent serializes e as the self-describing binary payload that rides
// inside a fabric frame, field order topic/timestamp/data per spec.md §4.1.
func EncodeEvent(e event.Event) ([]byte, error) {
	payload, err := msgpack.Marshal(wireEvent{
		Topic:     e.Topic,
		Timestamp: e.Timestamp.UnixNano(),
		Data:      e.Data,
	})
	if err != nil {
		return nil, fmt.Errorf("wire: encode event: %w", err)
	}
	return payload, nil
}

// DecodeEvent parses a payload produced by EncodeEvent (or any symmetric
// encoder on the sending side) back into an Event.
func DecodeEvent(payload []byte) (event.Event, error) {
	var we wireEvent
	if err := msgpack.Unmarshal(payload, &we); err != nil {
		return event.Event{}, fmt.Errorf("wire: decode event: %w", err)
	}
	return event.FromWire(we.Topic, we.Timestamp, we.Data), nil
}
