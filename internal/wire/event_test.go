package wire

import (
	"bytes"
	"testing"

	"github.com/evfabric/evfabric/internal/event"
)

func TestEventRoundTrip(t *testing.T) {
	want := event.New("sensors/temp", []byte{0x01, 0x02, 0x03})

	payload, err := EncodeEvent(want)
	if err != nil {
		t.Fatalf("EncodeEvent: %v", err)
	}

	got, err := DecodeEvent(payload)
	if err != nil {
		t.Fatalf("DecodeEvent: %v", err)
	}

	if got.Topic != want.Topic {
		t.Fatalf("Topic = %q, want %q", got.Topic, want.Topic)
	}
	if !bytes.Equal(got.Data, want.Data) {
		t.Fatalf("Data = %v, want %v", got.Data, want.Data)
	}
	if !got.Timestamp.Equal(want.Timestamp) {
		t.Fatalf("Timestamp = %v, want %v", got.Timestamp, want.Timestamp)
	}
}

func TestEventRoundTripThroughFrame(t *testing.T) {
	var buf bytes.Buffer
	want := event.New("topic.a", []byte("payload"))

	payload, err := EncodeEvent(want)
	if err != nil {
		t.Fatalf("EncodeEvent: %v", err)
	}
	if err := WriteFrame(&buf, payload); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}

	framed, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	got, err := DecodeEvent(framed)
	if err != nil {
		t.Fatalf("DecodeEvent: %v", err)
	}
	if got.Topic != want.Topic || string(got.Data) != string(want.Data) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}
