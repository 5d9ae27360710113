package wire

import (
	"bytes"
	"io"
	"testing"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	want := []byte("hello fabric")

	if err := WriteFrame(&buf, want); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}

	got, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("ReadFrame = %q, want %q", got, want)
	}
}

func TestFrameRoundTripEmptyPayload(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFrame(&buf, nil); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	got, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("ReadFrame = %q, want empty", got)
	}
}

func TestWriteFrameRejectsOversizedPayload(t *testing.T) {
	var buf bytes.Buffer
	oversized := make([]byte, MaxFrameSize+1)
	if err := WriteFrame(&buf, oversized); err == nil {
		t.Fatal("expected error writing oversized payload")
	}
}

func TestReadFrameRejectsOversizedAdvertisedLength(t *testing.T) {
	var buf bytes.Buffer
	header := []byte{0xff, 0xff, 0xff, 0xff} // advertises ~4 GiB
	buf.Write(header)
	if _, err := ReadFrame(&buf); err == nil {
		t.Fatal("expected error reading oversized advertised length")
	}
}

func TestReadFrameReturnsEOFOnCleanClose(t *testing.T) {
	var buf bytes.Buffer
	if _, err := ReadFrame(&buf); err != io.EOF {
		t.Fatalf("ReadFrame on empty stream = %v, want io.EOF", err)
	}
}

func TestMultipleFramesOnOneStream(t *testing.T) {
	var buf bytes.Buffer
	must(t, WriteFrame(&buf, []byte("first")))
	must(t, WriteFrame(&buf, []byte("second")))

	first, err := ReadFrame(&buf)
	must(t, err)
	if string(first) != "first" {
		t.Fatalf("first = %q", first)
	}
	second, err := ReadFrame(&buf)
	must(t, err)
	if string(second) != "second" {
		t.Fatalf("second = %q", second)
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}
