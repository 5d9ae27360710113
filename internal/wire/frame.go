// Package wire implements the length-prefixed framing envelope shared by
// every transport (§4.1): a little-endian u32 length followed by that many
// payload bytes. It also carries the two payload kinds that ride inside a
// frame — MessagePack-encoded Events for the fabric, and raw UTF-8 text
// documents for the Bridge — without mixing the two concerns.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// MaxFrameSize is the largest payload a frame may carry. spec.md requires
// at least 16 MiB; this implementation uses exactly that ceiling.
const MaxFrameSize = 16 * 1024 * 1024

// ErrFrameTooLarge is returned by ReadFrame when the advertised payload
// length exceeds MaxFrameSize. The caller should treat this as a
// recoverable per-peer error, not a process-fatal one.
var ErrFrameTooLarge = errors.New("wire: frame exceeds maximum size")

// WriteFrame writes payload as one length-prefixed frame.
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > MaxFrameSize {
		return fmt.Errorf("wire: payload of %d bytes exceeds max frame size %d: %w", len(payload), MaxFrameSize, ErrFrameTooLarge)
	}
	var header [4]byte
	binary.LittleEndian.PutUint32(header[:], uint32(len(payload)))
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("wire: write frame header: %w", err)
	}
	if len(payload) == 0 {
		return nil
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("wire: write frame payload: %w", err)
	}
	return nil
}

// ReadFrame reads one length-prefixed frame and returns its payload. It
// returns io.EOF only when the stream ends cleanly between frames; a
// partial header or payload yields io.ErrUnexpectedEOF via the underlying
// io.ReadFull call.
func ReadFrame(r io.Reader) ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	length := binary.LittleEndian.Uint32(header[:])
	if length > MaxFrameSize {
		return nil, fmt.Errorf("wire: advertised frame length %d: %w", length, ErrFrameTooLarge)
	}
	if length == 0 {
		return []byte{}, nil
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("wire: read frame payload: %w", err)
	}
	return payload, nil
}
