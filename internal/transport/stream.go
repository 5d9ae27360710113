// Package transport implements the stream and datagram receiver/sender
// pairs described in spec.md §4.2: a receiver binds, accepts peers, and
// pushes decoded Events onto an output channel; a sender connects once and
// drains an input channel onto the wire. Neither side reconnects.
package transport

import (
	"context"
	"fmt"
	"net"

	"golang.org/x/net/netutil"

	"github.com/evfabric/evfabric/internal/event"
	"github.com/evfabric/evfabric/internal/wire"
)

// maxStreamConns bounds concurrently accepted stream connections per
// receiver, the same defensive ceiling the teacher put on its outward HTTP
// listeners.
const maxStreamConns = 256

// NewStreamReceiver binds addr over TCP and spawns a listen loop that
// accepts connections, decodes framed Events from each, and pushes them to
// out. Cancelling ctx closes the listener and every per-peer connection.
// Decode errors terminate only the offending peer.
func NewStreamReceiver(ctx context.Context, addr string, out chan<- event.Event) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("transport: stream listen %s: %w", addr, err)
	}
	ln = netutil.LimitListener(ln, maxStreamConns)

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	go streamListen(ctx, ln, out)
	return nil
}

func streamListen(ctx context.Context, ln net.Listener, out chan<- event.Event) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
				return
			}
		}
		go streamProcess(ctx, conn, out)
	}
}

func streamProcess(ctx context.Context, conn net.Conn, out chan<- event.Event) {
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		payload, err := wire.ReadFrame(conn)
		if err != nil {
			return
		}
		e, err := wire.DecodeEvent(payload)
		if err != nil {
			return
		}
		select {
		case out <- e:
		case <-ctx.Done():
			return
		}
	}
}

// NewStreamSender connects once to addr over TCP and spawns a task that
// drains in, writing each Event as a framed message. A write error
// terminates the sender; it does not reconnect (spec.md §7).
func NewStreamSender(ctx context.Context, addr string, in <-chan event.Event) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("transport: stream dial %s: %w", addr, err)
	}

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	go streamSend(ctx, conn, in)
	return nil
}

func streamSend(ctx context.Context, conn net.Conn, in <-chan event.Event) {
	defer conn.Close()
	for {
		select {
		case e, ok := <-in:
			if !ok {
				return
			}
			payload, err := wire.EncodeEvent(e)
			if err != nil {
				continue
			}
			if err := wire.WriteFrame(conn, payload); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
