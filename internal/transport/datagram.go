package transport

import (
	"bytes"
	"context"
	"fmt"
	"net"

	"github.com/evfabric/evfabric/internal/event"
	"github.com/evfabric/evfabric/internal/wire"
)

// maxDatagramSize bounds a single UDP read. It equals the largest UDP
// payload IPv4 can carry (65,535 minus the 8-byte UDP and 20-byte IP
// headers); the datagram transport's one-frame-per-packet rule (see
// internal/transport's DESIGN.md entry) is what makes this ceiling safe to
// apply without fragmenting a frame across packets.
const maxDatagramSize = 65507

// NewDatagramReceiver binds addr over UDP and spawns a read loop. Each
// datagram is required to carry exactly one complete frame and is decoded
// on its own; a datagram that fails to decode is skipped. The source
// address is not tracked: there is no per-peer demultiplexing, no per-peer
// state, and no reassembly of a byte stream across datagrams.
func NewDatagramReceiver(ctx context.Context, addr string, out chan<- event.Event) error {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return fmt.Errorf("transport: resolve datagram address %s: %w", addr, err)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return fmt.Errorf("transport: datagram listen %s: %w", addr, err)
	}

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	go datagramListen(ctx, conn, out)
	return nil
}

func datagramListen(ctx context.Context, conn *net.UDPConn, out chan<- event.Event) {
	defer conn.Close()
	buf := make([]byte, maxDatagramSize)
	for {
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
				return
			}
		}

		payload, err := wire.ReadFrame(bytes.NewReader(buf[:n]))
		if err != nil {
			continue
		}
		e, err := wire.DecodeEvent(payload)
		if err != nil {
			continue
		}
		select {
		case out <- e:
		case <-ctx.Done():
			return
		}
	}
}

// NewDatagramSender connects once to addr over UDP and spawns a task that
// drains in, writing each Event as a single datagram containing one
// complete frame. A write error terminates the sender; it does not
// reconnect (spec.md §7).
func NewDatagramSender(ctx context.Context, addr string, in <-chan event.Event) error {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return fmt.Errorf("transport: resolve datagram address %s: %w", addr, err)
	}
	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return fmt.Errorf("transport: datagram dial %s: %w", addr, err)
	}

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	go datagramSend(ctx, conn, in)
	return nil
}

func datagramSend(ctx context.Context, conn *net.UDPConn, in <-chan event.Event) {
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
			var datagram bytes.Buffer
			if err := wire.WriteFrame(&datagram, payload); err != nil {
				continue
			}
			if _, err := conn.Write(datagram.Bytes()); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
