package bridge

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/evfabric/evfabric/internal/dispatcher"
	"github.com/evfabric/evfabric/internal/event"
	"github.com/evfabric/evfabric/internal/metrics"
	"github.com/evfabric/evfabric/internal/wire"
)

type testLogger struct{}

func (testLogger) Infof(string, ...any)  {}
func (testLogger) Warnf(string, ...any)  {}
func (testLogger) Errorf(string, ...any) {}

func reserveAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("reserve addr: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()
	return addr
}

// S7 — Bridge round-trip.
func TestBridgeRoundTrip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	disp := dispatcher.New(ctx, 32, nil)
	addr := reserveAddr(t)

	if err := Serve(ctx, []string{addr}, disp, testLogger{}); err != nil {
		t.Fatalf("Serve: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	// A test peer subscribed to ^q$ that replies on "reply" once it sees
	// the q event, mirroring S7's external collaborator.
	qSub, qConsumer := event.New(event.MustCompileInterest("^q$"), 4)
	if err := disp.Send(ctx, dispatcher.Subscribe(qSub)); err != nil {
		t.Fatalf("subscribe q: %v", err)
	}
	go func() {
		select {
		case h := <-qConsumer.Recv():
			h.Release()
			_ = disp.Send(ctx, dispatcher.Forward(event.New("reply", []byte("pong"))))
		case <-ctx.Done():
		}
	}()

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial bridge: %v", err)
	}
	defer conn.Close()

	req := Request{
		Sends: []Send{{
			Topic: "q",
			Data:  []byte("ping"),
			Expect: &Expect{
				Topic: "reply",
				Recv:  Recv{ID: "r", Interest: "^reply$", Num: 1},
			},
		}},
	}
	payload, err := EncodeRequest(req)
	if err != nil {
		t.Fatalf("EncodeRequest: %v", err)
	}
	if err := wire.WriteFrame(conn, payload); err != nil {
		t.Fatalf("write request frame: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	respPayload, err := wire.ReadFrame(conn)
	if err != nil {
		t.Fatalf("read response frame: %v", err)
	}
	resp, err := DecodeResponse(respPayload)
	if err != nil {
		t.Fatalf("DecodeResponse: %v", err)
	}

	if len(resp.Ress) != 1 {
		t.Fatalf("ress = %+v, want exactly one Res", resp.Ress)
	}
	res := resp.Ress[0]
	if res.ID != "r" {
		t.Errorf("res.ID = %q, want %q", res.ID, "r")
	}
	if len(res.Packets) != 1 {
		t.Fatalf("packets = %+v, want exactly one Packet", res.Packets)
	}
	if res.Packets[0].Topic != "reply" {
		t.Errorf("packet topic = %q, want %q", res.Packets[0].Topic, "reply")
	}
	if string(res.Packets[0].Data) != "pong" {
		t.Errorf("packet data = %q, want %q", res.Packets[0].Data, "pong")
	}
}

// TestBridgeStreamingRecv exercises a Recv with Num > 0, confirming the
// Bridge streams one Response per matching event independently of any
// immediate Send/Expect response.
func TestBridgeStreamingRecv(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	disp := dispatcher.New(ctx, 32, nil)
	addr := reserveAddr(t)
	if err := Serve(ctx, []string{addr}, disp, testLogger{}); err != nil {
		t.Fatalf("Serve: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial bridge: %v", err)
	}
	defer conn.Close()

	req := Request{Recvs: []Recv{{ID: "status", Interest: "^status$", Num: 2}}}
	payload, err := EncodeRequest(req)
	if err != nil {
		t.Fatalf("EncodeRequest: %v", err)
	}
	if err := wire.WriteFrame(conn, payload); err != nil {
		t.Fatalf("write request frame: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	must(t, disp.Send(ctx, dispatcher.Forward(event.New("status", []byte("one")))))
	must(t, disp.Send(ctx, dispatcher.Forward(event.New("status", []byte("two")))))

	for i := 0; i < 2; i++ {
		conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		respPayload, err := wire.ReadFrame(conn)
		if err != nil {
			t.Fatalf("read streamed response %d: %v", i, err)
		}
		resp, err := DecodeResponse(respPayload)
		if err != nil {
			t.Fatalf("DecodeResponse: %v", err)
		}
		if len(resp.Ress) != 1 || len(resp.Ress[0].Packets) != 1 {
			t.Fatalf("unexpected streamed response: %+v", resp)
		}
		if resp.Ress[0].ID != "status" {
			t.Errorf("res.ID = %q, want %q", resp.Ress[0].ID, "status")
		}
	}
}

// TestBridgeStreamingRecvReapedOnDisconnect confirms a streaming Recv
// (Num == 0) doesn't outlive the client connection: once the client
// closes its socket, the session's per-connection context cancels, its
// streamRecv worker exits, and the dispatcher reaps the now-closed
// subscription on its next pass instead of holding it open until global
// shutdown.
func TestBridgeStreamingRecvReapedOnDisconnect(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.NewDispatcher(nil)
	disp := dispatcher.New(ctx, 32, m)
	addr := reserveAddr(t)
	if err := Serve(ctx, []string{addr}, disp, testLogger{}); err != nil {
		t.Fatalf("Serve: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial bridge: %v", err)
	}

	req := Request{Recvs: []Recv{{ID: "status", Interest: "^status$", Num: 0}}}
	payload, err := EncodeRequest(req)
	if err != nil {
		t.Fatalf("EncodeRequest: %v", err)
	}
	if err := wire.WriteFrame(conn, payload); err != nil {
		t.Fatalf("write request frame: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	if m.ActiveSubscriptions() != 1 {
		t.Fatalf("ActiveSubscriptions = %v, want 1 before disconnect", m.ActiveSubscriptions())
	}

	conn.Close()
	time.Sleep(20 * time.Millisecond)

	// A Forward with no live matching subscribers still walks the table
	// and reaps it during the pass.
	must(t, disp.Send(ctx, dispatcher.Forward(event.New("status", []byte("three")))))
	time.Sleep(20 * time.Millisecond)

	if m.ActiveSubscriptions() != 0 {
		t.Fatalf("ActiveSubscriptions = %v, want 0 after disconnect, subscription leaked", m.ActiveSubscriptions())
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}
