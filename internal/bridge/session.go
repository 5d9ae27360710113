package bridge

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"

	"github.com/google/uuid"

	"github.com/evfabric/evfabric/internal/dispatcher"
	"github.com/evfabric/evfabric/internal/event"
	"github.com/evfabric/evfabric/internal/wire"
)

// Logger is the narrow console interface a session reports its
// per-connection outcomes through: Processed, Disconnected, Crashed.
type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// defaultStreamCapacity is the subscription queue size used for a Recv
// with Num == 0, per spec.md §4.7's "default capacity (e.g. 32)".
const defaultStreamCapacity = 32

// session is one client connection's state: IDLE -> PARSE -> DISPATCH ->
// IDLE, terminating on peer close (DISCONNECTED), decode error
// (CRASHED), or context cancellation.
type session struct {
	id   string
	conn net.Conn
	disp dispatcher.Producer
	log  Logger

	writeMu sync.Mutex
}

// ServeConn drives one client connection until it disconnects, crashes,
// or ctx is cancelled.
func ServeConn(ctx context.Context, conn net.Conn, disp dispatcher.Producer, log Logger) {
	connCtx, connCancel := context.WithCancel(ctx)
	defer connCancel()

	s := &session{id: uuid.NewString(), conn: conn, disp: disp, log: log}
	defer conn.Close()

	go func() {
		<-connCtx.Done()
		conn.Close()
	}()

	for {
		payload, err := wire.ReadFrame(conn)
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.log.Infof("bridge session %s: disconnected", s.id)
				return
			}
			s.log.Infof("bridge session %s: disconnected (%v)", s.id, err)
			return
		}

		req, err := DecodeRequest(payload)
		if err != nil {
			s.log.Warnf("bridge session %s: crashed: %v", s.id, err)
			return
		}

		s.dispatch(connCtx, req)
		s.log.Infof("bridge session %s: processed", s.id)
	}
}

// dispatch runs every immediate Send (writing one consolidated Response
// for those carrying Expect) and spawns one streaming task per Recv.
func (s *session) dispatch(ctx context.Context, req Request) {
	var immediate Response
	for _, snd := range req.Sends {
		if snd.Expect == nil {
			s.publish(ctx, snd.Topic, snd.Data)
			continue
		}
		immediate.Ress = append(immediate.Ress, s.awaitExpect(ctx, snd))
	}
	if len(immediate.Ress) > 0 {
		if err := s.writeResponse(immediate); err != nil {
			return
		}
	}

	seen := make(map[string]bool, len(req.Recvs))
	for _, r := range req.Recvs {
		if seen[r.ID] {
			// Duplicate Recv.id within one request: first-wins (spec.md §9).
			s.log.Warnf("bridge session %s: duplicate recv id %q skipped", s.id, r.ID)
			continue
		}
		seen[r.ID] = true
		go s.streamRecv(ctx, r)
	}
}

func (s *session) publish(ctx context.Context, topic string, data []byte) {
	_ = s.disp.Send(ctx, dispatcher.Forward(event.New(topic, data)))
}

// awaitExpect subscribes on snd.Expect.Recv.Interest, publishes snd, then
// collects exactly Recv.Num matching events before returning, per
// spec.md §4.7's Send/Expect ordering.
func (s *session) awaitExpect(ctx context.Context, snd Send) Res {
	recv := snd.Expect.Recv
	capacity := recv.Num
	if capacity < 1 {
		capacity = 1
	}

	res := Res{ID: recv.ID}

	interest, err := event.CompileInterest(recv.Interest)
	if err != nil {
		s.log.Warnf("bridge session %s: bad expect interest %q: %v", s.id, recv.Interest, err)
		return res
	}

	sub, consumer := event.New(interest, capacity)
	if err := s.disp.Send(ctx, dispatcher.Subscribe(sub)); err != nil {
		return res
	}
	defer consumer.Close()

	s.publish(ctx, snd.Topic, snd.Data)

	for i := 0; i < recv.Num; i++ {
		select {
		case h := <-consumer.Recv():
			res.Packets = append(res.Packets, Packet{Topic: h.Event().Topic, Data: h.Event().Data})
			h.Release()
		case <-ctx.Done():
			return res
		}
	}
	return res
}

// streamRecv subscribes on r.Interest and writes one Response per
// matching event, stopping after r.Num events (r.Num > 0) or running
// until ctx is cancelled or the client disconnects (r.Num == 0).
func (s *session) streamRecv(ctx context.Context, r Recv) {
	capacity := r.Num
	if capacity < 1 {
		capacity = defaultStreamCapacity
	}

	interest, err := event.CompileInterest(r.Interest)
	if err != nil {
		s.log.Warnf("bridge session %s: bad recv interest %q: %v", s.id, r.Interest, err)
		return
	}

	sub, consumer := event.New(interest, capacity)
	if err := s.disp.Send(ctx, dispatcher.Subscribe(sub)); err != nil {
		return
	}
	defer consumer.Close()

	count := 0
	for {
		select {
		case <-ctx.Done():
			return
		case h := <-consumer.Recv():
			resp := Response{Ress: []Res{{
				ID:      r.ID,
				Packets: []Packet{{Topic: h.Event().Topic, Data: h.Event().Data}},
			}}}
			h.Release()
			if err := s.writeResponse(resp); err != nil {
				return
			}
			count++
			if r.Num > 0 && count >= r.Num {
				return
			}
		}
	}
}

// writeResponse encodes resp and writes it as one frame, holding writeMu
// so the main request handler and every streaming Recv worker never
// interleave frames on the wire (spec.md §4.7).
func (s *session) writeResponse(resp Response) error {
	payload, err := EncodeResponse(resp)
	if err != nil {
		s.log.Errorf("bridge session %s: encode response: %v", s.id, err)
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return wire.WriteFrame(s.conn, payload)
}
