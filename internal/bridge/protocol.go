// Package bridge implements the Bridge Protocol: a local stream listener
// that lets external clients publish events into the Dispatcher and
// receive topic-matched replies, using the same key/value text grammar as
// the Connection Fabric's configuration (spec.md §4.7).
package bridge

// Recv describes a subscription a client wants the Bridge to open on its
// behalf: compile Interest with the given queue capacity, then either
// collect exactly Num matches (Num > 0) or stream matches indefinitely
// (Num == 0) until the client disconnects.
type Recv struct {
	ID       string
	Interest string
	Num      int
}

// Expect pairs a Send with the reply the client wants to wait for: the
// Bridge subscribes on Recv.Interest first, then publishes, then awaits
// exactly Recv.Num matching events.
type Expect struct {
	Topic string
	Recv  Recv
}

// Send publishes one event with Topic/Data. If Expect is non-nil, the
// Bridge blocks until Recv.Num replies arrive and returns them as one Res
// in a single Response together with the Res of every other Send in the
// Request that carries an Expect. A Send without Expect adds no Res.
type Send struct {
	Topic  string
	Data   []byte
	Expect *Expect
}

// Request is one client-submitted text document: zero or more Sends to
// publish, zero or more Recvs to subscribe on and stream back.
type Request struct {
	Sends []Send
	Recvs []Recv
}

// Packet is one event's topic and payload as returned to the client.
type Packet struct {
	Topic string
	Data  []byte
}

// Res bundles the packets collected for one Recv.ID or one Send.Expect.
type Res struct {
	ID      string
	Packets []Packet
}

// Response is one text document written back to the client: either the
// consolidated result of a Request's immediate Sends, or one streamed
// update for a single Recv.
type Response struct {
	Ress []Res
}
