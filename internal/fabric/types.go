// Package fabric implements the Connection Fabric: declarative
// configuration that launches per-peer receiver and sender tasks over
// stream or datagram transports, wires them through the Dispatcher, and
// runs the optional self-advertising handshake that expands the sender
// set at runtime (spec.md §4.6).
package fabric

// Protocol names a transport a ChannelSpec binds or dials over.
type Protocol string

const (
	ProtocolTCP Protocol = "TCP"
	ProtocolUDP Protocol = "UDP"
)

// ChannelSpec describes one receiver or sender endpoint: an address, the
// transport protocol, and the interest pattern events on this channel
// must match.
type ChannelSpec struct {
	Address  string   `toml:"address"`
	Protocol Protocol `toml:"protocol"`
	Interest string   `toml:"interest"`
}

// ReceiverNode groups the receiver-side channels a configuration unit
// binds locally. spec.md's grammar nests channels one level under
// receiver.node; this type exists to mirror that nesting exactly.
type ReceiverNode struct {
	Channels []ChannelSpec `toml:"channels"`
}

// ReceiverSpec is the receiver half of a ConfigUnit: the local endpoints
// to bind, plus an optional advertisement block describing how this
// node announces its receiver endpoints to newly connected senders.
type ReceiverSpec struct {
	AdvTopic    string       `toml:"adv_topic"`
	AdvInterest string       `toml:"adv_interest"`
	Node        ReceiverNode `toml:"node"`
}

// SenderSpec is the sender half of a ConfigUnit: remote endpoints this
// node connects out to.
type SenderSpec struct {
	Channels []ChannelSpec `toml:"channels"`
}

// ConfigUnit is one configuration document: an optional receiver
// grouping and an optional sender grouping. A unit missing a table is a
// unit with no channels of that kind, not an error.
type ConfigUnit struct {
	Receiver *ReceiverSpec `toml:"receiver"`
	Sender   *SenderSpec   `toml:"sender"`
}

// advertised describes this process's own receiver endpoints, encoded as
// the payload of a synthetic advertisement Event so a peer can learn how
// to reach back (spec.md §4.6 step 2 and step 3).
type advertised struct {
	Channels []ChannelSpec `msgpack:"channels"`
}
