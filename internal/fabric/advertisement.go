package fabric

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// encodeAdvertisement serializes a node's receiver endpoints for
// transmission as the data payload of a synthetic advertisement Event.
func encodeAdvertisement(channels []ChannelSpec) ([]byte, error) {
	payload, err := msgpack.Marshal(advertised{Channels: channels})
	if err != nil {
		return nil, fmt.Errorf("fabric: encode advertisement: %w", err)
	}
	return payload, nil
}

// decodeAdvertisement parses a payload produced by encodeAdvertisement,
// describing a peer's receiver endpoints.
func decodeAdvertisement(data []byte) ([]ChannelSpec, error) {
	var a advertised
	if err := msgpack.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("fabric: decode advertisement: %w", err)
	}
	return a.Channels, nil
}
