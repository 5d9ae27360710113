package bridge

import (
	"bytes"
	"encoding/base64"
	"fmt"

	"github.com/BurntSushi/toml"
)

// The bridge wire grammar is TOML (spec.md §6: "same key/value grammar as
// the configuration"), a text format with no native byte-string type, so
// every Data field travels as base64 inside the wireXxx shadow types
// below and is converted back to []byte at the Request/Response boundary.

type wireRecv struct {
	ID       string `toml:"id"`
	Interest string `toml:"interest"`
	Num      int    `toml:"num"`
}

type wireExpect struct {
	Topic string   `toml:"topic"`
	Recv  wireRecv `toml:"recv"`
}

type wireSend struct {
	Topic  string      `toml:"topic"`
	Data   string      `toml:"data"`
	Expect *wireExpect `toml:"expect,omitempty"`
}

type wireRequest struct {
	Sends []wireSend `toml:"sends,omitempty"`
	Recvs []wireRecv `toml:"recvs,omitempty"`
}

type wirePacket struct {
	Topic string `toml:"topic,omitempty"`
	Data  string `toml:"data"`
}

type wireRes struct {
	ID      string       `toml:"id"`
	Packets []wirePacket `toml:"packets"`
}

type wireResponse struct {
	Ress []wireRes `toml:"ress,omitempty"`
}

// EncodeRequest serializes req as the text document a client sends.
func EncodeRequest(req Request) ([]byte, error) {
	wr := wireRequest{
		Sends: make([]wireSend, 0, len(req.Sends)),
		Recvs: make([]wireRecv, 0, len(req.Recvs)),
	}
	for _, snd := range req.Sends {
		ws := wireSend{Topic: snd.Topic, Data: base64.StdEncoding.EncodeToString(snd.Data)}
		if snd.Expect != nil {
			ws.Expect = &wireExpect{
				Topic: snd.Expect.Topic,
				Recv: wireRecv{
					ID:       snd.Expect.Recv.ID,
					Interest: snd.Expect.Recv.Interest,
					Num:      snd.Expect.Recv.Num,
				},
			}
		}
		wr.Sends = append(wr.Sends, ws)
	}
	for _, r := range req.Recvs {
		wr.Recvs = append(wr.Recvs, wireRecv{ID: r.ID, Interest: r.Interest, Num: r.Num})
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(wr); err != nil {
		return nil, fmt.Errorf("bridge: encode request: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeRequest parses the text document a client sent into a Request.
func DecodeRequest(raw []byte) (Request, error) {
	var wr wireRequest
	if _, err := toml.Decode(string(raw), &wr); err != nil {
		return Request{}, fmt.Errorf("bridge: decode request: %w", err)
	}

	req := Request{
		Sends: make([]Send, 0, len(wr.Sends)),
		Recvs: make([]Recv, 0, len(wr.Recvs)),
	}
	for _, ws := range wr.Sends {
		data, err := base64.StdEncoding.DecodeString(ws.Data)
		if err != nil {
			return Request{}, fmt.Errorf("bridge: decode send data: %w", err)
		}
		send := Send{Topic: ws.Topic, Data: data}
		if ws.Expect != nil {
			send.Expect = &Expect{
				Topic: ws.Expect.Topic,
				Recv: Recv{
					ID:       ws.Expect.Recv.ID,
					Interest: ws.Expect.Recv.Interest,
					Num:      ws.Expect.Recv.Num,
				},
			}
		}
		req.Sends = append(req.Sends, send)
	}
	for _, rv := range wr.Recvs {
		req.Recvs = append(req.Recvs, Recv{ID: rv.ID, Interest: rv.Interest, Num: rv.Num})
	}
	return req, nil
}

// EncodeResponse serializes resp as the text document written back to
// the client.
func EncodeResponse(resp Response) ([]byte, error) {
	wr := wireResponse{Ress: make([]wireRes, 0, len(resp.Ress))}
	for _, res := range resp.Ress {
		packets := make([]wirePacket, 0, len(res.Packets))
		for _, p := range res.Packets {
			packets = append(packets, wirePacket{
				Topic: p.Topic,
				Data:  base64.StdEncoding.EncodeToString(p.Data),
			})
		}
		wr.Ress = append(wr.Ress, wireRes{ID: res.ID, Packets: packets})
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(wr); err != nil {
		return nil, fmt.Errorf("bridge: encode response: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeResponse parses a text document written by the Bridge back into
// a Response. Used by bridge clients (and tests acting as one).
func DecodeResponse(raw []byte) (Response, error) {
	var wr wireResponse
	if _, err := toml.Decode(string(raw), &wr); err != nil {
		return Response{}, fmt.Errorf("bridge: decode response: %w", err)
	}

	resp := Response{Ress: make([]Res, 0, len(wr.Ress))}
	for _, wres := range wr.Ress {
		packets := make([]Packet, 0, len(wres.Packets))
		for _, wp := range wres.Packets {
			data, err := base64.StdEncoding.DecodeString(wp.Data)
			if err != nil {
				return Response{}, fmt.Errorf("bridge: decode packet data: %w", err)
			}
			packets = append(packets, Packet{Topic: wp.Topic, Data: data})
		}
		resp.Ress = append(resp.Ress, Res{ID: wres.ID, Packets: packets})
	}
	return resp, nil
}
