package streaming

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Encoding names accepted in storage.stream.encoding.
const (
	EncodingJSON    = "json"
	EncodingMsgPack = "msgpack"
)

// Codec frames envelopes and acks for the wire. Binary codecs are sent as
// binary WebSocket frames.
type Codec interface {
	Name() string
	Binary() bool
	Marshal(msgType string, payload any) ([]byte, error)
	Unmarshal(data []byte) (Envelope, error)
	MarshalAck(a AckMessage) ([]byte, error)
	UnmarshalAck(data []byte) (AckMessage, error)
}

// CodecFor returns the codec for an encoding name; empty means JSON.
func CodecFor(encoding string) (Codec, error) {
	switch encoding {
	case "", EncodingJSON:
		return JSON{}, nil
	case EncodingMsgPack:
		return MsgPack{}, nil
	default:
		return nil, fmt.Errorf("unknown stream encoding: %s", encoding)
	}
}

// JSON is the text protocol.
type JSON struct{}

func (JSON) Name() string { return EncodingJSON }
func (JSON) Binary() bool { return false }

func (JSON) Marshal(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	data, err := json.Marshal(Envelope{Type: msgType, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}

func (JSON) Unmarshal(data []byte) (Envelope, error) {
	var env Envelope
	err := json.Unmarshal(data, &env)
	return env, err
}

func (JSON) MarshalAck(a AckMessage) ([]byte, error) { return json.Marshal(a) }

func (JSON) UnmarshalAck(data []byte) (AckMessage, error) {
	var a AckMessage
	err := json.Unmarshal(data, &a)
	return a, err
}

// MsgPack is the compact binary protocol. Field names follow the json tags so
// both encodings carry the same keys.
type MsgPack struct{}

type packedEnvelope struct {
	Type    string             `msgpack:"type"`
	Payload msgpack.RawMessage `msgpack:"payload"`
}

func (MsgPack) Name() string { return EncodingMsgPack }
func (MsgPack) Binary() bool { return true }

func packJSONTags(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func unpackJSONTags(data []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	return dec.Decode(v)
}

func (MsgPack) Marshal(msgType string, payload any) ([]byte, error) {
	raw, err := packJSONTags(payload)
	if err != nil {
		return nil, fmt.Errorf("pack %s payload: %w", msgType, err)
	}
	data, err := msgpack.Marshal(packedEnvelope{Type: msgType, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("pack %s envelope: %w", msgType, err)
	}
	return data, nil
}

func (MsgPack) Unmarshal(data []byte) (Envelope, error) {
	var p packedEnvelope
	if err := msgpack.Unmarshal(data, &p); err != nil {
		return Envelope{}, err
	}
	return Envelope{Type: p.Type, Payload: []byte(p.Payload), packed: true}, nil
}

func (MsgPack) MarshalAck(a AckMessage) ([]byte, error) { return packJSONTags(a) }

func (MsgPack) UnmarshalAck(data []byte) (AckMessage, error) {
	var a AckMessage
	err := unpackJSONTags(data, &a)
	return a, err
}
