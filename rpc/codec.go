// Package rpc holds the protocol shared by the display server and the
// compile endpoint client. Messages are defined in the embedded
// semigrafx/v1/display.proto and travel as protobuf, binary for gRPC and
// protojson for Connect's HTTP/JSON.
package rpc

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

// Codec names; gRPC clients see them as the application/grpc+<name>
// content subtype.
const (
	CodecName      = "json"
	ProtoCodecName = "proto"
)

var jsonUnmarshal = protojson.UnmarshalOptions{DiscardUnknown: true}

// Codec is the protojson codec. It satisfies both connect.Codec and
// gRPC's encoding.Codec.
type Codec struct{}

// Name returns the codec name.
func (Codec) Name() string { return CodecName }

// Marshal encodes v.
func (Codec) Marshal(v any) ([]byte, error) {
	m, err := encode(v)
	if err != nil {
		return nil, err
	}
	return protojson.Marshal(m)
}

// Unmarshal decodes data into v. An empty body decodes to the zero message.
func (Codec) Unmarshal(data []byte, v any) error {
	return decode(v, func(m proto.Message) error {
		if len(data) == 0 {
			return nil
		}
		return jsonUnmarshal.Unmarshal(data, m)
	})
}

// ProtoCodec is the binary protobuf codec.
type ProtoCodec struct{}

// Name returns the codec name.
func (ProtoCodec) Name() string { return ProtoCodecName }

// Marshal encodes v.
func (ProtoCodec) Marshal(v any) ([]byte, error) {
	m, err := encode(v)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(m)
}

// Unmarshal decodes data into v.
func (ProtoCodec) Unmarshal(data []byte, v any) error {
	return decode(v, func(m proto.Message) error {
		return proto.Unmarshal(data, m)
	})
}

func encode(v any) (proto.Message, error) {
	switch m := v.(type) {
	case proto.Message:
		return m, nil
	case Message:
		return m.toProto().m, nil
	}
	return nil, fmt.Errorf("rpc: marshal %T: not a protocol message", v)
}

func decode(v any, unmarshal func(proto.Message) error) error {
	switch m := v.(type) {
	case proto.Message:
		return unmarshal(m)
	case Message:
		r := newRecord(m.messageName())
		if err := unmarshal(r.m); err != nil {
			return fmt.Errorf("rpc: unmarshal %T: %w", v, err)
		}
		m.fromProto(r)
		return nil
	}
	return fmt.Errorf("rpc: unmarshal %T: not a protocol message", v)
}
