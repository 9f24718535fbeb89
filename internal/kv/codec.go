package kv

import (
	"fmt"

	"github.com/ugorji/go/codec"
)

// Codec turns values into bytes and back.
type Codec interface {
	Name() string
	Encode(v any) ([]byte, error)
	Decode(data []byte, dst any) error
}

type handleCodec struct {
	name   string
	handle codec.Handle
}

// JSONCodec encodes values as JSON. Struct fields follow their json tags.
func JSONCodec() Codec {
	var jh codec.JsonHandle
	jh.Canonical = true
	return handleCodec{name: "json", handle: &jh}
}

// MsgpackCodec encodes values as MessagePack.
func MsgpackCodec() Codec {
	var mh codec.MsgpackHandle
	mh.WriteExt = true
	return handleCodec{name: "msgpack", handle: &mh}
}

// CodecByName returns the codec registered under name ("" means json).
func CodecByName(name string) (Codec, error) {
	switch name {
	case "", "json":
		return JSONCodec(), nil
	case "msgpack":
		return MsgpackCodec(), nil
	default:
		return nil, fmt.Errorf("unknown codec: %s", name)
	}
}

func (c handleCodec) Name() string { return c.name }

func (c handleCodec) Encode(v any) ([]byte, error) {
	var out []byte
	if err := codec.NewEncoderBytes(&out, c.handle).Encode(v); err != nil {
		return nil, fmt.Errorf("encode %s: %w", c.name, err)
	}
	return out, nil
}

func (c handleCodec) Decode(data []byte, dst any) error {
	if err := codec.NewDecoderBytes(data, c.handle).Decode(dst); err != nil {
		return fmt.Errorf("decode %s: %w", c.name, err)
	}
	return nil
}
