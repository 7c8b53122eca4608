package wire

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

const (
	SubprotocolJSON = "shoplist.v1+json"
	SubprotocolCBOR = "shoplist.v1+cbor"
)

// Codec serializes frames for one subprotocol.
type Codec interface {
	Subprotocol() string
	// Binary reports whether frames travel as binary WebSocket messages.
	Binary() bool
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

type jsonCodec struct{}

func (jsonCodec) Subprotocol() string { return SubprotocolJSON }
func (jsonCodec) Binary() bool        { return false }

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

type cborCodec struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

func (c cborCodec) Subprotocol() string { return SubprotocolCBOR }
func (c cborCodec) Binary() bool        { return true }

func (c cborCodec) Marshal(v any) ([]byte, error) {
	return c.enc.Marshal(v)
}

func (c cborCodec) Unmarshal(data []byte, v any) error {
	return c.dec.Unmarshal(data, v)
}

var (
	JSON Codec = jsonCodec{}
	CBOR Codec = newCBORCodec()
)

func newCBORCodec() cborCodec {
	enc, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("wire: CBOR encoder initialization failed: " + err.Error())
	}
	// Payloads decoded into any must come out as map[string]any so they can be
	// validated the same way as JSON payloads.
	dec, err := cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("wire: CBOR decoder initialization failed: " + err.Error())
	}
	return cborCodec{enc: enc, dec: dec}
}

// Subprotocols lists the supported subprotocols in server preference order.
func Subprotocols() []string {
	return []string{SubprotocolJSON, SubprotocolCBOR}
}

// CodecFor resolves a negotiated subprotocol. An empty subprotocol falls back
// to JSON so plain WebSocket clients work without negotiation.
func CodecFor(subprotocol string) (Codec, error) {
	switch strings.TrimSpace(subprotocol) {
	case "", SubprotocolJSON:
		return JSON, nil
	case SubprotocolCBOR:
		return CBOR, nil
	default:
		return nil, fmt.Errorf("unsupported subprotocol %q", subprotocol)
	}
}

// Convert re-shapes a generically decoded value (for example Frame.Data)
// into dst using the same codec it arrived with.
func Convert(codec Codec, src any, dst any) error {
	raw, err := codec.Marshal(src)
	if err != nil {
		return err
	}
	return codec.Unmarshal(raw, dst)
}
