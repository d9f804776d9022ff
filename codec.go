package vstore

import (
	"encoding/json"
	"fmt"
)

// Codec translates payloads to and from their on-disk representation for
// FileStorage. The storage layer itself stays payload-agnostic; the codec
// decides what survives a round trip.
type Codec interface {
	Encode(data any) ([]byte, error)
	Decode(raw []byte) (any, error)
}

// JSONCodec stores payloads as JSON. Decoded payloads come back as the
// generic JSON types (map[string]any, []any, string, float64, bool).
type JSONCodec struct{}

func (JSONCodec) Encode(data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return raw, nil
}

func (JSONCodec) Decode(raw []byte) (any, error) {
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return data, nil
}

// RawCodec stores []byte payloads verbatim and rejects everything else.
// Useful when the namespace holds opaque file content.
type RawCodec struct{}

func (RawCodec) Encode(data any) ([]byte, error) {
	raw, ok := data.([]byte)
	if !ok {
		return nil, fmt.Errorf("raw codec requires []byte payloads, got %T", data)
	}
	return raw, nil
}

func (RawCodec) Decode(raw []byte) (any, error) {
	return append([]byte(nil), raw...), nil
}
