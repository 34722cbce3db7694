// Package codec implements the self-describing, length-framed encoding used
// to persist table schemas, table metadata, and row payloads. spec.md §4.2
// calls for "a self-describing schema-driven binary format... Avro
// compatible in the reference implementation" and accepts "any equivalent
// framed format... provided it supports unions, named records, and bytes,
// and yields stable, length-delimited output." No Avro/Protobuf/MessagePack
// library is wired into application code anywhere in the retrieved corpus
// (see SPEC_FULL.md §5-§6), so this package builds that contract directly on
// encoding/json: each encoded value is a tagged-union JSON document (one
// field populated per variant, mirroring Avro's [null, ...] union) framed
// with a 4-byte big-endian length prefix.
package codec

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"relstore/internal/kverr"
)

const lengthPrefixSize = 4

// frame wraps payload with a 4-byte big-endian length prefix.
func frame(payload []byte) []byte {
	out := make([]byte, lengthPrefixSize+len(payload))
	binary.BigEndian.PutUint32(out[:lengthPrefixSize], uint32(len(payload)))
	copy(out[lengthPrefixSize:], payload)
	return out
}

// unframe validates and strips the length prefix written by frame, refusing
// to read past the declared length.
func unframe(b []byte) ([]byte, error) {
	if len(b) < lengthPrefixSize {
		return nil, fmt.Errorf("codec: frame too short (%d bytes)", len(b))
	}
	n := binary.BigEndian.Uint32(b[:lengthPrefixSize])
	payload := b[lengthPrefixSize:]
	if uint64(len(payload)) != uint64(n) {
		return nil, fmt.Errorf("codec: declared length %d does not match payload length %d", n, len(payload))
	}
	return payload, nil
}

func encodeFramed(v any) ([]byte, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, kverr.NewSerializationFailure(err)
	}
	return frame(payload), nil
}

func decodeFramed(b []byte, out any) error {
	payload, err := unframe(b)
	if err != nil {
		return kverr.NewSerializationFailure(err)
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return kverr.NewSerializationFailure(err)
	}
	return nil
}
