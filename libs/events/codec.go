package events

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Encode serializes an envelope to its msgpack map representation.
func Encode(env Envelope) ([]byte, error) {
	value, err := msgpack.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	return value, nil
}

// Decode deserializes an envelope from msgpack bytes. Keys the current
// schema does not know are skipped, so envelopes from a newer producer
// remain readable.
func Decode(value []byte) (Envelope, error) {
	var env Envelope
	if err := msgpack.Unmarshal(value, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	return env, nil
}
