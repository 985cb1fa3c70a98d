package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashErrorSentinel is returned when a payload cannot be serialized.
// Hashing is best-effort forensic metadata; it must never fail the caller.
const HashErrorSentinel = "HASH_ERROR"

// HashPayload produces a stable hex SHA-256 digest of a JSON-serializable payload.
// The payload is re-marshalled through a generic map so that object keys are
// serialized in sorted order: two logically identical payloads with different
// key order hash to the same digest.
func HashPayload(payload interface{}) string {
	raw, err := MarshalToJSON(payload)
	if err != nil {
		return HashErrorSentinel
	}

	// encoding/json sorts map keys on marshal, so a decode/encode round trip
	// canonicalizes key order at every nesting level.
	var generic interface{}
	if err := UnmarshalFromJSON([]byte(raw), &generic); err != nil {
		return HashErrorSentinel
	}
	canonical, err := MarshalToJSON(generic)
	if err != nil {
		return HashErrorSentinel
	}

	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}
