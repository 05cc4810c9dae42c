package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// hashKey builds a namespaced cache key from a label and the JSON encoding
// of the solve inputs. The label survives hashing ("solve:<hex>") so
// instrumentation can classify operations without decoding payloads.
func hashKey(label string, inputs ...any) string {
	data, _ := json.Marshal(inputs)
	return label + ":" + digest(data)
}

// digest returns the hex SHA-256 of data. Keys carry the full 256 bits:
// two range configs differing in a single tolerance float must never land
// on each other's cached result.
func digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
