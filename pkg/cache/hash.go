package cache

import (
	"encoding/hex"
	"encoding/json"

	"github.com/zeebo/blake3"
)

// hashKey generates a cache key by hashing the components.
// The key format is: prefix:hash(parts...)
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return prefix + ":" + Hash(data)
}

// Hash computes the BLAKE3 hash of data as 64 hex characters.
func Hash(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashString is Hash for strings.
func HashString(s string) string {
	return Hash([]byte(s))
}
