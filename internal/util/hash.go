package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// ContentHash returns the hex sha256 of data. It is stored as a document checksum.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// CacheKey hashes the parts that make a summary request unique. Parts are
// length-prefixed so ("ab","c") and ("a","bc") do not collide.
func CacheKey(parts ...string) string {
	hasher := sha256.New()
	var prefix [8]byte
	for _, part := range parts {
		n := len(part)
		for i := range prefix {
			prefix[i] = byte(n >> (8 * i))
		}
		hasher.Write(prefix[:])
		hasher.Write([]byte(part))
	}
	return hex.EncodeToString(hasher.Sum(nil))[:32]
}
