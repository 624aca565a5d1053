// Package digest computes content checksums used to detect stale
// document snapshots between the session and its clients.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// SumString is Sum over a string payload.
func SumString(s string) string {
	return Sum([]byte(s))
}
