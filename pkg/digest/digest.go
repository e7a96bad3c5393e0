// Package digest computes and verifies content digests for packed archives.
//
// The registry identifies archive content by its SHA-256 sum, rendered as a
// lowercase 64-character hex string without an algorithm prefix. The same
// digest is used for upload idempotency checks and tamper detection on both
// ends of the wire.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
)

var hexRegex = regexp.MustCompile(`^[a-f0-9]{64}$`)

// Sum returns the hex-encoded SHA-256 digest of b.
func Sum(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Valid reports whether s looks like a digest produced by Sum.
func Valid(s string) bool {
	return hexRegex.MatchString(s)
}

// Verify recomputes the digest of b and compares it against want.
func Verify(b []byte, want string) error {
	got := Sum(b)
	if got != want {
		return fmt.Errorf("checksum mismatch: expected %s, got %s", want, got)
	}
	return nil
}
