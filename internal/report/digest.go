package report

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// Digest returns the blake2b-256 checksum of an export body, in the form
// sent in the X-Content-Digest header.
func Digest(body []byte) string {
	sum := blake2b.Sum256(body)
	return "blake2b-256=" + hex.EncodeToString(sum[:])
}
