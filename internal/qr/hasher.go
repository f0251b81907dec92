package qr

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint computes the stable content hash of canonical payload bytes.
// Equal canonical payloads always produce equal fingerprints; the hash is the
// primary dedup key, so it has to be well-distributed across realistic
// payloads.
func Fingerprint(canonical []byte) string {
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])
}
