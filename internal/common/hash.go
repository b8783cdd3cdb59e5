package common

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sha256Hex digests the input with SHA-256 and returns lowercase hex.
// Used for idempotency keys and refresh-token storage so raw values never
// land in Redis or Postgres.
func Sha256Hex(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}
