package services

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashBytes returns the hex SHA-256 digest of data. The digest is the sole
// deduplication key, so cryptographic strength matters: a collision would
// silently merge unrelated images.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
