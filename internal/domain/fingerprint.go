package domain

import (
	"crypto/sha256"
	"encoding/hex"
)

// fingerprintLen is the number of hex characters kept from the digest.
// 64 bits of a cryptographic hash is ample for dedup equality checks.
const fingerprintLen = 16

// Fingerprint maps a task's title and description to a short deterministic
// hex string used for content deduplication. Same input always yields the
// same output; the value is only ever compared for equality.
func Fingerprint(title, description string) string {
	sum := sha256.Sum256([]byte(title + "::" + description))
	return hex.EncodeToString(sum[:])[:fingerprintLen]
}
