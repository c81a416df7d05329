package sideeffects

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// derivedID maps an idempotency key to a stable identifier: identical
// business inputs always yield the identical id.
func derivedID(prefix, key string) string {
	sum := sha256.Sum256([]byte(key))
	return prefix + "-" + strings.ToUpper(hex.EncodeToString(sum[:])[:12])
}
