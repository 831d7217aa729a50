package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashWorkspaceKey returns a filesystem-safe identifier for a workspace ID.
func HashWorkspaceKey(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
