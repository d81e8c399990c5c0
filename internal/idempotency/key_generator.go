package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// GenerateKey builds a deterministic key for namespace from all provided parts.
func GenerateKey(namespace string, parts ...any) string {
	h := sha256.New()
	for _, part := range parts {
		fmt.Fprintf(h, "%v:", part)
	}

	return namespace + ":" + hex.EncodeToString(h.Sum(nil))
}
