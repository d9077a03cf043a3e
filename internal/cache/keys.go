package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ExtractionKey identifies a cached extraction. The same email sent to the
// same provider hashes to the same key.
func ExtractionKey(provider, subject, body string) string {
	h := sha256.New()
	h.Write([]byte(provider))
	h.Write([]byte{0})
	h.Write([]byte(subject))
	h.Write([]byte{0})
	h.Write([]byte(body))
	return fmt.Sprintf("extract:%s:%s", provider, hex.EncodeToString(h.Sum(nil)))
}

func RateLimitKey(client string) string {
	return fmt.Sprintf("ratelimit:%s", client)
}
