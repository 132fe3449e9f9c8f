package domain

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// HashIdentifier computes a keyed one-way hash (HMAC-SHA256, hex-encoded) of
// a client identifier such as a device fingerprint or an IP address. Only the
// hash is ever stored or compared; the raw identifier never leaves the
// request path.
func HashIdentifier(secret, value string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(value))
	return hex.EncodeToString(mac.Sum(nil))
}
