package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

// Guest access tokens are 32 random bytes presented as an opaque hex string.
// Only the SHA-256 hash of the raw token is ever stored; verification hashes
// the presented token and compares hash-to-hash.

const guestTokenBytes = 32

// GenerateGuestToken returns the raw bearer token and its storable hash. The
// raw value exists only in the creation response.
func GenerateGuestToken() (raw string, hash string, err error) {
	buf := make([]byte, guestTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	raw = hex.EncodeToString(buf)
	return raw, HashGuestToken(raw), nil
}

// HashGuestToken maps a presented raw token onto its stored form.
func HashGuestToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
