package helpers

import (
	"crypto/rand"
	"encoding/base64"
)

const TokenBytes = 32

// NewToken returns a URL-safe random token carrying 256 bits of entropy.
func NewToken() (string, error) {
	buf := make([]byte, TokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// ShortToken is used to log tokens without leaking them.
func ShortToken(token string) string {
	if len(token) <= 6 {
		return token
	}
	return token[:6] + "…"
}
