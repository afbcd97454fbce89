package oauth2

import (
	"crypto/rand"
	"encoding/base64"
)

// GenerateRandomString returns n random bytes encoded as URL-safe base64.
func GenerateRandomString(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
