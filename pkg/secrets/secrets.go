// Package secrets generates opaque bearer values and the digests stored in
// their place.
package secrets

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"

	dErrors "gatekeeper/pkg/domain-errors"
)

const secretBytes = 32

// Generate creates a cryptographically secure random secret, base64url
// encoded without padding.
func Generate() (string, error) {
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not generate secret")
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Digest is the hex SHA-256 of secret. Stores key on it so the secret itself
// is never persisted.
func Digest(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}
