package authclient

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
)

// DefaultPlatform identifies this client on the OAuth code-exchange
// endpoint.
const DefaultPlatform = "mobile"

// GenerateCodeVerifier returns a PKCE code verifier for the OAuth
// authorization-code flow.
func GenerateCodeVerifier() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// CodeChallengeS256 derives the S256 code challenge for a verifier.
func CodeChallengeS256(verifier string) string {
	h := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(h[:])
}
