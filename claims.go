package authclient

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// The access token is opaque to this client: the backend mints it, the
// backend validates it. When it happens to be a JWT we still peek at the
// registered claims without verifying the signature, which is enough to
// log expiry and let UI warn before a doomed request.

// TokenClaims returns the unverified claims of a JWT access token. The
// second return is false when the token is not parseable as a JWT.
func TokenClaims(token string) (jwt.MapClaims, bool) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, false
	}
	return claims, true
}

// TokenExpiresAt extracts the exp claim from a JWT access token. False when
// the token is not a JWT or carries no expiry.
func TokenExpiresAt(token string) (time.Time, bool) {
	claims, ok := TokenClaims(token)
	if !ok {
		return time.Time{}, false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}

	return exp.Time, true
}

// TokenSubject extracts the sub claim from a JWT access token.
func TokenSubject(token string) (string, bool) {
	claims, ok := TokenClaims(token)
	if !ok {
		return "", false
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", false
	}

	return sub, true
}
