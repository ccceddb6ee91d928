package api

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// expirySlack treats tokens about to expire as already expired, so a
// request does not race the server's clock.
const expirySlack = 30 * time.Second

// TokenExpiry reads the exp claim from an access token without
// verifying the signature. Verification is the server's job; locally
// the claim only steers which credential scheme to use.
func TokenExpiry(raw string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// TokenExpired reports whether an access token is past (or within
// expirySlack of) its exp claim. Tokens without a readable exp claim
// are assumed usable.
func TokenExpired(raw string) bool {
	exp, ok := TokenExpiry(raw)
	if !ok {
		return false
	}
	return time.Until(exp) < expirySlack
}
