package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const roleClaim = "role"

// Claims is the validated subset of an access token.
type Claims struct {
	Subject string
	Role    string
}

// TokenValidator checks issuer, audience, expiry and algorithm expectations
// and extracts the claims the middleware cares about.
type TokenValidator struct {
	Issuer    string
	Audience  string
	ClockSkew time.Duration
	Algorithm jwa.SignatureAlgorithm
}

// Validate ensures the supplied token satisfies the validator's requirements
// and returns its subject and role claims.
func (v TokenValidator) Validate(tok jwt.Token, now time.Time) (Claims, error) {
	if tok == nil {
		return Claims{}, errors.New("auth: token is nil")
	}
	options := []jwt.ValidateOption{
		jwt.WithClock(jwt.ClockFunc(func() time.Time { return now })),
	}
	if v.ClockSkew > 0 {
		options = append(options, jwt.WithAcceptableSkew(v.ClockSkew))
	}
	if v.Issuer != "" {
		options = append(options, jwt.WithIssuer(v.Issuer))
	}
	if v.Audience != "" {
		options = append(options, jwt.WithAudience(v.Audience))
	}
	if err := jwt.Validate(tok, options...); err != nil {
		return Claims{}, err
	}
	claims := Claims{Subject: tok.Subject()}
	if raw, ok := tok.Get(roleClaim); ok {
		role, ok := raw.(string)
		if !ok {
			return Claims{}, fmt.Errorf("auth: malformed role claim %T", raw)
		}
		claims.Role = role
	}
	return claims, nil
}
