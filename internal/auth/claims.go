package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the part of an access token the CLI displays.
type Claims struct {
	Subject   string
	TokenType string
	ExpiresAt time.Time
}

// Expired reports whether the token is past its expiry at now.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

type stationClaims struct {
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// Inspect decodes a token without verifying its signature. The signing key
// lives on the API; this is only used to show who is logged in.
func Inspect(token string) (Claims, error) {
	var claims stationClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return Claims{}, fmt.Errorf("parse token: %w", err)
	}

	out := Claims{
		Subject:   claims.Subject,
		TokenType: claims.TokenType,
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
