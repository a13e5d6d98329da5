// Package auth issues and verifies admin API access tokens.
package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

const (
	// Issuer is the issuer of access tokens.
	Issuer = "wabot"
	// KeyID is the key id written into the token header.
	KeyID = "v1"
	// AccessTokenAudienceName is the audience of admin access tokens.
	AccessTokenAudienceName = "admin.access-token"
	// DefaultAccessTokenDuration is the lifetime of issued tokens.
	DefaultAccessTokenDuration = 24 * time.Hour
)

// Claims are the claims carried by an admin access token.
type Claims struct {
	jwt.RegisteredClaims
}

// GenerateAccessToken signs a token for subject valid for duration.
func GenerateAccessToken(subject string, secret []byte, duration time.Duration, now time.Time) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("token secret is empty")
	}
	if duration <= 0 {
		duration = DefaultAccessTokenDuration
	}

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings{AccessTokenAudienceName},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["kid"] = KeyID

	signed, err := token.SignedString(secret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign access token")
	}
	return signed, nil
}

// ParseAccessToken verifies the token and returns its claims.
func ParseAccessToken(tokenString string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if kid, _ := t.Header["kid"].(string); kid != KeyID {
			return nil, errors.Errorf("unexpected kid: %v", t.Header["kid"])
		}
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithAudience(AccessTokenAudienceName),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, errors.Wrap(err, "invalid access token")
	}
	return claims, nil
}

type claimsContextKey struct{}

// SetClaimsInContext stores verified claims in ctx.
func SetClaimsInContext(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

// GetClaimsFromContext returns the claims stored by SetClaimsInContext.
func GetClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(*Claims)
	return claims, ok
}
