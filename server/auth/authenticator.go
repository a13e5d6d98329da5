package auth

import (
	"strings"
)

// Authenticator verifies "Authorization: Bearer <token>" headers.
type Authenticator struct {
	secret []byte
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// Authenticate returns the claims of a valid bearer header, or nil.
func (a *Authenticator) Authenticate(authHeader string) *Claims {
	token, ok := extractBearerToken(authHeader)
	if !ok || len(a.secret) == 0 {
		return nil
	}
	claims, err := ParseAccessToken(token, a.secret)
	if err != nil {
		return nil
	}
	return claims
}

func extractBearerToken(authHeader string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(authHeader), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
