package auth

import "github.com/golang-jwt/jwt/v5"

// Authenticator issues and validates guest session tokens. The storefront has
// no accounts; a session token is minted on first visit and identifies the
// cart from then on.
type Authenticator interface {
	GenerateSessionToken() (token string, sessionID string, err error)
	ValidateSessionToken(token string) (*jwt.Token, error)
}
