package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Guest carts should survive a revisit, so tokens live for a month.
const sessionTokenTTL = time.Hour * 24 * 30

type JWTAuthenticator struct {
	secret string
	aud    string
	iss    string
}

func NewJWTAuthenticator(secret, aud, iss string) *JWTAuthenticator {
	return &JWTAuthenticator{secret: secret, aud: aud, iss: iss}
}

// GenerateSessionToken mints a fresh guest session id and wraps it in a
// signed token the client presents on every request.
func (a *JWTAuthenticator) GenerateSessionToken() (string, string, error) {
	sessionID := uuid.NewString()

	claims := jwt.MapClaims{
		"sub": sessionID,
		"exp": time.Now().Add(sessionTokenTTL).Unix(),
		"iat": time.Now().Unix(),
		"nbf": time.Now().Unix(),
		"iss": a.iss,
		"aud": a.aud,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(a.secret))
	if err != nil {
		return "", "", err
	}

	return signed, sessionID, nil
}

// ValidateSessionToken parses and verifies a session token.
func (a *JWTAuthenticator) ValidateSessionToken(token string) (*jwt.Token, error) {
	return jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(a.secret), nil
	}, jwt.WithExpirationRequired(), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}))
}
