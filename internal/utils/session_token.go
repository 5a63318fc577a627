package utils

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionClaims wraps the server-side session id in a signed token. The token
// only authenticates the cookie value; the session row in the store remains
// the source of truth for expiry and revocation.
type SessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// SessionTokenUtil signs and verifies session cookie values
type SessionTokenUtil struct {
	secretKey string
	ttl       time.Duration
}

// NewSessionTokenUtil creates a new SessionTokenUtil
func NewSessionTokenUtil(secretKey string, ttl time.Duration) *SessionTokenUtil {
	return &SessionTokenUtil{secretKey: secretKey, ttl: ttl}
}

// Generate signs a cookie token for the given session id
func (su *SessionTokenUtil) Generate(sessionID uuid.UUID) (string, error) {
	claims := &SessionClaims{
		SessionID: sessionID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(su.ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   sessionID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(su.secretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return tokenString, nil
}

// Validate verifies the cookie token and returns the embedded session id
func (su *SessionTokenUtil) Validate(tokenString string) (uuid.UUID, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(su.secretKey), nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to parse session token: %w", err)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return uuid.Nil, fmt.Errorf("invalid session token")
	}

	sessionID, err := uuid.Parse(claims.SessionID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("malformed session id in token: %w", err)
	}
	return sessionID, nil
}
