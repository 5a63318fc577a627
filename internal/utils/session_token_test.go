package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestSessionTokenUtil_Generate(t *testing.T) {
	tokenUtil := NewSessionTokenUtil("secret", time.Hour)
	sessionID := uuid.New()

	tokenString, err := tokenUtil.Generate(sessionID)

	assert.NoError(t, err)
	assert.NotEmpty(t, tokenString)

	// Validate the token to ensure it's well-formed and carries the session id
	gotID, err := tokenUtil.Validate(tokenString)
	assert.NoError(t, err)
	assert.Equal(t, sessionID, gotID)
}

func TestSessionTokenUtil_Validate_InvalidToken(t *testing.T) {
	tokenUtil := NewSessionTokenUtil("secret", time.Hour)

	_, err := tokenUtil.Validate("invalid.token.string")
	assert.Error(t, err)
}

func TestSessionTokenUtil_Validate_ExpiredToken(t *testing.T) {
	tokenUtil := NewSessionTokenUtil("secret", -time.Hour) // Token expires in the past
	sessionID := uuid.New()

	tokenString, _ := tokenUtil.Generate(sessionID)

	_, err := tokenUtil.Validate(tokenString)
	assert.Error(t, err)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestSessionTokenUtil_Validate_WrongSecret(t *testing.T) {
	tokenUtil1 := NewSessionTokenUtil("secret1", time.Hour)
	tokenUtil2 := NewSessionTokenUtil("secret2", time.Hour)
	sessionID := uuid.New()

	tokenString, _ := tokenUtil1.Generate(sessionID)

	_, err := tokenUtil2.Validate(tokenString)
	assert.Error(t, err)
}

func TestSessionTokenUtil_Validate_InvalidSigningMethod(t *testing.T) {
	tokenUtil := NewSessionTokenUtil("secret", time.Hour)
	// Create a token with a non-HMAC signing method
	claims := &SessionClaims{
		SessionID: uuid.New().String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	tokenString, _ := token.SignedString(jwt.UnsafeAllowNoneSignatureType)

	_, err := tokenUtil.Validate(tokenString)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected signing method")
}

func TestSessionTokenUtil_Validate_MalformedSessionID(t *testing.T) {
	tokenUtil := NewSessionTokenUtil("secret", time.Hour)
	claims := &SessionClaims{
		SessionID: "not-a-uuid",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, _ := token.SignedString([]byte("secret"))

	_, err := tokenUtil.Validate(tokenString)
	assert.Error(t, err)
}
