package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/opsdesk/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(expiration time.Duration) *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:          "test-secret-key-for-unit-tests",
		Issuer:          "opsdesk-test",
		TokenExpiration: expiration,
	})
}

func TestJWTService_GenerateAndValidate(t *testing.T) {
	svc := newTestService(time.Hour)
	userID := uuid.New()

	token, err := svc.GenerateToken(userID, "priya")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "priya", claims.Username)
	assert.Equal(t, "opsdesk-test", claims.Issuer)

	parsed, err := claims.GetUserUUID()
	require.NoError(t, err)
	assert.Equal(t, userID, parsed)
}

func TestJWTService_ValidateToken_Errors(t *testing.T) {
	t.Run("expired token", func(t *testing.T) {
		svc := newTestService(-time.Minute)
		token, err := svc.GenerateToken(uuid.New(), "priya")
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("garbage token", func(t *testing.T) {
		svc := newTestService(time.Hour)
		_, err := svc.ValidateToken("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		svc := newTestService(time.Hour)
		token, err := svc.GenerateToken(uuid.New(), "priya")
		require.NoError(t, err)

		other := NewJWTService(config.JWTConfig{
			Secret:          "a-different-secret",
			Issuer:          "opsdesk-test",
			TokenExpiration: time.Hour,
		})
		_, err = other.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
