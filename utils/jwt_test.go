package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lentaproject/lenta/config"
)

func TestTokenRoundTrip(t *testing.T) {
	config.Set(config.AppConfig{JWTSecret: "test-secret"})

	token, err := GenerateToken(42, "leo", time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.EqualValues(t, 42, claims.UserID)
	assert.Equal(t, "leo", claims.Username)
}

func TestExpiredTokenRejected(t *testing.T) {
	config.Set(config.AppConfig{JWTSecret: "test-secret"})

	token, err := GenerateToken(42, "leo", -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(token)
	assert.Error(t, err)
}

func TestGarbageTokenRejected(t *testing.T) {
	config.Set(config.AppConfig{JWTSecret: "test-secret"})

	_, err := ParseToken("not-a-token")
	assert.Error(t, err)
}
