package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundtrip(t *testing.T) {
	svc := NewTokenService("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)

	token, err := svc.CreateAccessToken("user-42")
	require.NoError(t, err)

	userID, err := svc.ParseAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", userID)
}

func TestRefreshTokenRoundtrip(t *testing.T) {
	svc := NewTokenService("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)

	token, err := svc.CreateRefreshToken("user-42")
	require.NoError(t, err)

	userID, err := svc.ParseRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", userID)
}

func TestTokensAreNotInterchangeable(t *testing.T) {
	svc := NewTokenService("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)

	access, err := svc.CreateAccessToken("user-42")
	require.NoError(t, err)
	refresh, err := svc.CreateRefreshToken("user-42")
	require.NoError(t, err)

	_, err = svc.ParseRefreshToken(access)
	assert.Error(t, err)
	_, err = svc.ParseAccessToken(refresh)
	assert.Error(t, err)
}

func TestParseRejectsForeignSecret(t *testing.T) {
	svc := NewTokenService("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
	other := NewTokenService("different", "different", 15*time.Minute, 7*24*time.Hour)

	token, err := other.CreateAccessToken("user-42")
	require.NoError(t, err)

	_, err = svc.ParseAccessToken(token)
	assert.Error(t, err)
}

func TestExpiredAccessToken(t *testing.T) {
	svc := NewTokenService("access-secret", "refresh-secret", -time.Minute, 7*24*time.Hour)

	token, err := svc.CreateAccessToken("user-42")
	require.NoError(t, err)

	_, err = svc.ParseAccessToken(token)
	assert.Error(t, err)
}

func TestGenerateAccessCode(t *testing.T) {
	for i := 0; i < 20; i++ {
		code, err := GenerateAccessCode()
		require.NoError(t, err)
		require.Len(t, code, 6)
		for _, r := range code {
			assert.True(t, r >= '0' && r <= '9')
		}
	}
}

func TestAccessCodeHasher(t *testing.T) {
	h := NewAccessCodeHasher(4)

	hashed, err := h.Hash("123456")
	require.NoError(t, err)
	assert.NotEqual(t, "123456", hashed)

	assert.NoError(t, h.Verify("123456", hashed))
	assert.Error(t, h.Verify("654321", hashed))
}
