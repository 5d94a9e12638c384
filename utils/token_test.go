package utils

import (
	"testing"
	"time"

	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/model"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "test-access-key"

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken(TokenMetadata{ID: "s1", Email: "sara@example.com", Name: "Sara", Role: model.RoleStudent}, testKey, time.Hour)
	require.NoError(t, err)

	meta, err := CheckAndExtractTokenMetadata(token, testKey)
	require.NoError(t, err)
	assert.Equal(t, "s1", meta.ID)
	assert.Equal(t, "sara@example.com", meta.Email)
	assert.Equal(t, "Sara", meta.Name)
	assert.Equal(t, model.RoleStudent, meta.Role)
	assert.False(t, meta.Otp)
	assert.Greater(t, meta.Exp, time.Now().Unix())
}

func TestTokenRejected(t *testing.T) {
	token, err := GenerateToken(TokenMetadata{ID: "s1", Role: model.RoleStudent}, testKey, time.Hour)
	require.NoError(t, err)
	_, err = CheckAndExtractTokenMetadata(token, "other-key")
	assert.Error(t, err)

	expired, err := GenerateToken(TokenMetadata{ID: "s1", Role: model.RoleStudent}, testKey, -time.Minute)
	require.NoError(t, err)
	_, err = CheckAndExtractTokenMetadata(expired, testKey)
	assert.Error(t, err)

	hs256, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"id": "s1"}).SignedString([]byte(testKey))
	require.NoError(t, err)
	_, err = CheckAndExtractTokenMetadata(hs256, testKey)
	assert.Error(t, err)
}

func TestExtractTokenMetadataNumericID(t *testing.T) {
	meta, err := ExtractTokenMetadata(jwt.MapClaims{"id": float64(42), "role": "owner", "otp": true})
	require.NoError(t, err)
	assert.Equal(t, "42", meta.ID)
	assert.Equal(t, model.RoleOwner, meta.Role)
	assert.True(t, meta.Otp)

	_, err = ExtractTokenMetadata(jwt.MapClaims{"role": "owner"})
	assert.ErrorIs(t, err, ErrInvalidToken)
}
