package utils_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ritsnep/HimalytixNew-sub007/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	token, err := utils.GenerateJWT("user-1", "secret-secret-secret", time.Hour)
	require.NoError(t, err)

	userID, err := utils.ParseAndValidateJWT(token, "secret-secret-secret")
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestParseAndValidateJWT_Rejects(t *testing.T) {
	expired, err := utils.GenerateJWT("user-1", "secret-secret-secret", -time.Minute)
	require.NoError(t, err)
	_, err = utils.ParseAndValidateJWT(expired, "secret-secret-secret")
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	valid, err := utils.GenerateJWT("user-1", "secret-secret-secret", time.Hour)
	require.NoError(t, err)
	_, err = utils.ParseAndValidateJWT(valid, "another-secret-value")
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)

	anonymous, err := utils.GenerateJWT("", "secret-secret-secret", time.Hour)
	require.NoError(t, err)
	_, err = utils.ParseAndValidateJWT(anonymous, "secret-secret-secret")
	assert.ErrorIs(t, err, utils.ErrMissingSubject)
}
