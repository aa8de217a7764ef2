package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	ju := NewJWTUtil("test-secret", time.Hour)

	token, err := ju.GenerateToken(42)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ju.ValidateToken(token)
	require.NoError(t, err)

	id, err := claims.SubjectID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.NotNil(t, claims.IssuedAt)
	assert.NotNil(t, claims.ExpiresAt)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	ju := NewJWTUtil("test-secret", time.Hour)
	token, err := ju.GenerateToken(42)
	require.NoError(t, err)

	other := NewJWTUtil("different-secret", time.Hour)
	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateToken_Expired(t *testing.T) {
	ju := NewJWTUtil("test-secret", -time.Minute)
	token, err := ju.GenerateToken(42)
	require.NoError(t, err)

	_, err = ju.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateToken_Garbage(t *testing.T) {
	ju := NewJWTUtil("test-secret", time.Hour)
	_, err := ju.ValidateToken("not.a.token")
	assert.Error(t, err)
}
