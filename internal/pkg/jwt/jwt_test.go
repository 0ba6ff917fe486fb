package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	secret := []byte("secret")
	token, err := GenerateToken("user-1", "a@example.com", secret, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(token, secret)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
	require.Equal(t, "a@example.com", claims.Email)

	_, err = ParseToken(token, []byte("other"))
	require.Error(t, err)
}

func TestScopedToken(t *testing.T) {
	secret := []byte("secret")
	token, err := GenerateScopedToken(ScopeGuestAccess, "share-token", secret, time.Minute)
	require.NoError(t, err)

	require.NoError(t, VerifyScopedToken(token, ScopeGuestAccess, "share-token", secret))
	require.Error(t, VerifyScopedToken(token, ScopeFileDownload, "share-token", secret))
	require.Error(t, VerifyScopedToken(token, ScopeGuestAccess, "other-token", secret))
	require.Error(t, VerifyScopedToken("", ScopeGuestAccess, "share-token", secret))
}

func TestScopedTokenExpired(t *testing.T) {
	secret := []byte("secret")
	token, err := GenerateScopedToken(ScopeFileDownload, "key", secret, -time.Minute)
	require.NoError(t, err)
	require.Error(t, VerifyScopedToken(token, ScopeFileDownload, "key", secret))
}
