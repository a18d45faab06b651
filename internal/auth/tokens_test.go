package auth

import (
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookreviewapp/bookreview-server/internal/domain"
)

const testKeyHex = "707172737475767778797a7b7c7d7e7f808182838485868788898a8b8c8d8e8f"

func newTestTokenService(t *testing.T, d time.Duration) *TokenService {
	t.Helper()
	svc, err := NewTokenService(testKeyHex, d)
	require.NoError(t, err)
	return svc
}

func TestTokenService_RoundTrip(t *testing.T) {
	svc := newTestTokenService(t, time.Hour)

	token, err := svc.GenerateAccessToken(&domain.User{ID: 42, Email: "ada@example.com", IsAdmin: true})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(token, "v4.local."))

	claims, err := svc.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.True(t, claims.IsAdmin)
	assert.True(t, strings.HasPrefix(claims.TokenID, "tok-"))
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.Expiration, time.Minute)
}

func TestTokenService_Rejects(t *testing.T) {
	svc := newTestTokenService(t, time.Hour)
	good, err := svc.GenerateAccessToken(&domain.User{ID: 7})
	require.NoError(t, err)

	expired, err := newTestTokenService(t, -time.Minute).GenerateAccessToken(&domain.User{ID: 7})
	require.NoError(t, err)

	otherKey, err := NewTokenService(strings.Repeat("ab", 32), time.Hour)
	require.NoError(t, err)
	foreign, err := otherKey.GenerateAccessToken(&domain.User{ID: 7})
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"tampered", good[:len(good)-4] + "AAAA"},
		{"expired", expired},
		{"wrong key", foreign},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.VerifyAccessToken(tt.token)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidToken))
		})
	}
}

func TestNewTokenService_BadKey(t *testing.T) {
	_, err := NewTokenService("abc", time.Hour)
	assert.Error(t, err)

	_, err = NewTokenService(strings.Repeat("zz", 32), time.Hour)
	assert.Error(t, err)
}

func TestLoadOrGenerateKey(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "nested", "auth.key")

	key, err := LoadOrGenerateKey(keyPath)
	require.NoError(t, err)
	assert.Len(t, key, keyLength)

	info, err := os.Stat(keyPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	again, err := LoadOrGenerateKey(keyPath)
	require.NoError(t, err)
	assert.Equal(t, key, again)

	require.NoError(t, os.WriteFile(keyPath, []byte("short"), 0o600))
	_, err = LoadOrGenerateKey(keyPath)
	assert.Error(t, err)
}

func TestResolveKey(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "auth.key")

	configured, err := ResolveKey("  "+testKeyHex+" ", keyPath)
	require.NoError(t, err)
	assert.Equal(t, testKeyHex, configured)
	assert.NoFileExists(t, keyPath)

	generated, err := ResolveKey("", keyPath)
	require.NoError(t, err)
	_, err = hex.DecodeString(generated)
	assert.NoError(t, err)
	assert.Len(t, generated, keyHexLength)

	_, err = NewTokenService(generated, time.Hour)
	assert.NoError(t, err)
}
