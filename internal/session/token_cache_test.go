package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestFileTokenCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	cache := NewFileTokenCache(path)

	cached, err := cache.Load()
	require.NoError(t, err)
	assert.Nil(t, cached)

	require.NoError(t, cache.Save(&CachedSession{Account: alice, Token: &oauth2.Token{AccessToken: "a", RefreshToken: "r"}}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	cached, err = cache.Load()
	require.NoError(t, err)
	assert.Equal(t, alice, cached.Account)
	assert.Equal(t, "r", cached.Token.RefreshToken)

	require.NoError(t, cache.Clear())
	require.NoError(t, cache.Clear())
	cached, err = cache.Load()
	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestFileTokenCache_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFileTokenCache(path).Load()
	assert.Error(t, err)
}
