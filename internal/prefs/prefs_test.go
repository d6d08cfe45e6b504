package prefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "prefs.json")
	s := NewFileStore(path)

	_, err := s.Get(KeyCameraID)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(KeyCameraID, "dir:/frames"))
	require.NoError(t, s.Set(KeyQualityTier, "quality"))

	reopened := NewFileStore(path)
	v, err := reopened.Get(KeyCameraID)
	require.NoError(t, err)
	assert.Equal(t, "dir:/frames", v)

	keys, err := reopened.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{KeyCameraID, KeyQualityTier}, keys)

	require.NoError(t, reopened.Delete(KeyCameraID))
	require.NoError(t, reopened.Delete(KeyCameraID))
	_, err = reopened.Get(KeyCameraID)
	assert.ErrorIs(t, err, ErrNotFound)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestFileStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))

	_, err := NewFileStore(path).Get(KeyCameraID)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestKeyringStore(t *testing.T) {
	keyring.MockInit()
	s := NewKeyringStore(KeyringService, "tester")

	_, err := s.Get(KeyAPIKey)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(KeyAPIKey, "sk-test"))
	v, err := s.Get(KeyAPIKey)
	require.NoError(t, err)
	assert.Equal(t, "sk-test", v)

	require.NoError(t, s.Delete(KeyAPIKey))
	require.NoError(t, s.Delete(KeyAPIKey))
	_, err = s.Get(KeyAPIKey)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPreferencesRouting(t *testing.T) {
	keyring.MockInit()
	file := NewFileStore(filepath.Join(t.TempDir(), "prefs.json"))
	secret := NewKeyringStore(KeyringService, "")
	p := New(file, secret)

	assert.Equal(t, "", p.APIKey())
	require.NoError(t, p.SetAPIKey("sk-secret"))
	require.NoError(t, p.SetCameraID("cam-1"))
	require.NoError(t, p.SetQualityTier("fast"))

	assert.Equal(t, "sk-secret", p.APIKey())
	assert.Equal(t, "cam-1", p.CameraID())
	assert.Equal(t, "fast", p.QualityTier())

	_, err := file.Get(KeyAPIKey)
	assert.ErrorIs(t, err, ErrNotFound, "credential never lands in the plain file")

	require.NoError(t, p.Unset(KeyAPIKey))
	assert.Equal(t, "", p.APIKey())
}

func TestPreferencesWithoutSecretStore(t *testing.T) {
	file := NewFileStore(filepath.Join(t.TempDir(), "prefs.json"))
	p := New(file, nil)

	require.NoError(t, p.SetAPIKey("sk-plain"))
	v, err := file.Get(KeyAPIKey)
	require.NoError(t, err)
	assert.Equal(t, "sk-plain", v)
}

func TestKnown(t *testing.T) {
	assert.True(t, Known(KeyQualityTier))
	assert.False(t, Known("theme"))
}
