package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/product-booth/internal/config"
	"github.com/menta2k/product-booth/internal/prefs"
	"github.com/menta2k/product-booth/pkg/camera"
)

func testApp(t *testing.T) (*app, string) {
	path := filepath.Join(t.TempDir(), "prefs.json")
	cfg := config.Default()
	cfg.Camera.DeviceID = "dir:./config-frames"
	cfg.Camera.Tier = string(camera.TierBalanced)
	return &app{cfg: cfg, prefs: prefs.New(prefs.NewFileStore(path), nil)}, path
}

func TestRememberSavesFlaggedSettings(t *testing.T) {
	a, path := testApp(t)

	require.NoError(t, a.remember("dir:./frames", "dir:./frames", "QUALITY", camera.TierQuality))

	stored := prefs.NewFileStore(path)
	id, err := stored.Get(prefs.KeyCameraID)
	require.NoError(t, err)
	assert.Equal(t, "dir:./frames", id)
	tier, err := stored.Get(prefs.KeyQualityTier)
	require.NoError(t, err)
	assert.Equal(t, "quality", tier)

	// later runs without flags pick up the saved values
	assert.Equal(t, "dir:./frames", a.deviceID(""))
	got, err := a.tier("")
	require.NoError(t, err)
	assert.Equal(t, camera.TierQuality, got)
}

func TestRememberSkipsUnflaggedSettings(t *testing.T) {
	a, path := testApp(t)

	require.NoError(t, a.remember("", "dir:./config-frames", "fast", camera.TierFast))

	stored := prefs.NewFileStore(path)
	_, err := stored.Get(prefs.KeyCameraID)
	assert.ErrorIs(t, err, prefs.ErrNotFound)
	tier, err := stored.Get(prefs.KeyQualityTier)
	require.NoError(t, err)
	assert.Equal(t, "fast", tier)

	assert.Equal(t, "dir:./config-frames", a.deviceID(""))
}

func TestRememberNothingFlagged(t *testing.T) {
	a, path := testApp(t)

	require.NoError(t, a.remember("", "dir:./config-frames", "", camera.TierBalanced))
	assert.NoFileExists(t, path)
}
