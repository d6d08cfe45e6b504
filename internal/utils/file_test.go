package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsImageFile(t *testing.T) {
	assert.True(t, IsImageFile("a.JPG"))
	assert.True(t, IsImageFile("dir/b.webp"))
	assert.False(t, IsImageFile("notes.txt"))
	assert.False(t, IsImageFile("noext"))
}

func TestListImageFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.png", "a.jpg", ".hidden.jpg", "c.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.jpg"), 0o755))

	files, err := ListImageFiles(dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{filepath.Join(dir, "a.jpg"), filepath.Join(dir, "b.png")}, files)
}

func TestUniquePath(t *testing.T) {
	dir := t.TempDir()
	first := UniquePath(dir, "ebay-2024-1-1-1.jpg")
	assert.Equal(t, filepath.Join(dir, "ebay-2024-1-1-1.jpg"), first)

	require.NoError(t, os.WriteFile(first, []byte("x"), 0o644))
	second := UniquePath(dir, "ebay-2024-1-1-1.jpg")
	assert.Equal(t, filepath.Join(dir, "ebay-2024-1-1-1-1.jpg"), second)

	require.NoError(t, os.WriteFile(second, []byte("x"), 0o644))
	assert.Equal(t, filepath.Join(dir, "ebay-2024-1-1-1-2.jpg"), UniquePath(dir, "ebay-2024-1-1-1.jpg"))
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "a_b_c", SanitizeFilename(" a/b:c. "))
}

func TestFormatFileSize(t *testing.T) {
	assert.Equal(t, "512 B", FormatFileSize(512))
	assert.Equal(t, "1.5 KB", FormatFileSize(1536))
	assert.Equal(t, "2.0 MB", FormatFileSize(2*1024*1024))
}
