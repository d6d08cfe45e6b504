package export

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/product-booth/pkg/types"
)

func photo(name string, data string) types.Photo {
	return types.Photo{ID: 1, Filename: name, Data: []byte(data), Timestamp: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func TestWriteFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")

	path, err := WriteFile(dir, photo("ebay-2024-01-02-3-4-5.jpg", "one"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "ebay-2024-01-02-3-4-5.jpg"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "one", string(data))

	second, err := WriteFile(dir, photo("ebay-2024-01-02-3-4-5.jpg", "two"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "ebay-2024-01-02-3-4-5-1.jpg"), second)
}

func TestWriteFileEmpty(t *testing.T) {
	_, err := WriteFile(t.TempDir(), types.Photo{Filename: "x.jpg"})
	assert.ErrorIs(t, err, ErrEmptyPhoto)
}

func TestWriteFileFallbackName(t *testing.T) {
	p := types.Photo{ID: 42, Data: []byte("x")}
	path, err := WriteFile(t.TempDir(), p)
	require.NoError(t, err)
	assert.Equal(t, "photo-42.jpg", filepath.Base(path))
}

func TestWriteAll(t *testing.T) {
	dir := t.TempDir()
	paths, err := WriteAll(dir, []types.Photo{
		photo("a.jpg", "a"),
		photo("b.jpg", "b"),
	})
	require.NoError(t, err)
	assert.Len(t, paths, 2)

	_, err = WriteAll(dir, []types.Photo{photo("c.jpg", "c"), {Filename: "d.jpg"}})
	assert.ErrorIs(t, err, ErrEmptyPhoto)
	assert.FileExists(t, filepath.Join(dir, "c.jpg"))
}

func TestWriteZip(t *testing.T) {
	a := photo("same.jpg", "first")
	a.Analysis = &types.AnalysisResult{Title: "Newest title"}
	b := photo("same.jpg", "second")
	b.Analysis = &types.AnalysisResult{Title: "Older title"}
	c := photo("other.jpg", "third")

	var buf bytes.Buffer
	require.NoError(t, WriteZip(&buf, []types.Photo{a, b, c}))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	contents := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		contents[f.Name] = string(data)
	}

	assert.Equal(t, map[string]string{
		"same.jpg":   "first",
		"same-1.jpg": "second",
		"other.jpg":  "third",
		TitlesEntry:  "Newest title\nOlder title\n",
	}, contents)
}

func TestWriteZipFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "photos.zip")
	require.NoError(t, WriteZipFile(path, []types.Photo{photo("a.jpg", "a")}))

	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()
	require.Len(t, zr.File, 1)
	assert.Equal(t, "a.jpg", zr.File[0].Name)

	bad := filepath.Join(t.TempDir(), "bad.zip")
	assert.Error(t, WriteZipFile(bad, []types.Photo{{Filename: "x.jpg"}}))
	assert.NoFileExists(t, bad)
}
