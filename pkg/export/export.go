// Package export writes captured photos to disk or into a zip archive.
package export

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/rs/zerolog/log"

	"github.com/menta2k/product-booth/internal/utils"
	"github.com/menta2k/product-booth/pkg/types"
)

// TitlesEntry is the archive entry listing analysis titles, newest first
const TitlesEntry = "titles.txt"

// ErrEmptyPhoto means a photo carries no encoded data
var ErrEmptyPhoto = errors.New("photo has no data")

// WriteFile writes the photo JPEG into dir under its filename, adding a
// numeric suffix when the name is taken. It returns the written path.
func WriteFile(dir string, photo types.Photo) (string, error) {
	if len(photo.Data) == 0 {
		return "", fmt.Errorf("%s: %w", photo.Filename, ErrEmptyPhoto)
	}
	if err := utils.EnsureDir(dir); err != nil {
		return "", err
	}

	path := utils.UniquePath(dir, entryName(photo))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := f.Write(photo.Data); err != nil {
		f.Close()
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}

	log.Debug().Str("path", path).Int("bytes", len(photo.Data)).Msg("photo written")
	return path, nil
}

// WriteAll writes every photo into dir and returns the written paths. It
// stops at the first failure.
func WriteAll(dir string, photos []types.Photo) ([]string, error) {
	paths := make([]string, 0, len(photos))
	for _, p := range photos {
		path, err := WriteFile(dir, p)
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// WriteZip archives the photos to w. JPEG entries are stored since they
// do not compress further; a titles.txt entry is added when any photo has
// an analysis title.
func WriteZip(w io.Writer, photos []types.Photo) error {
	zw := zip.NewWriter(w)
	used := make(map[string]bool)
	var titles []string

	for _, p := range photos {
		if len(p.Data) == 0 {
			return fmt.Errorf("%s: %w", p.Filename, ErrEmptyPhoto)
		}

		name := uniqueEntry(used, entryName(p))

		header := &zip.FileHeader{
			Name:   name,
			Method: zip.Store,
		}
		if !p.Timestamp.IsZero() {
			header.Modified = p.Timestamp
		}
		entry, err := zw.CreateHeader(header)
		if err != nil {
			return fmt.Errorf("create zip entry for %s: %w", name, err)
		}
		if _, err := entry.Write(p.Data); err != nil {
			return fmt.Errorf("write zip entry for %s: %w", name, err)
		}

		if p.Analysis != nil && p.Analysis.Title != "" {
			titles = append(titles, p.Analysis.Title)
		}
	}

	if len(titles) > 0 {
		entry, err := zw.CreateHeader(&zip.FileHeader{Name: TitlesEntry, Method: zip.Deflate})
		if err != nil {
			return fmt.Errorf("create zip entry for %s: %w", TitlesEntry, err)
		}
		if _, err := io.WriteString(entry, strings.Join(titles, "\n")+"\n"); err != nil {
			return fmt.Errorf("write zip entry for %s: %w", TitlesEntry, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("close zip writer: %w", err)
	}
	return nil
}

// WriteZipFile creates path and archives the photos into it
func WriteZipFile(path string, photos []types.Photo) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteZip(f, photos); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

func uniqueEntry(used map[string]bool, name string) string {
	candidate := name
	ext := filepath.Ext(name)
	for i := 1; used[candidate]; i++ {
		candidate = fmt.Sprintf("%s-%d%s", strings.TrimSuffix(name, ext), i, ext)
	}
	used[candidate] = true
	return candidate
}

func entryName(p types.Photo) string {
	name := utils.SanitizeFilename(p.Filename)
	if name == "" || name == "." {
		name = fmt.Sprintf("photo-%s.jpg", p.ID)
	}
	if utils.GetFileExtension(name) == "" {
		name += ".jpg"
	}
	return name
}
