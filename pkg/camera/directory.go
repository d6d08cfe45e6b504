package camera

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/menta2k/product-booth/internal/utils"
)

// DirectoryDevice replays still images from a folder as camera frames,
// cycling through them in name order. It stands in for a tethered camera
// that drops shots into a hot folder.
type DirectoryDevice struct {
	dir string
}

// NewDirectoryDevice creates a device backed by dir
func NewDirectoryDevice(dir string) *DirectoryDevice {
	return &DirectoryDevice{dir: dir}
}

func (d *DirectoryDevice) ID() string {
	return "dir:" + d.dir
}

func (d *DirectoryDevice) Label() string {
	return "Folder " + filepath.Base(d.dir)
}

// Open lists the folder and probes the first frame for its native size
func (d *DirectoryDevice) Open(ctx context.Context, c Constraints) (Stream, error) {
	files, err := utils.ListImageFiles(d.dir)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return nil, fmt.Errorf("%w: %v", ErrDeviceAccessDenied, err)
		}
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no image files in %s", d.dir)
	}
	sort.Strings(files)

	probe, err := loadImage(files[0])
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return nil, fmt.Errorf("%w: %v", ErrDeviceAccessDenied, err)
		}
		return nil, fmt.Errorf("probe %s: %w", files[0], err)
	}
	nw, nh := probe.Bounds().Dx(), probe.Bounds().Dy()
	if !accepts(nw, nh, c) {
		return nil, fmt.Errorf("%w: %s is %dx%d", ErrOverconstrained, d.ID(), nw, nh)
	}

	w, h := fittedSize(nw, nh, c)
	return &directoryStream{files: files, constraints: c, width: w, height: h}, nil
}

type directoryStream struct {
	mu          sync.Mutex
	files       []string
	next        int
	constraints Constraints
	width       int
	height      int
	closed      bool
}

func (s *directoryStream) Size() (int, int) {
	return s.width, s.height
}

func (s *directoryStream) Frame(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, os.ErrClosed
	}
	path := s.files[s.next%len(s.files)]
	s.next++
	s.mu.Unlock()

	img, err := loadImage(path)
	if err != nil {
		return nil, fmt.Errorf("read frame %s: %w", path, err)
	}
	return fitTo(img, s.constraints), nil
}

func (s *directoryStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
