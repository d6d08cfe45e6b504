package camera

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// loadImage loads a still frame from a file path with WebP support
func loadImage(path string) (image.Image, error) {
	// Try imaging.Open (registered decoders), honouring EXIF orientation
	if img, err := imaging.Open(path, imaging.AutoOrientation(true)); err == nil {
		return img, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if strings.HasSuffix(strings.ToLower(path), ".webp") {
		if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
			return img, nil
		}
	}
	return decodeImageFromBytes(data)
}

// decodeImageFromBytes decodes an image from byte data with WebP support
func decodeImageFromBytes(data []byte) (image.Image, error) {
	if img, _, err := image.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}

	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}

	return nil, fmt.Errorf("image: unknown or unsupported format")
}

// fitTo scales img down so it fits within c, preserving aspect ratio
func fitTo(img image.Image, c Constraints) image.Image {
	if c.Any() {
		return img
	}
	b := img.Bounds()
	if b.Dx() <= c.Width && b.Dy() <= c.Height {
		return img
	}
	return imaging.Fit(img, c.Width, c.Height, imaging.Lanczos)
}

// fittedSize is the size fitTo would produce for a w×h frame
func fittedSize(w, h int, c Constraints) (int, int) {
	if c.Any() || (w <= c.Width && h <= c.Height) {
		return w, h
	}
	sw := float64(c.Width) / float64(w)
	sh := float64(c.Height) / float64(h)
	s := sw
	if sh < s {
		s = sh
	}
	fw, fh := int(float64(w)*s+0.5), int(float64(h)*s+0.5)
	if fw < 1 {
		fw = 1
	}
	if fh < 1 {
		fh = 1
	}
	return fw, fh
}

// accepts reports whether a native w×h source can honour c. A source
// never upscales, so constraints larger than the native frame are rejected.
func accepts(w, h int, c Constraints) bool {
	if c.Any() {
		return true
	}
	return w >= c.Width && h >= c.Height
}
