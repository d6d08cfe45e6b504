package capture

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/product-booth/pkg/types"
)

func createTestImage(width, height int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	return img
}

type stubStream struct {
	img image.Image
	err error
}

func (s *stubStream) Size() (int, int) {
	return s.img.Bounds().Dx(), s.img.Bounds().Dy()
}

func (s *stubStream) Frame(ctx context.Context) (image.Image, error) {
	return s.img, s.err
}

func (s *stubStream) Close() error { return nil }

func TestComputeCrop(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		fraction      float64
		want          types.Region
	}{
		{"landscape 1080p", 1920, 1080, 0.8, types.Region{X: 528, Y: 108, Size: 864}},
		{"portrait", 1080, 1920, 0.8, types.Region{X: 108, Y: 528, Size: 864}},
		{"square", 1000, 1000, 0.8, types.Region{X: 100, Y: 100, Size: 800}},
		{"odd sizes floor", 641, 479, 0.8, types.Region{X: 129, Y: 48, Size: 383}},
		{"full frame", 640, 480, 1, types.Region{X: 80, Y: 0, Size: 480}},
		{"invalid fraction uses default", 1000, 1000, 1.5, types.Region{X: 100, Y: 100, Size: 800}},
		{"tiny frame", 1, 1, 0.8, types.Region{X: 0, Y: 0, Size: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeCrop(tt.width, tt.height, tt.fraction))
		})
	}
}

func TestComputeCropStaysInFrame(t *testing.T) {
	for w := 1; w <= 64; w += 7 {
		for h := 1; h <= 64; h += 5 {
			r := ComputeCrop(w, h, DefaultCropFraction)
			assert.GreaterOrEqual(t, r.X, 0)
			assert.GreaterOrEqual(t, r.Y, 0)
			assert.GreaterOrEqual(t, r.Size, 1)
			assert.LessOrEqual(t, r.X+r.Size, w)
			assert.LessOrEqual(t, r.Y+r.Size, h)
		}
	}
}

func TestFilename(t *testing.T) {
	loc := time.FixedZone("test", 2*60*60)
	ts := time.Date(2024, 3, 5, 9, 4, 7, 0, loc)

	assert.Equal(t, "ebay-2024-03-05-9-4-7.jpg", Filename(ts, StyleBasic, 1500))
	assert.Equal(t, "ebay-product-2024-03-05-9-4-7-1500px.jpg", Filename(ts, StyleSized, 1500))
}

func TestFilenameUsesUTCDate(t *testing.T) {
	// 01:30 local on the 5th is still the 4th in UTC
	loc := time.FixedZone("east", 3*60*60)
	ts := time.Date(2024, 3, 5, 1, 30, 0, 0, loc)

	assert.Equal(t, "ebay-2024-03-04-1-30-0.jpg", Filename(ts, StyleBasic, 1500))
}

func TestParseStyle(t *testing.T) {
	s, err := ParseStyle("SIZED")
	require.NoError(t, err)
	assert.Equal(t, StyleSized, s)

	s, err = ParseStyle("")
	require.NoError(t, err)
	assert.Equal(t, StyleBasic, s)

	_, err = ParseStyle("fancy")
	assert.Error(t, err)
}

func TestJPEGQuality(t *testing.T) {
	assert.Equal(t, 95, JPEGQuality(0.95))
	assert.Equal(t, 90, JPEGQuality(0.90))
	assert.Equal(t, 1, JPEGQuality(0))
	assert.Equal(t, 100, JPEGQuality(2))
}

func TestProcess(t *testing.T) {
	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	p := New()
	p.SetClock(func() time.Time { return fixed })

	res, err := p.Process(context.Background(), createTestImage(640, 480))
	require.NoError(t, err)

	assert.Equal(t, DefaultOutputSize, res.Width)
	assert.Equal(t, DefaultOutputSize, res.Height)
	assert.Equal(t, types.Region{X: 128, Y: 48, Size: 384}, res.Region)
	assert.Equal(t, fixed, res.Timestamp)
	assert.Equal(t, "ebay-2024-06-01-12-0-0.jpg", res.Filename)
	assert.NotEmpty(t, res.Data)

	decoded, err := imaging.Decode(bytes.NewReader(res.Data))
	require.NoError(t, err)
	assert.Equal(t, DefaultOutputSize, decoded.Bounds().Dx())
	assert.Equal(t, DefaultOutputSize, decoded.Bounds().Dy())
}

func TestProcessCustomSize(t *testing.T) {
	p := NewWithConfig(Config{CropFraction: 0.5, OutputSize: 200, Quality: 0.8, Style: StyleSized})

	res, err := p.Process(context.Background(), createTestImage(400, 400))
	require.NoError(t, err)
	assert.Equal(t, 200, res.Region.Size)
	assert.Contains(t, res.Filename, "-200px.jpg")

	decoded, err := imaging.Decode(bytes.NewReader(res.Data))
	require.NoError(t, err)
	assert.Equal(t, 200, decoded.Bounds().Dx())
}

func TestProcessOffsetBounds(t *testing.T) {
	base := createTestImage(300, 300).(*image.NRGBA)
	sub := base.SubImage(image.Rect(50, 50, 250, 250))

	p := NewWithConfig(Config{CropFraction: 1, OutputSize: 64, Quality: 0.9})
	res, err := p.Process(context.Background(), sub)
	require.NoError(t, err)
	assert.Equal(t, 200, res.SourceWidth)
	assert.Equal(t, 200, res.Region.Size)
}

func TestProcessEncodeFailure(t *testing.T) {
	p := New()
	p.encode = func(w io.Writer, img image.Image, quality int) error {
		return errors.New("boom")
	}

	_, err := p.Process(context.Background(), createTestImage(100, 100))
	assert.ErrorIs(t, err, ErrEncodeFailure)

	p.encode = func(w io.Writer, img image.Image, quality int) error { return nil }
	_, err = p.Process(context.Background(), createTestImage(100, 100))
	assert.ErrorIs(t, err, ErrEncodeFailure)
}

func TestProcessEmptyFrame(t *testing.T) {
	_, err := New().Process(context.Background(), image.NewNRGBA(image.Rect(0, 0, 0, 0)))
	assert.Error(t, err)
}

func TestCapture(t *testing.T) {
	p := NewWithConfig(Config{CropFraction: 0.8, OutputSize: 100, Quality: 0.9})

	res, err := p.Capture(context.Background(), &stubStream{img: createTestImage(320, 240)})
	require.NoError(t, err)
	assert.Equal(t, 100, res.Width)

	_, err = p.Capture(context.Background(), &stubStream{img: createTestImage(1, 1), err: errors.New("gone")})
	assert.Error(t, err)
}
