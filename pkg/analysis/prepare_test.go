package analysis

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"math/rand"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noisyJPEG produces a JPEG that does not compress well
func noisyJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	rng := rand.New(rand.NewSource(1))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.NRGBA{uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256)), 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(95)))
	return buf.Bytes()
}

func TestPrepareSmallImageUnchanged(t *testing.T) {
	p := NewPreparer()
	data := noisyJPEG(t, 64, 64)
	require.Less(t, len(data), p.Threshold)

	out, err := p.Prepare(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestPrepareDownsamplesLargeImage(t *testing.T) {
	p := NewPreparer()
	data := noisyJPEG(t, 1500, 1500)
	require.GreaterOrEqual(t, len(data), p.Threshold)

	out, err := p.Prepare(context.Background(), data)
	require.NoError(t, err)

	img, err := imaging.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 1000, img.Bounds().Dx())
	assert.Equal(t, 1000, img.Bounds().Dy())
}

func TestPrepareKeepsAspectRatio(t *testing.T) {
	p := &Preparer{Threshold: 1, MaxWidth: 100, Quality: 0.9}
	data := noisyJPEG(t, 400, 200)

	out, err := p.Prepare(context.Background(), data)
	require.NoError(t, err)

	img, err := imaging.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 50, img.Bounds().Dy())
}

func TestPrepareRejectsGarbage(t *testing.T) {
	p := &Preparer{Threshold: 1, MaxWidth: 100, Quality: 0.9}
	_, err := p.Prepare(context.Background(), []byte("not an image"))
	assert.Error(t, err)
}

func TestPrepareAsync(t *testing.T) {
	p := NewPreparer()
	data := noisyJPEG(t, 32, 32)

	ch := p.PrepareAsync(context.Background(), data)
	res, ok := <-ch
	require.True(t, ok)
	require.NoError(t, res.Err)
	assert.Equal(t, data, res.Data)

	_, ok = <-ch
	assert.False(t, ok, "channel is closed after one result")
}
