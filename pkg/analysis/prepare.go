package analysis

import (
	"bytes"
	"context"
	"fmt"

	"github.com/disintegration/imaging"

	"github.com/menta2k/product-booth/pkg/capture"
)

// Payload bounds applied before an image is sent to the vision model
const (
	DefaultThreshold = 500000
	DefaultMaxWidth  = 1000
	DefaultQuality   = 0.90
)

// Preparer bounds the request payload by downsampling large images
type Preparer struct {
	Threshold int     // images below this many bytes are sent as-is
	MaxWidth  int     // maximum width after downsampling
	Quality   float64 // re-encode quality in [0,1]
}

// NewPreparer returns a Preparer with the default bounds
func NewPreparer() *Preparer {
	return &Preparer{
		Threshold: DefaultThreshold,
		MaxWidth:  DefaultMaxWidth,
		Quality:   DefaultQuality,
	}
}

// Prepared is the outcome of an asynchronous preparation
type Prepared struct {
	Data []byte
	Err  error
}

// Prepare returns data unchanged when it is below the threshold; otherwise
// it decodes, scales to at most MaxWidth preserving aspect ratio, and
// re-encodes as JPEG.
func (p *Preparer) Prepare(ctx context.Context, data []byte) ([]byte, error) {
	if len(data) < p.Threshold {
		return data, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image for analysis: %w", err)
	}

	if p.MaxWidth > 0 && img.Bounds().Dx() > p.MaxWidth {
		img = imaging.Resize(img, p.MaxWidth, 0, imaging.Lanczos)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(capture.JPEGQuality(p.Quality))); err != nil {
		return nil, fmt.Errorf("re-encode image for analysis: %w", err)
	}
	return buf.Bytes(), nil
}

// PrepareAsync runs Prepare on its own goroutine. The channel yields
// exactly one value and is then closed.
func (p *Preparer) PrepareAsync(ctx context.Context, data []byte) <-chan Prepared {
	out := make(chan Prepared, 1)
	go func() {
		defer close(out)
		b, err := p.Prepare(ctx, data)
		out <- Prepared{Data: b, Err: err}
	}()
	return out
}
