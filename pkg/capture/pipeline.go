package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"time"

	"github.com/disintegration/imaging"

	"github.com/menta2k/product-booth/pkg/camera"
	"github.com/menta2k/product-booth/pkg/types"
)

// Capture defaults
const (
	DefaultCropFraction = 0.8
	DefaultOutputSize   = 1500
	DefaultQuality      = 0.95
)

// ErrEncodeFailure means the JPEG encoder produced no usable output
var ErrEncodeFailure = errors.New("encode failure")

// Config holds the capture geometry and encoding parameters
type Config struct {
	CropFraction float64
	OutputSize   int
	Quality      float64 // JPEG quality in [0,1]
	Style        FilenameStyle
}

// Pipeline crops, resamples and encodes frames into listing photos
type Pipeline struct {
	config Config
	clock  func() time.Time
	encode func(w io.Writer, img image.Image, quality int) error
}

// Result is an encoded capture
type Result struct {
	Data         []byte
	Width        int
	Height       int
	Timestamp    time.Time
	Filename     string
	Region       types.Region
	SourceWidth  int
	SourceHeight int
}

// DefaultConfig returns the standard listing photo parameters
func DefaultConfig() Config {
	return Config{
		CropFraction: DefaultCropFraction,
		OutputSize:   DefaultOutputSize,
		Quality:      DefaultQuality,
		Style:        StyleBasic,
	}
}

// New creates a Pipeline with default configuration
func New() *Pipeline {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates a Pipeline with custom configuration
func NewWithConfig(config Config) *Pipeline {
	if config.OutputSize <= 0 {
		config.OutputSize = DefaultOutputSize
	}
	if config.Style == "" {
		config.Style = StyleBasic
	}
	return &Pipeline{
		config: config,
		clock:  time.Now,
		encode: encodeJPEG,
	}
}

// SetClock replaces the wall clock used for timestamps and filenames
func (p *Pipeline) SetClock(clock func() time.Time) {
	p.clock = clock
}

// Config returns the active configuration
func (p *Pipeline) Config() Config {
	return p.config
}

// Capture grabs the current frame of stream and processes it
func (p *Pipeline) Capture(ctx context.Context, stream camera.Stream) (*Result, error) {
	frame, err := stream.Frame(ctx)
	if err != nil {
		return nil, fmt.Errorf("grab frame: %w", err)
	}
	return p.Process(ctx, frame)
}

// Process crops the centered square of img, resamples it to
// OutputSize×OutputSize and encodes it as JPEG. The timestamp and
// filename are taken after encoding.
func (p *Pipeline) Process(ctx context.Context, img image.Image) (*Result, error) {
	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if srcW == 0 || srcH == 0 {
		return nil, fmt.Errorf("invalid frame dimensions %dx%d", srcW, srcH)
	}

	region := ComputeCrop(srcW, srcH, p.config.CropFraction)
	rect := image.Rect(
		bounds.Min.X+region.X,
		bounds.Min.Y+region.Y,
		bounds.Min.X+region.X+region.Size,
		bounds.Min.Y+region.Y+region.Size,
	)

	var dst image.Image = imaging.Crop(img, rect)
	size := p.config.OutputSize
	if region.Size != size {
		dst = imaging.Resize(dst, size, size, imaging.CatmullRom)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := p.encode(&buf, dst, JPEGQuality(p.config.Quality)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncodeFailure, err)
	}
	if buf.Len() == 0 {
		return nil, fmt.Errorf("%w: encoder produced no data", ErrEncodeFailure)
	}

	ts := p.clock()
	return &Result{
		Data:         buf.Bytes(),
		Width:        size,
		Height:       size,
		Timestamp:    ts,
		Filename:     Filename(ts, p.config.Style, size),
		Region:       region,
		SourceWidth:  srcW,
		SourceHeight: srcH,
	}, nil
}

// JPEGQuality maps a [0,1] quality to the encoder's 1..100 scale
func JPEGQuality(q float64) int {
	if math.IsNaN(q) {
		q = DefaultQuality
	}
	v := int(math.Round(q * 100))
	if v < 1 {
		return 1
	}
	if v > 100 {
		return 100
	}
	return v
}

func encodeJPEG(w io.Writer, img image.Image, quality int) error {
	return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality))
}
