// Package camera models video-input devices as frame streams.
//
// A Device is opened with a resolution Constraints set and yields a Stream
// of frames with known native dimensions. Acquire walks a fallback chain of
// constraint sets derived from a quality Tier until a device accepts one.
package camera

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/rs/zerolog/log"
)

var (
	// ErrDeviceAccessDenied means the device refused access. It is not
	// recoverable without user action.
	ErrDeviceAccessDenied = errors.New("device access denied")
	// ErrNoCompatibleResolution means every constraint set was rejected
	ErrNoCompatibleResolution = errors.New("no compatible resolution")
	// ErrOverconstrained is returned by Device.Open when it cannot satisfy
	// a constraint set; Acquire moves on to the next one.
	ErrOverconstrained = errors.New("constraints cannot be satisfied")
	// ErrNoDevices means enumeration found nothing
	ErrNoDevices = errors.New("no video input devices")
)

// Tier is a resolution preference
type Tier string

const (
	TierFast     Tier = "fast"
	TierBalanced Tier = "balanced"
	TierQuality  Tier = "quality"
)

// Tiers lists the tiers from highest to lowest resolution
func Tiers() []Tier {
	return []Tier{TierQuality, TierBalanced, TierFast}
}

// ParseTier parses a tier name, case-insensitively
func ParseTier(s string) (Tier, error) {
	switch t := Tier(strings.ToLower(strings.TrimSpace(s))); t {
	case TierFast, TierBalanced, TierQuality:
		return t, nil
	case "":
		return TierBalanced, nil
	}
	return "", fmt.Errorf("unknown quality tier %q (use fast, balanced or quality)", s)
}

// Resolution returns the ideal frame size of the tier
func (t Tier) Resolution() (width, height int) {
	switch t {
	case TierFast:
		return 1280, 720
	case TierQuality:
		return 3840, 2160
	default:
		return 1920, 1080
	}
}

// Constraints requests a frame size. The zero value accepts any resolution.
type Constraints struct {
	Width  int
	Height int
}

// Any reports whether no resolution is requested
func (c Constraints) Any() bool {
	return c.Width <= 0 || c.Height <= 0
}

func (c Constraints) String() string {
	if c.Any() {
		return "any"
	}
	return fmt.Sprintf("%dx%d", c.Width, c.Height)
}

// FallbackChain returns the requested tier, every lower tier, and finally
// the unconstrained set.
func FallbackChain(tier Tier) []Constraints {
	var chain []Constraints
	started := false
	for _, t := range Tiers() {
		if t == tier {
			started = true
		}
		if started {
			w, h := t.Resolution()
			chain = append(chain, Constraints{Width: w, Height: h})
		}
	}
	if !started {
		w, h := TierBalanced.Resolution()
		chain = append(chain, Constraints{Width: w, Height: h})
		w, h = TierFast.Resolution()
		chain = append(chain, Constraints{Width: w, Height: h})
	}
	return append(chain, Constraints{})
}

// Device is a selectable video input
type Device interface {
	ID() string
	Label() string
	Open(ctx context.Context, c Constraints) (Stream, error)
}

// Stream is an open device delivering frames
type Stream interface {
	// Size returns the native frame dimensions
	Size() (width, height int)
	// Frame grabs the current frame
	Frame(ctx context.Context) (image.Image, error)
	Close() error
}

// Acquire opens dev with the first constraint set of the tier's fallback
// chain that the device accepts.
func Acquire(ctx context.Context, dev Device, tier Tier) (Stream, error) {
	var lastErr error
	for _, c := range FallbackChain(tier) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		stream, err := dev.Open(ctx, c)
		if err == nil {
			w, h := stream.Size()
			log.Debug().Str("device", dev.ID()).Str("constraints", c.String()).
				Int("width", w).Int("height", h).Msg("camera stream opened")
			return stream, nil
		}
		if errors.Is(err, ErrDeviceAccessDenied) {
			return nil, err
		}
		if !errors.Is(err, ErrOverconstrained) {
			return nil, fmt.Errorf("open %s: %w", dev.ID(), err)
		}
		log.Debug().Str("device", dev.ID()).Str("constraints", c.String()).Msg("constraints rejected, falling back")
		lastErr = err
	}
	return nil, fmt.Errorf("%w: %s (%v)", ErrNoCompatibleResolution, dev.ID(), lastErr)
}
