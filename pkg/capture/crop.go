package capture

import (
	"math"

	"github.com/menta2k/product-booth/pkg/types"
)

// ComputeCrop returns the centered square whose side is fraction of the
// smaller frame dimension. Fractions outside (0,1] fall back to
// DefaultCropFraction. The region always lies inside the frame.
func ComputeCrop(width, height int, fraction float64) types.Region {
	if fraction <= 0 || fraction > 1 || math.IsNaN(fraction) {
		fraction = DefaultCropFraction
	}

	short := width
	if height < short {
		short = height
	}
	if short < 1 {
		return types.Region{}
	}

	size := int(math.Floor(float64(short) * fraction))
	if size < 1 {
		size = 1
	}
	if size > short {
		size = short
	}

	x := (width - size) / 2
	y := (height - size) / 2
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	return types.Region{X: x, Y: y, Size: size}
}
