package productbooth

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/menta2k/product-booth/internal/config"
	"github.com/menta2k/product-booth/pkg/camera"
)

// NewDeviceRegistry enumerates the camera devices named in cfg. Snapshot
// sources with an invalid URL are skipped with a warning.
func NewDeviceRegistry(cfg config.CameraConfig, hc *http.Client) *camera.Registry {
	reg := camera.NewRegistry()
	for _, dir := range cfg.Folders {
		reg.Add(camera.NewDirectoryDevice(dir))
	}
	for _, s := range cfg.Snapshots {
		dev, err := camera.NewSnapshotDevice(s.ID, s.Label, s.URL, hc)
		if err != nil {
			log.Warn().Err(err).Str("url", s.URL).Msg("skipping snapshot camera")
			continue
		}
		reg.Add(dev)
	}
	return reg
}

// OpenCamera selects the preferred device, or the first one, and acquires
// a stream at the given tier with constraint fallback.
func OpenCamera(ctx context.Context, reg *camera.Registry, preferredID string, tier camera.Tier) (camera.Device, camera.Stream, error) {
	dev, err := reg.Select(preferredID)
	if err != nil {
		return nil, nil, err
	}
	stream, err := camera.Acquire(ctx, dev, tier)
	if err != nil {
		return dev, nil, err
	}
	return dev, stream, nil
}

// Trigger debounces the capture key. At most one trigger passes per
// cooldown interval; a zero cooldown lets every trigger through.
type Trigger struct {
	limiter *rate.Limiter
}

// NewTrigger creates a Trigger with the given cooldown
func NewTrigger(cooldown time.Duration) *Trigger {
	limit := rate.Inf
	if cooldown > 0 {
		limit = rate.Every(cooldown)
	}
	return &Trigger{limiter: rate.NewLimiter(limit, 1)}
}

// Allow reports whether a trigger now should fire
func (t *Trigger) Allow() bool {
	return t.AllowAt(time.Now())
}

// AllowAt reports whether a trigger at now should fire
func (t *Trigger) AllowAt(now time.Time) bool {
	return t.limiter.AllowN(now, 1)
}
