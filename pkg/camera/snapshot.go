package camera

import (
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// SnapshotDevice pulls frames from an IP camera's still-image URL
type SnapshotDevice struct {
	id         string
	label      string
	url        string
	httpClient *http.Client
}

// NewSnapshotDevice creates a device for a snapshot URL (http or https)
func NewSnapshotDevice(id, label, snapshotURL string, httpClient *http.Client) (*SnapshotDevice, error) {
	parsedURL, err := url.Parse(snapshotURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme: %s (only http and https are supported)", parsedURL.Scheme)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if id == "" {
		id = "url:" + parsedURL.Host
	}
	return &SnapshotDevice{id: id, label: label, url: snapshotURL, httpClient: httpClient}, nil
}

func (d *SnapshotDevice) ID() string    { return d.id }
func (d *SnapshotDevice) Label() string { return d.label }

// Open fetches one frame to learn the native resolution
func (d *SnapshotDevice) Open(ctx context.Context, c Constraints) (Stream, error) {
	probe, err := d.fetch(ctx)
	if err != nil {
		return nil, err
	}
	nw, nh := probe.Bounds().Dx(), probe.Bounds().Dy()
	if !accepts(nw, nh, c) {
		return nil, fmt.Errorf("%w: %s is %dx%d", ErrOverconstrained, d.id, nw, nh)
	}
	w, h := fittedSize(nw, nh, c)
	return &snapshotStream{dev: d, constraints: c, width: w, height: h}, nil
}

func (d *SnapshotDevice) fetch(ctx context.Context) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "product-booth/1.0")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch snapshot: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: %s returned HTTP %d", ErrDeviceAccessDenied, d.id, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("failed to fetch snapshot: HTTP %d %s", resp.StatusCode, resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("URL does not point to an image (Content-Type: %s)", contentType)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return decodeImageFromBytes(data)
}

type snapshotStream struct {
	dev         *SnapshotDevice
	constraints Constraints
	width       int
	height      int
}

func (s *snapshotStream) Size() (int, int) {
	return s.width, s.height
}

func (s *snapshotStream) Frame(ctx context.Context) (image.Image, error) {
	img, err := s.dev.fetch(ctx)
	if err != nil {
		return nil, err
	}
	return fitTo(img, s.constraints), nil
}

func (s *snapshotStream) Close() error {
	return nil
}
