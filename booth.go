// Package productbooth captures listing photos of physical items and
// annotates them with a vision model.
//
// A Booth ties together the capture pipeline, which crops a centered
// square from a camera frame and encodes it as a 1500×1500 JPEG, the
// bounded session of recent photos, and an optional analyzer that asks a
// chat-completion API for a listing title plus structured details.
//
// Basic usage:
//
//	cfg := config.Default()
//	booth, err := productbooth.New(cfg, productbooth.WithAPIKey(os.Getenv("OPENAI_API_KEY")))
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer booth.Close()
//
//	devices := productbooth.NewDeviceRegistry(cfg.Camera, nil)
//	_, stream, err := productbooth.OpenCamera(ctx, devices, cfg.Camera.DeviceID, camera.TierBalanced)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer stream.Close()
//
//	photo, err := booth.Capture(ctx, stream, true)
//	if err != nil {
//		log.Fatal(err)
//	}
//	booth.Wait()
//	fmt.Println(booth.Titles())
//
// Analysis runs on its own goroutine per photo. Results are matched to
// photos by ID and dropped when the photo has already left the session.
package productbooth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/menta2k/product-booth/internal/config"
	"github.com/menta2k/product-booth/pkg/analysis"
	"github.com/menta2k/product-booth/pkg/camera"
	"github.com/menta2k/product-booth/pkg/capture"
	"github.com/menta2k/product-booth/pkg/client"
	"github.com/menta2k/product-booth/pkg/export"
	"github.com/menta2k/product-booth/pkg/ollama"
	"github.com/menta2k/product-booth/pkg/openai"
	"github.com/menta2k/product-booth/pkg/session"
	"github.com/menta2k/product-booth/pkg/types"
)

// Version of the product booth
const Version = "1.0.0"

// ErrAnalysisUnavailable means no credential or backend is configured
var ErrAnalysisUnavailable = errors.New("analysis unavailable: no API key configured")

// EventKind identifies a session change
type EventKind int

const (
	EventCaptured EventKind = iota
	EventEvicted
	EventDownloaded
	EventDownloadFailed
	EventAnalysisStarted
	EventAnalyzed
	EventAnalysisFailed
	EventRemoved
	EventCleared
)

func (k EventKind) String() string {
	switch k {
	case EventCaptured:
		return "captured"
	case EventEvicted:
		return "evicted"
	case EventDownloaded:
		return "downloaded"
	case EventDownloadFailed:
		return "download-failed"
	case EventAnalysisStarted:
		return "analysis-started"
	case EventAnalyzed:
		return "analyzed"
	case EventAnalysisFailed:
		return "analysis-failed"
	case EventRemoved:
		return "removed"
	case EventCleared:
		return "cleared"
	}
	return "unknown"
}

// Event reports a change to the session. Path is set for downloads and Err
// for failures.
type Event struct {
	Kind  EventKind
	Photo types.Photo
	Path  string
	Err   error
}

// Option configures a Booth
type Option func(*Booth)

// WithAPIKey sets the credential for the OpenAI backend
func WithAPIKey(key string) Option {
	return func(b *Booth) {
		b.apiKey = key
	}
}

// WithHTTPClient sets the transport used by the analysis backend
func WithHTTPClient(hc *http.Client) Option {
	return func(b *Booth) {
		b.httpClient = hc
	}
}

// WithVisionClient uses vc instead of building a backend from config
func WithVisionClient(vc client.VisionClient) Option {
	return func(b *Booth) {
		b.vision = vc
	}
}

// WithNotify registers a callback for session events. It is called from
// the capturing goroutine and from analysis goroutines.
func WithNotify(fn func(Event)) Option {
	return func(b *Booth) {
		b.notify = fn
	}
}

// WithClock replaces the wall clock used for capture timestamps
func WithClock(clock func() time.Time) Option {
	return func(b *Booth) {
		b.clock = clock
	}
}

// Booth is the capture, session and analysis facade
type Booth struct {
	config     *config.Config
	apiKey     string
	httpClient *http.Client
	vision     client.VisionClient
	notify     func(Event)
	clock      func() time.Time

	pipeline *capture.Pipeline
	analyzer *analysis.Analyzer
	session  *session.Session
	ids      session.IDGenerator

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Booth from cfg
func New(cfg *config.Config, opts ...Option) (*Booth, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	b := &Booth{config: cfg}
	for _, opt := range opts {
		opt(b)
	}

	style, _ := capture.ParseStyle(cfg.Capture.FilenameStyle)
	b.pipeline = capture.NewWithConfig(capture.Config{
		CropFraction: cfg.Capture.CropFraction,
		OutputSize:   cfg.Capture.OutputSize,
		Quality:      cfg.Capture.Quality,
		Style:        style,
	})
	if b.clock != nil {
		b.pipeline.SetClock(b.clock)
	}

	b.session = session.New()

	vc := b.vision
	if vc == nil {
		var err error
		if vc, err = NewVisionClient(cfg, b.apiKey, b.httpClient); err != nil {
			return nil, err
		}
	}
	if vc != nil {
		b.analyzer = NewAnalyzer(cfg, vc)
	}

	b.ctx, b.cancel = context.WithCancel(context.Background())
	return b, nil
}

// NewVisionClient builds the analysis backend named in cfg. For the OpenAI
// backend it returns nil, nil when apiKey is empty.
func NewVisionClient(cfg *config.Config, apiKey string, hc *http.Client) (client.VisionClient, error) {
	switch cfg.Analysis.Backend {
	case config.BackendOllama:
		c, err := ollama.NewClient(cfg.Analysis.Endpoint, hc)
		if err != nil {
			return nil, fmt.Errorf("ollama backend: %w", err)
		}
		return c, nil
	default:
		if apiKey == "" {
			return nil, nil
		}
		var opts []openai.Option
		if hc != nil {
			opts = append(opts, openai.WithHTTPClient(hc))
		}
		c, err := openai.NewClient(cfg.Analysis.Endpoint, apiKey, opts...)
		if err != nil {
			return nil, fmt.Errorf("openai backend: %w", err)
		}
		return c, nil
	}
}

// NewAnalyzer builds an analyzer for vc using the analysis section of cfg
func NewAnalyzer(cfg *config.Config, vc client.VisionClient) *analysis.Analyzer {
	preparer := &analysis.Preparer{
		Threshold: cfg.Analysis.DownsampleThreshold,
		MaxWidth:  cfg.Analysis.DownsampleWidth,
		Quality:   cfg.Analysis.DownsampleQuality,
	}
	return analysis.NewWithConfig(vc, preparer, analysis.Config{
		Model:       cfg.Analysis.Model,
		MaxTokens:   cfg.Analysis.MaxTokens,
		Temperature: cfg.Analysis.Temperature,
		Detail:      cfg.Analysis.Detail,
	})
}

// CanAnalyze reports whether an analysis backend is configured
func (b *Booth) CanAnalyze() bool {
	return b.analyzer != nil
}

// Config returns the active configuration
func (b *Booth) Config() *config.Config {
	return b.config
}

// Capture grabs a frame from stream, encodes it, and inserts the photo at
// the front of the session. With AutoDownload set the JPEG is also written
// to the output directory; a write failure is reported as an event and
// does not fail the capture. When analyze is true and a backend is
// configured, analysis starts in the background.
func (b *Booth) Capture(ctx context.Context, stream camera.Stream, analyze bool) (types.Photo, error) {
	res, err := b.pipeline.Capture(ctx, stream)
	if err != nil {
		return types.Photo{}, err
	}

	photo := types.Photo{
		ID:        b.ids.Next(res.Timestamp),
		Data:      res.Data,
		Handle:    b.session.Handles().Issue(),
		Timestamp: res.Timestamp,
		Filename:  res.Filename,
		Width:     res.Width,
		Height:    res.Height,
	}

	evicted := b.session.Insert(photo)
	log.Info().Stringer("photo", photo.ID).Str("filename", photo.Filename).
		Int("bytes", photo.Size()).Msg("photo captured")
	b.emit(Event{Kind: EventCaptured, Photo: photo})
	for _, p := range evicted {
		b.emit(Event{Kind: EventEvicted, Photo: p})
	}

	if b.config.Output.AutoDownload {
		b.download(photo)
	}

	if analyze {
		if b.analyzer == nil {
			b.session.FailAnalysis(photo.ID, ErrAnalysisUnavailable)
			current, ok := b.session.Get(photo.ID)
			if !ok {
				current = photo
			}
			b.emit(Event{Kind: EventAnalysisFailed, Photo: current, Err: ErrAnalysisUnavailable})
		} else {
			b.startAnalysis(photo)
		}
	}

	if p, ok := b.session.Get(photo.ID); ok {
		return p, nil
	}
	return photo, nil
}

// Analyze (re)starts analysis of a photo in the session
func (b *Booth) Analyze(id types.PhotoID) error {
	if b.analyzer == nil {
		return ErrAnalysisUnavailable
	}
	photo, ok := b.session.Get(id)
	if !ok {
		return session.ErrNotFound
	}
	b.startAnalysis(photo)
	return nil
}

func (b *Booth) startAnalysis(photo types.Photo) {
	seq, ok := b.session.MarkPending(photo.ID)
	if !ok {
		return
	}
	if current, ok := b.session.Get(photo.ID); ok {
		photo = current
	}
	b.emit(Event{Kind: EventAnalysisStarted, Photo: photo})

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()

		start := time.Now()
		result, err := b.analyzer.Analyze(b.ctx, photo.Data)
		if err != nil {
			log.Warn().Err(err).Stringer("photo", photo.ID).Msg("analysis failed")
			if b.session.SettleAnalysis(photo.ID, seq, nil, err) {
				current, _ := b.session.Get(photo.ID)
				b.emit(Event{Kind: EventAnalysisFailed, Photo: current, Err: err})
			}
			return
		}

		log.Info().Stringer("photo", photo.ID).Str("title", result.Title).
			Dur("took", time.Since(start)).Msg("analysis complete")
		if b.session.SettleAnalysis(photo.ID, seq, result, nil) {
			current, _ := b.session.Get(photo.ID)
			b.emit(Event{Kind: EventAnalyzed, Photo: current})
		}
	}()
}

func (b *Booth) download(photo types.Photo) (string, error) {
	path, err := export.WriteFile(b.config.Output.OutputDir, photo)
	if err != nil {
		log.Error().Err(err).Stringer("photo", photo.ID).Msg("failed to write photo")
		b.emit(Event{Kind: EventDownloadFailed, Photo: photo, Err: err})
		return "", err
	}
	b.emit(Event{Kind: EventDownloaded, Photo: photo, Path: path})
	return path, nil
}

// Download writes one photo to the output directory
func (b *Booth) Download(id types.PhotoID) (string, error) {
	photo, ok := b.session.Get(id)
	if !ok {
		return "", session.ErrNotFound
	}
	return b.download(photo)
}

// DownloadAll writes every photo in the session to the output directory
func (b *Booth) DownloadAll() ([]string, error) {
	paths, err := export.WriteAll(b.config.Output.OutputDir, b.session.Photos())
	if err != nil {
		return paths, err
	}
	log.Info().Int("count", len(paths)).Str("dir", b.config.Output.OutputDir).Msg("photos written")
	return paths, nil
}

// DownloadZip archives every photo in the session to path
func (b *Booth) DownloadZip(path string) error {
	return export.WriteZipFile(path, b.session.Photos())
}

// Remove deletes a photo and releases its display handle
func (b *Booth) Remove(id types.PhotoID) bool {
	photo, ok := b.session.Get(id)
	if !ok || !b.session.Remove(id) {
		return false
	}
	b.emit(Event{Kind: EventRemoved, Photo: photo})
	return true
}

// Clear empties the session
func (b *Booth) Clear() int {
	n := b.session.Clear()
	b.emit(Event{Kind: EventCleared})
	return n
}

// EditTitle replaces the analysis title of a photo
func (b *Booth) EditTitle(id types.PhotoID, title string) error {
	return b.session.EditTitle(id, title)
}

// Get returns a photo by ID
func (b *Booth) Get(id types.PhotoID) (types.Photo, bool) {
	return b.session.Get(id)
}

// At returns the photo at display position i, newest first
func (b *Booth) At(i int) (types.Photo, bool) {
	return b.session.At(i)
}

// Photos returns the session photos, newest first
func (b *Booth) Photos() []types.Photo {
	return b.session.Photos()
}

// Titles returns the analysis titles, newest first
func (b *Booth) Titles() []string {
	return b.session.Titles()
}

// LiveHandles returns the number of display handles not yet released
func (b *Booth) LiveHandles() int {
	return b.session.Handles().Live()
}

// Wait blocks until every in-flight analysis has finished
func (b *Booth) Wait() {
	b.wg.Wait()
}

// Close cancels in-flight analyses, waits for them, and releases every
// display handle.
func (b *Booth) Close() error {
	b.cancel()
	b.wg.Wait()
	b.session.Clear()
	return nil
}

func (b *Booth) emit(e Event) {
	if b.notify != nil {
		b.notify(e)
	}
}
