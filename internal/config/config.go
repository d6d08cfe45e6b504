package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/menta2k/product-booth/pkg/camera"
	"github.com/menta2k/product-booth/pkg/capture"
)

// APIKeyEnv is the environment variable consulted for the API credential
const APIKeyEnv = "OPENAI_API_KEY"

// Analysis backends
const (
	BackendOpenAI = "openai"
	BackendOllama = "ollama"
)

// Config holds the application configuration
type Config struct {
	Capture  CaptureConfig  `json:"capture"`
	Camera   CameraConfig   `json:"camera"`
	Analysis AnalysisConfig `json:"analysis"`
	Output   OutputConfig   `json:"output"`
}

// CaptureConfig holds crop, resample and encode parameters
type CaptureConfig struct {
	CropFraction   float64 `json:"crop_fraction"`
	OutputSize     int     `json:"output_size"`
	Quality        float64 `json:"quality"`
	FilenameStyle  string  `json:"filename_style"`
	CooldownMillis int     `json:"cooldown_ms"`
}

// CameraConfig holds device selection and the devices to enumerate
type CameraConfig struct {
	DeviceID  string           `json:"device_id"`
	Tier      string           `json:"tier"`
	Folders   []string         `json:"folders"`
	Snapshots []SnapshotSource `json:"snapshots"`
}

// SnapshotSource is a network camera serving still frames over HTTP
type SnapshotSource struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	URL   string `json:"url"`
}

// AnalysisConfig holds vision API parameters
type AnalysisConfig struct {
	Backend             string  `json:"backend"`
	Endpoint            string  `json:"endpoint"`
	Model               string  `json:"model"`
	MaxTokens           int     `json:"max_tokens"`
	Temperature         float64 `json:"temperature"`
	Detail              string  `json:"detail"`
	DownsampleThreshold int     `json:"downsample_threshold"`
	DownsampleWidth     int     `json:"downsample_width"`
	DownsampleQuality   float64 `json:"downsample_quality"`
	Concurrency         int     `json:"concurrency"`
}

// OutputConfig holds where captures are written
type OutputConfig struct {
	OutputDir    string `json:"output_dir"`
	AutoDownload bool   `json:"auto_download"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Capture: CaptureConfig{
			CropFraction:   capture.DefaultCropFraction,
			OutputSize:     capture.DefaultOutputSize,
			Quality:        capture.DefaultQuality,
			FilenameStyle:  string(capture.StyleBasic),
			CooldownMillis: 500,
		},
		Camera: CameraConfig{
			Tier: string(camera.TierBalanced),
		},
		Analysis: AnalysisConfig{
			Backend:             BackendOpenAI,
			Endpoint:            "https://api.openai.com",
			Model:               "gpt-4o-mini",
			MaxTokens:           500,
			Temperature:         0.3,
			Detail:              "high",
			DownsampleThreshold: 500000,
			DownsampleWidth:     1000,
			DownsampleQuality:   0.90,
			Concurrency:         2,
		},
		Output: OutputConfig{
			OutputDir:    "./photos",
			AutoDownload: true,
		},
	}
}

// Cooldown returns the capture trigger debounce interval
func (c *Config) Cooldown() time.Duration {
	return time.Duration(c.Capture.CooldownMillis) * time.Millisecond
}

// LoadFromFile loads configuration from a JSON file. Keys missing from the
// file keep their default values.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// Load reads filename when it exists and falls back to defaults otherwise
func Load(filename string) (*Config, error) {
	config, err := LoadFromFile(filename)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return config, err
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Capture.CropFraction <= 0 || c.Capture.CropFraction > 1 {
		return fmt.Errorf("capture.crop_fraction must be in (0, 1]")
	}

	if c.Capture.OutputSize < 1 {
		return fmt.Errorf("capture.output_size must be positive")
	}

	if c.Capture.Quality < 0 || c.Capture.Quality > 1 {
		return fmt.Errorf("capture.quality must be between 0 and 1")
	}

	if _, err := capture.ParseStyle(c.Capture.FilenameStyle); err != nil {
		return fmt.Errorf("capture.filename_style: %w", err)
	}

	if c.Capture.CooldownMillis < 0 {
		return fmt.Errorf("capture.cooldown_ms cannot be negative")
	}

	if _, err := camera.ParseTier(c.Camera.Tier); err != nil {
		return fmt.Errorf("camera.tier: %w", err)
	}

	for i, s := range c.Camera.Snapshots {
		if u, err := url.Parse(s.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("camera.snapshots[%d].url must be an http(s) URL", i)
		}
	}

	switch c.Analysis.Backend {
	case BackendOpenAI, BackendOllama:
	default:
		return fmt.Errorf("analysis.backend must be %q or %q", BackendOpenAI, BackendOllama)
	}

	if c.Analysis.Model == "" {
		return fmt.Errorf("analysis.model cannot be empty")
	}

	if c.Analysis.MaxTokens < 1 {
		return fmt.Errorf("analysis.max_tokens must be positive")
	}

	if c.Analysis.Temperature < 0 || c.Analysis.Temperature > 2 {
		return fmt.Errorf("analysis.temperature must be between 0 and 2")
	}

	if c.Analysis.DownsampleThreshold < 1 || c.Analysis.DownsampleWidth < 1 {
		return fmt.Errorf("analysis.downsample_threshold and downsample_width must be positive")
	}

	if c.Analysis.DownsampleQuality <= 0 || c.Analysis.DownsampleQuality > 1 {
		return fmt.Errorf("analysis.downsample_quality must be in (0, 1]")
	}

	if c.Analysis.Concurrency < 1 {
		return fmt.Errorf("analysis.concurrency must be positive")
	}

	if c.Output.OutputDir == "" {
		return fmt.Errorf("output.output_dir cannot be empty")
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "product-booth", "config.json")
}

// LoadEnv loads .env files into the process environment, skipping missing
// ones. With no arguments it reads ./.env.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// APIKeyFromEnv returns the API credential from the environment
func APIKeyFromEnv() string {
	return os.Getenv(APIKeyEnv)
}
