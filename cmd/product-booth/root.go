package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/menta2k/product-booth/internal/config"
	"github.com/menta2k/product-booth/internal/logging"
	"github.com/menta2k/product-booth/internal/prefs"
	"github.com/menta2k/product-booth/pkg/camera"
)

// app holds the state shared by every subcommand
type app struct {
	configPath string
	prefsPath  string
	logLevel   string
	logFile    string
	noKeyring  bool

	cfg     *config.Config
	prefs   *prefs.Preferences
	logSink io.Closer
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "product-booth",
		Short: "Photograph items for resale listings and draft titles with a vision model",
		Long: `Product Booth captures square listing photos from a camera, writes them as
1500x1500 JPEGs, and can ask a vision model for a listing title and
structured item details.

Cameras are folders of frames or network cameras that serve snapshots over
HTTP, configured in the config file. The API key is read from the OS
keyring, a .env file, or OPENAI_API_KEY.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logSink != nil {
				_ = a.logSink.Close()
			}
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", config.GetConfigPath(), "configuration file")
	flags.StringVar(&a.prefsPath, "prefs", prefs.DefaultPath(), "preferences file")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error (default $"+logging.LevelEnv+" or info)")
	flags.StringVar(&a.logFile, "log-file", "", "also write logs to this rotating file")
	flags.BoolVar(&a.noKeyring, "no-keyring", false, "keep the API key in the preferences file instead of the OS keyring")

	cmd.AddCommand(newDevicesCmd(a))
	cmd.AddCommand(newCaptureCmd(a))
	cmd.AddCommand(newShootCmd(a))
	cmd.AddCommand(newAnalyzeCmd(a))
	cmd.AddCommand(newPrefsCmd(a))
	cmd.AddCommand(newConfigCmd(a))

	return cmd
}

func (a *app) init() error {
	// a missing .env is fine
	if err := config.LoadEnv(); err != nil {
		return err
	}

	closer, err := logging.Init(logging.Options{Level: a.logLevel, File: a.logFile})
	if err != nil {
		return err
	}
	a.logSink = closer

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%s: %w", a.configPath, err)
	}
	a.cfg = cfg

	file := prefs.NewFileStore(a.prefsPath)
	var secret prefs.Store
	if !a.noKeyring {
		user := os.Getenv("USER")
		secret = prefs.NewKeyringStore(prefs.KeyringService, user)
	}
	a.prefs = prefs.New(file, secret)

	log.Debug().Str("config", a.configPath).Str("backend", cfg.Analysis.Backend).Msg("configuration loaded")
	return nil
}

// apiKey prefers the stored credential over the environment
func (a *app) apiKey() string {
	if key := a.prefs.APIKey(); key != "" {
		return key
	}
	return config.APIKeyFromEnv()
}

// deviceID resolves the camera: flag, then preference, then config
func (a *app) deviceID(flag string) string {
	if flag != "" {
		return flag
	}
	if id := a.prefs.CameraID(); id != "" {
		return id
	}
	return a.cfg.Camera.DeviceID
}

// tier resolves the quality tier: flag, then preference, then config
func (a *app) tier(flag string) (camera.Tier, error) {
	if flag != "" {
		return camera.ParseTier(flag)
	}
	if t := a.prefs.QualityTier(); t != "" {
		return camera.ParseTier(t)
	}
	return camera.ParseTier(a.cfg.Camera.Tier)
}

// remember stores the device and tier given on the command line as the
// defaults for later runs. Settings that came from preferences or config
// are left alone.
func (a *app) remember(deviceFlag, deviceID, tierFlag string, t camera.Tier) error {
	if deviceFlag != "" {
		if err := a.prefs.SetCameraID(deviceID); err != nil {
			return fmt.Errorf("save camera: %w", err)
		}
		log.Info().Str("device", deviceID).Msg("camera saved as default")
	}
	if tierFlag != "" {
		if err := a.prefs.SetQualityTier(string(t)); err != nil {
			return fmt.Errorf("save tier: %w", err)
		}
		log.Info().Str("tier", string(t)).Msg("tier saved as default")
	}
	return nil
}
