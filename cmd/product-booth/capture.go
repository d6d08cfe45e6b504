package main

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	productbooth "github.com/menta2k/product-booth"
)

type captureOptions struct {
	count    int
	analyze  bool
	device   string
	tier     string
	remember bool
	outDir   string
	interval time.Duration
}

func newCaptureCmd(a *app) *cobra.Command {
	opts := &captureOptions{}

	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Take one or more photos and exit",
		Example: `  product-booth capture
  product-booth capture -n 4 --analyze --interval 2s
  product-booth capture --device dir:./frames --tier quality`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.count < 1 {
				return fmt.Errorf("--count must be at least 1")
			}
			if opts.outDir != "" {
				a.cfg.Output.OutputDir = opts.outDir
			}

			tier, err := a.tier(opts.tier)
			if err != nil {
				return err
			}

			b, err := productbooth.New(a.cfg, productbooth.WithAPIKey(a.apiKey()))
			if err != nil {
				return err
			}
			defer b.Close()

			if opts.analyze && !b.CanAnalyze() {
				return productbooth.ErrAnalysisUnavailable
			}

			ctx := cmd.Context()
			reg := productbooth.NewDeviceRegistry(a.cfg.Camera, nil)
			dev, stream, err := productbooth.OpenCamera(ctx, reg, a.deviceID(opts.device), tier)
			if err != nil {
				return err
			}
			defer stream.Close()
			log.Info().Str("device", dev.ID()).Str("tier", string(tier)).Msg("camera ready")
			if opts.remember {
				if err := a.remember(opts.device, dev.ID(), opts.tier, tier); err != nil {
					return err
				}
			}

			for i := 0; i < opts.count; i++ {
				if i > 0 && opts.interval > 0 {
					select {
					case <-ctx.Done():
						return ctx.Err()
					case <-time.After(opts.interval):
					}
				}
				if _, err := b.Capture(ctx, stream, opts.analyze); err != nil {
					return err
				}
			}

			b.Wait()
			printSession(cmd.OutOrStdout(), b.Photos())
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVarP(&opts.count, "count", "n", 1, "number of photos to take")
	f.BoolVarP(&opts.analyze, "analyze", "a", false, "analyze each photo")
	f.StringVar(&opts.device, "device", "", "camera device ID")
	f.StringVar(&opts.tier, "tier", "", "resolution tier: fast, balanced, quality")
	f.BoolVar(&opts.remember, "remember", false, "save --device and --tier as the defaults")
	f.StringVarP(&opts.outDir, "out", "o", "", "output directory")
	f.DurationVar(&opts.interval, "interval", 0, "delay between photos")

	return cmd
}
