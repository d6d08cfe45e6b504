package main

import (
	"fmt"

	"github.com/spf13/cobra"

	productbooth "github.com/menta2k/product-booth"
	"github.com/menta2k/product-booth/pkg/camera"
)

func newDevicesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List the configured cameras",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := productbooth.NewDeviceRegistry(a.cfg.Camera, nil)
			devices := reg.Devices()
			if len(devices) == 0 {
				return fmt.Errorf("%w: add camera.folders or camera.snapshots to %s", camera.ErrNoDevices, a.configPath)
			}

			selected, _ := reg.Select(a.deviceID(""))
			out := cmd.OutOrStdout()
			for i, d := range devices {
				marker := " "
				if selected != nil && d.ID() == selected.ID() {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %-20s %s\n", marker, camera.Label(d, i), d.ID())
			}
			return nil
		},
	}
}
