package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/menta2k/product-booth/internal/prefs"
	"github.com/menta2k/product-booth/pkg/camera"
)

var prefKeys = []string{prefs.KeyAPIKey, prefs.KeyCameraID, prefs.KeyQualityTier}

func newPrefsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Read and change stored preferences",
		Long: `Stored preferences: ` + strings.Join(prefKeys, ", ") + `.

The API key is kept in the OS keyring unless --no-keyring is given.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get [key]",
		Short: "Print one or all preferences",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keys := prefKeys
			if len(args) == 1 {
				if err := checkKey(args[0]); err != nil {
					return err
				}
				keys = args
			}
			for _, k := range keys {
				v, err := a.prefs.Get(k)
				if err != nil {
					return err
				}
				if k == prefs.KeyAPIKey {
					v = maskSecret(v)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", k, v)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a preference",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], strings.TrimSpace(args[1])
			if err := checkKey(key); err != nil {
				return err
			}
			if key == prefs.KeyQualityTier {
				tier, err := camera.ParseTier(value)
				if err != nil {
					return err
				}
				value = string(tier)
			}
			return a.prefs.Set(key, value)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "unset <key>",
		Short: "Remove a preference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkKey(args[0]); err != nil {
				return err
			}
			return a.prefs.Unset(args[0])
		},
	})

	return cmd
}

func checkKey(key string) error {
	if !prefs.Known(key) {
		return fmt.Errorf("unknown preference %q (known: %s)", key, strings.Join(prefKeys, ", "))
	}
	return nil
}

func maskSecret(s string) string {
	if len(s) <= 8 {
		return strings.Repeat("*", len(s))
	}
	return s[:3] + strings.Repeat("*", len(s)-7) + s[len(s)-4:]
}
