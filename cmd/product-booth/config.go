package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/menta2k/product-booth/internal/config"
	"github.com/menta2k/product-booth/internal/utils"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if utils.FileExists(a.configPath) && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", a.configPath)
			}
			if err := config.Default().SaveToFile(a.configPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", a.configPath)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := json.MarshalIndent(a.cfg, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}
