package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tcmigrate/core/internal/config"
)

func newValidateCmd(root *rootFlags) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a run config file without running a migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			loader := config.NewLoader()
			if err := loader.Validate(context.Background(), configPath); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("config is valid"))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to run config YAML file")
	cmd.MarkFlagRequired("config") //nolint:errcheck

	return cmd
}
