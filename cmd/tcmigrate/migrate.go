package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tcmigrate/core/internal/application/migration"
	"github.com/tcmigrate/core/internal/config"
	"github.com/tcmigrate/core/internal/infrastructure/events"
	"github.com/tcmigrate/core/internal/infrastructure/executor"
	"github.com/tcmigrate/core/internal/infrastructure/logging"
	"github.com/tcmigrate/core/internal/infrastructure/observability"
	"github.com/tcmigrate/core/internal/infrastructure/pipeline"
	"github.com/tcmigrate/core/internal/infrastructure/planner"
	"github.com/tcmigrate/core/internal/infrastructure/resolver"
	"github.com/tcmigrate/core/internal/infrastructure/runstore"
	"github.com/tcmigrate/core/internal/infrastructure/validation"
)

type migrateOptions struct {
	ConfigPath string
}

func newMigrateCmd(root *rootFlags) *cobra.Command {
	opts := migrateOptions{}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run a migration from a run config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd, root, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to run config YAML file")
	cmd.MarkFlagRequired("config") //nolint:errcheck

	return cmd
}

func runMigrate(cmd *cobra.Command, root *rootFlags, opts migrateOptions) error {
	ctx := context.Background()

	logger, err := logging.New(logging.Options{Level: root.logLevel, Component: "tcmigrate"})
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}

	loader := config.NewLoader()
	input, err := loader.Load(ctx, opts.ConfigPath)
	if err != nil {
		return err
	}

	sources, targets := buildRegistries()
	source, err := sources.Get(input.SourceSystemID)
	if err != nil {
		return err
	}
	target, err := targets.Get(input.TargetSystemID)
	if err != nil {
		return err
	}

	publisher := events.NewLoggingPublisher(logger)
	metrics := observability.NewCollector()
	controller := migration.New(
		validation.New(logger),
		resolver.New(),
		executor.New(
			executor.WithLogger(logger),
			executor.WithEvents(publisher),
			executor.WithMetrics(metrics),
			executor.WithTracer(observability.NewLoggingTracer(logger)),
		),
		planner.New(),
		pipeline.New(nil, logger, publisher),
		publisher,
		logger,
		migration.WithMetrics(metrics),
		migration.WithRunStore(runstore.NewMemoryStore()),
	)

	result, err := controller.Run(ctx, input, source, target, migration.NewHandle())
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderSummary(result))
	return nil
}
