package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Migrate, seed the default tasks and run the scheduler",
		Long: `Run the scheduler until interrupted.

On start the replica tables are migrated, missing default tasks are seeded
and tasks left running by a crashed process are released.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, opts)
		},
	}
}

func serve(ctx context.Context, opts *rootOptions) error {
	app, err := openApp(opts)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Migrate(ctx); err != nil {
		return err
	}
	if _, err := app.SeedDefaults(ctx); err != nil {
		return err
	}
	app.Log.WithField("pipelines", app.Registry.TaskIDs()).Info("hris-sync serving")
	return app.Scheduler.Run(ctx)
}
