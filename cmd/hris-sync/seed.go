package main

import (
	"fmt"

	"github.com/spf13/cobra"

	replica "github.com/jdziat/hris-replica"
)

type seedOptions struct {
	*rootOptions
	File string
}

func newSeedCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &seedOptions{rootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert missing schedule tasks",
		Long: `Insert the default tasks, or the tasks of a YAML seed file, that do not
exist yet. Existing tasks are never modified.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(opts.rootOptions)
			if err != nil {
				return err
			}
			defer app.Close()

			var added int
			if opts.File != "" {
				tasks, err := replica.LoadSeedFile(opts.File)
				if err != nil {
					return err
				}
				added, err = app.SeedTasks(cmd.Context(), tasks)
				if err != nil {
					return err
				}
			} else {
				added, err = app.SeedDefaults(cmd.Context())
				if err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d task(s)\n", added)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.File, "file", "", "YAML seed file (defaults to the built-in tasks)")
	return cmd
}
