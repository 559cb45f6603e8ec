package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	replica "github.com/jdziat/hris-replica"
	"github.com/jdziat/hris-replica/pkg/config"
)

// rootOptions holds global flags for all commands.
type rootOptions struct {
	EnvFile string
	Format  string // "json" | "text"
}

var validFormats = []string{"text", "json"}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "hris-sync",
		Short: "HRIS attendance replica",
		Long:  "Keeps a local replica of the HRIS directory and attendance data in sync on a database-driven schedule.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			for _, f := range validFormats {
				if f == opts.Format {
					return nil
				}
			}
			return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, validFormats)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", "", "env file to load before the environment (default .env)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newTriggerCommand(opts))
	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newSeedCommand(opts))
	cmd.AddCommand(newTasksCommand(opts))

	return cmd
}

// openApp loads the configuration and wires an App.
func openApp(opts *rootOptions) (*replica.App, error) {
	var files []string
	if opts.EnvFile != "" {
		files = append(files, opts.EnvFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		return nil, err
	}
	return replica.NewApp(cfg, cfg.NewLogger())
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
