// Package cli wires the stash commands.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/stash/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	ConfigPath string
	DataDir    string // overrides the config file's data_dir when set
}

// LoadConfig resolves the effective configuration from the config
// file and flag overrides.
func (o *RootOptions) LoadConfig() (config.Config, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return config.Config{}, err
	}
	if o.DataDir != "" {
		cfg.DataDir = o.DataDir
	}
	return cfg, nil
}

// NewRootCommand creates the root command for the stash CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "stash",
		Short: "stash - a personal local-first capture store",
		Long: "Stash captures clipboard text, command output, and streamed uploads\n" +
			"into an append-only frame log with content-addressed storage, and\n" +
			"serves them over a loopback HTTP surface with live tailing.",
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to config file")
	cmd.PersistentFlags().StringVar(&opts.DataDir, "data-dir", "", "override the configured data directory")

	// Add subcommands
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewPutCommand(opts))
	cmd.AddCommand(NewCatCommand(opts))

	return cmd
}
