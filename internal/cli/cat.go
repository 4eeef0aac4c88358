package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/stash/internal/frame"
	"github.com/roach88/stash/internal/framelog"
)

// CatOptions holds flags for the cat command.
type CatOptions struct {
	*RootOptions
	Cursor string
}

// NewCatCommand creates the cat command: a resumable external
// consumer. Each frame past the cursor prints as one JSON line; the
// last line's id is the cursor to resume from next time.
func NewCatCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CatOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "cat",
		Short: "Print frames after a cursor",
		Long: `Read the frame log from the beginning, or from just past --cursor,
and print each frame as a JSON line in ascending id order.

Example:
  stash cat
  stash cat --cursor 01J8ZQ5T9GV3N2K4WX7CEB6MHD`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCat(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Cursor, "cursor", "", "only print frames with id greater than this")

	return cmd
}

func runCat(opts *CatOptions, cmd *cobra.Command) error {
	cfg, err := opts.LoadConfig()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	if opts.Cursor != "" {
		if _, err := frame.ParseID(opts.Cursor); err != nil {
			return WrapExitError(ExitCommandError, "invalid cursor", err)
		}
	}

	log, err := framelog.Open(cfg.LogDir())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open frame log", err)
	}
	defer log.Close()

	frames, err := log.ReadFrom(cmd.Context(), opts.Cursor)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read frames", err)
	}

	for _, f := range frames {
		data, err := f.Encode()
		if err != nil {
			return WrapExitError(ExitFailure, "failed to encode frame", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
	}
	return nil
}
