package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/stash/internal/blob"
	"github.com/roach88/stash/internal/frame"
	"github.com/roach88/stash/internal/framelog"
)

// PutOptions holds flags for the put command.
type PutOptions struct {
	*RootOptions
	Topic    string
	StackID  string
	MimeType string
}

// NewPutCommand creates the put command: the external-writer path.
// The clipboard watcher and the command runner both shell out to
// this, appending frames of equal standing with streamed uploads.
func NewPutCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PutOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "put",
		Short: "Append a frame from stdin",
		Long: `Read bytes from stdin, store them in the blob cache, and append a
frame referencing them. Prints the new frame id.

Example:
  pbpaste | stash put --topic clipboard
  some-tool --json | stash put --topic command`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPut(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Topic, "topic", frame.TopicClipboard, "topic classifying the writer")
	cmd.Flags().StringVar(&opts.StackID, "stack", "", "attach to an existing stack id")
	cmd.Flags().StringVar(&opts.MimeType, "mime", "text/plain", "mime type of the content")

	return cmd
}

func runPut(opts *PutOptions, cmd *cobra.Command) error {
	cfg, err := opts.LoadConfig()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read stdin", err)
	}

	cache, err := blob.Open(cfg.CacheDir())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open blob cache", err)
	}

	contentType := "Text"
	if opts.Topic == frame.TopicCommand {
		contentType = "JSON"
	}
	hash, err := cache.Put(data, blob.Meta{MimeType: opts.MimeType, ContentType: contentType})
	if err != nil {
		return WrapExitError(ExitFailure, "failed to store content", err)
	}

	log, err := framelog.Open(cfg.LogDir())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open frame log", err)
	}
	defer log.Close()

	f, err := log.Append(cmd.Context(), opts.Topic, opts.StackID, hash)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to append frame", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), f.ID)
	return nil
}
