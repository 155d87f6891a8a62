// Package cli implements the folio command-line interface.
package cli

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/justapithecus/folio/folio"
)

// NewRootCmd builds the folio command tree.
func NewRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "folio",
		Short: "Compute page layouts for paged documents",
		Long: `folio opens a document, fits every page into a viewport and reports
the resulting layout: display size, scroll offset and spacing for each
requested page position.

Documents are read from the local filesystem or from an S3-compatible
bucket. Reports are printed as a table or written as JSONL or Parquet.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			folio.SetLogger(newLogger(cmd.ErrOrStderr(), verbose))
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log load progress to stderr")

	root.AddCommand(newLayoutCmd())
	return root
}

// Execute runs the root command with os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

// newLogger returns a text logger on w. Without verbose only warnings and
// errors are written.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
