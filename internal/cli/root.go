// Package cli implements the pdfaccess command line.
package cli

import (
	"encoding/json"
	"io"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dgallion1/pdfaccess/internal/pdfdoc"
)

func NewRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "pdfaccess",
		Short: "PDF accessibility analysis and remediation",
		Long: `pdfaccess inspects the tagged structure of PDF documents, reports
accessibility problems such as figures without alternative text, and can
write alt text back into a document.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log progress to stderr")

	logger := func(cmd *cobra.Command) *slog.Logger {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	}

	opener := pdfdoc.NewOpener()
	cmd.AddCommand(newValidateCmd(opener, logger))
	cmd.AddCommand(newAuditCmd(opener, logger))
	cmd.AddCommand(newImagesCmd(opener))
	cmd.AddCommand(newTagCmd(opener, logger))

	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
