package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dgallion1/pdfaccess/internal/accessibility"
	"github.com/dgallion1/pdfaccess/internal/pdfdoc"
)

func newValidateCmd(opener *pdfdoc.Opener, logger func(*cobra.Command) *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Check that a PDF can be analyzed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v := accessibility.NewValidator(opener, logger(cmd))
			res := v.Validate(cmd.Context(), args[0])
			if err := printJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			if !res.CanProceed {
				return fmt.Errorf("%s: %s", args[0], res.Status)
			}
			return nil
		},
	}
}

func newImagesCmd(opener *pdfdoc.Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "images <file>",
		Short: "List the images drawn on the pages of a PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			images, err := opener.ListImages(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("list images: %w", err)
			}
			if images == nil {
				images = []pdfdoc.ImageInfo{}
			}
			return printJSON(cmd.OutOrStdout(), images)
		},
	}
}

func newTagCmd(opener *pdfdoc.Opener, logger func(*cobra.Command) *slog.Logger) *cobra.Command {
	var (
		index int
		alt   string
	)

	cmd := &cobra.Command{
		Use:   "tag <file>",
		Short: "Attach alt text to an image, tagging the document if needed",
		Example: `  # Describe the first image
  pdfaccess tag report.pdf --index 0 --alt "Bar chart of quarterly revenue"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if accessibility.NormalizeAltText(alt) == "" {
				return fmt.Errorf("--alt must not be empty")
			}
			r := accessibility.NewRemediator(opener, logger(cmd))
			if !r.TagImage(cmd.Context(), args[0], index, alt) {
				return fmt.Errorf("failed to tag image %d in %s", index, args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Tagged image %d in %s\n", index, args[0])
			return nil
		},
	}

	cmd.Flags().IntVar(&index, "index", 0, "Image index as listed by the images command")
	cmd.Flags().StringVar(&alt, "alt", "", "Alternative text")
	cmd.MarkFlagRequired("alt")

	return cmd
}
