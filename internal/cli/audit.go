package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/pdfaccess/internal/accessibility"
	"github.com/dgallion1/pdfaccess/internal/cache"
	"github.com/dgallion1/pdfaccess/internal/pdfdoc"
	"github.com/dgallion1/pdfaccess/internal/report"
	"github.com/dgallion1/pdfaccess/internal/textlayer"
)

var auditFormats = []string{"json", "yaml", "markdown", "html", "docx", "parquet"}

// auditItem is one audited file together with the report input built for it.
type auditItem struct {
	audit report.Audit
	input report.Input
}

type auditor struct {
	opener    *pdfdoc.Opener
	validator *accessibility.Validator
	extractor *accessibility.Extractor
	log       *slog.Logger
}

func (a *auditor) run(ctx context.Context, path string) auditItem {
	item := auditItem{
		audit: report.Audit{File: path, Findings: []report.Finding{}},
		input: report.Input{Filename: filepath.Base(path)},
	}

	v := a.validator.Validate(ctx, path)
	item.audit.Validation = v
	if !v.CanProceed {
		a.log.Warn("skipping file", "file", path, "status", v.Status)
		return item
	}

	res := a.extractor.Extract(ctx, path, filepath.Base(path))
	item.audit.Result = res
	item.input.Result = res

	if images, err := a.opener.ListImages(ctx, path); err == nil {
		n := len(images)
		item.audit.ActualImageCount = &n
		item.input.ActualImageCount = &n
	} else {
		a.log.Debug("image listing failed", "file", path, "error", err)
	}
	if text, err := textlayer.Probe(path); err == nil {
		item.input.Text = text
	} else {
		a.log.Debug("text layer probe failed", "file", path, "error", err)
	}

	item.audit.Findings = report.Findings(item.input)
	a.log.Info("audited", "file", path, "findings", len(item.audit.Findings))
	return item
}

func newAuditCmd(opener *pdfdoc.Opener, logger func(*cobra.Command) *slog.Logger) *cobra.Command {
	var (
		format      string
		out         string
		timeout     time.Duration
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "audit <files...>",
		Short: "Analyze PDFs and report accessibility findings",
		Long: `Analyze one or more PDFs and write a report per file.

json, yaml, markdown and parquet combine all files into one output. html and
docx write one document per file; with several inputs --out names a
directory.`,
		Example: `  # Markdown report on stdout
  pdfaccess audit report.pdf --format markdown

  # Batch audit into a Parquet table
  pdfaccess audit scans/*.pdf --format parquet --out audit.parquet --concurrency 8`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(format)
			if !slices.Contains(auditFormats, format) {
				return fmt.Errorf("unsupported format: %s (want one of %s)", format, strings.Join(auditFormats, ", "))
			}
			perFile := format == "html" || format == "docx"
			if perFile && len(args) > 1 && out == "" {
				return fmt.Errorf("--out directory is required for %s with several files", format)
			}

			log := logger(cmd)
			a := &auditor{
				opener:    opener,
				validator: accessibility.NewValidator(opener, log),
				extractor: accessibility.NewExtractor(opener, log,
					accessibility.WithTimeout(timeout),
					accessibility.WithStore(cache.NewMemory()),
				),
				log: log,
			}

			items := make([]auditItem, len(args))
			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(max(concurrency, 1))
			for i, path := range args {
				g.Go(func() error {
					items[i] = a.run(ctx, path)
					return ctx.Err()
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			if perFile {
				return writePerFile(cmd.OutOrStdout(), out, format, items)
			}
			return writeCombined(cmd.OutOrStdout(), out, format, items)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format: "+strings.Join(auditFormats, ", "))
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (or directory for per-file formats); stdout when empty")
	cmd.Flags().DurationVar(&timeout, "timeout", accessibility.DefaultTimeout, "Extraction timeout per file")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "Files analyzed in parallel")

	return cmd
}

func writeCombined(stdout io.Writer, out, format string, items []auditItem) error {
	var buf bytes.Buffer
	switch format {
	case "json", "yaml":
		audits := make([]report.Audit, len(items))
		for i, it := range items {
			audits[i] = it.audit
		}
		if format == "json" {
			if err := printJSON(&buf, audits); err != nil {
				return err
			}
			break
		}
		data, err := report.YAML(audits)
		if err != nil {
			return err
		}
		buf.Write(data)
	case "markdown":
		for i, it := range items {
			if i > 0 {
				buf.WriteString("\n---\n\n")
			}
			buf.WriteString(report.Markdown(it.input))
		}
	case "parquet":
		rows := make([]report.Row, len(items))
		for i, it := range items {
			rows[i] = report.NewRow(it.audit)
		}
		if err := report.WriteParquet(&buf, rows); err != nil {
			return err
		}
	}
	return emit(stdout, out, buf.Bytes())
}

func writePerFile(stdout io.Writer, out, format string, items []auditItem) error {
	if len(items) > 1 {
		if err := os.MkdirAll(out, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	for _, it := range items {
		var buf bytes.Buffer
		if format == "html" {
			data, err := report.HTML(it.input)
			if err != nil {
				return fmt.Errorf("%s: %w", it.audit.File, err)
			}
			buf.Write(data)
		} else if err := report.DOCX(it.input, &buf); err != nil {
			return fmt.Errorf("%s: %w", it.audit.File, err)
		}

		target := out
		if len(items) > 1 {
			base := strings.TrimSuffix(filepath.Base(it.audit.File), filepath.Ext(it.audit.File))
			target = filepath.Join(out, base+"-accessibility."+format)
		}
		if err := emit(stdout, target, buf.Bytes()); err != nil {
			return err
		}
	}
	return nil
}

// emit writes data to path, or to stdout when path is empty.
func emit(stdout io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
