package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/identscan/internal/config"
	"github.com/nao1215/identscan/internal/report"
)

// withOutput opens the report destination, builds the writer for the
// requested format and passes it to fn.
func withOutput(cmd *cobra.Command, cfg *config.Config, fn func(report.Writer) error) error {
	out := cmd.OutOrStdout()

	if cfg.ReportFile != "" {
		if dir := filepath.Dir(cfg.ReportFile); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}
		// Reports may contain personal data, so the file is owner-only.
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if err := fn(newWriter(cfg, out)); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func newWriter(cfg *config.Config, out io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewFullJSONWriter(out, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(out)
	default:
		return report.NewTextWriter(out,
			report.WithTerminal(report.IsTerminal(out)),
			report.WithVerbose(cfg.Verbose),
		)
	}
}
