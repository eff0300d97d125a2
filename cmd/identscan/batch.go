package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/identscan/internal/config"
	"github.com/nao1215/identscan/internal/model"
	"github.com/nao1215/identscan/internal/pipeline"
	"github.com/nao1215/identscan/internal/report"
)

var (
	errNoSubjects    = errors.New("no subjects provided (pass values as arguments or with --file)")
	errBatchTooLarge = fmt.Errorf("too many subjects: at most %d per batch (use --force to override)", pipeline.MaxBatchSize)
)

// NewBatchCmd creates the batch command.
func NewBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch [values...]",
		Short: "Look up many subjects of one kind",
		Long: `Batch looks up several subjects of the same kind concurrently and writes
one combined report. Invalid values are reported individually and do not
stop the others.

Examples:
  identscan batch alice bob carol
  identscan batch --kind email --file emails.txt --json

A --file lists one value per line; blank lines and lines starting with '#'
are skipped.`,
		Args: cobra.ArbitraryArgs,
		RunE: runBatchCmd,
	}

	addLookupFlags(cmd)
	cmd.Flags().StringP("kind", "k", model.KindUsername.String(),
		"Subject kind: username, email or image")
	cmd.Flags().StringP("file", "f", "",
		"Read values from a file, one per line")
	cmd.Flags().Bool("force", false,
		fmt.Sprintf("Allow more than %d subjects", pipeline.MaxBatchSize))
	cmd.Flags().IntP("batch-concurrency", "b", config.DefaultBatchConcurrency,
		"Number of subjects looked up at once")

	return cmd
}

func runBatchCmd(cmd *cobra.Command, args []string) error {
	kindName, err := cmd.Flags().GetString("kind")
	if err != nil {
		return err
	}
	kind, err := model.ParseKind(kindName)
	if err != nil {
		return err
	}
	file, err := cmd.Flags().GetString("file")
	if err != nil {
		return err
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	values := append([]string(nil), args...)
	if file != "" {
		fromFile, err := readValuesFile(file)
		if err != nil {
			return err
		}
		values = append(values, fromFile...)
	}
	if len(values) == 0 {
		return errNoSubjects
	}
	if len(values) > pipeline.MaxBatchSize && !force {
		return errBatchTooLarge
	}

	cfg, err := buildConfig(cmd, os.LookupEnv)
	if err != nil {
		return err
	}
	logger := newLogger(cmd, cfg.Verbose)

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cmd, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	runner := pipeline.NewBatchRunner(a.orchestrator,
		pipeline.WithBatchLogger(logger),
		pipeline.WithBatchConcurrency(cfg.BatchConcurrency),
	)

	progress := cmd.ErrOrStderr()
	fmt.Fprintf(progress, "Looking up %d %s subjects (concurrency: %d)...\n", len(values), kind, cfg.BatchConcurrency)
	start := time.Now()

	results := make([]pipeline.BatchResult, len(values))
	var (
		mu   sync.Mutex
		done int
	)
	runner.RunWithCallback(ctx, kind, values, cfg.SubjectOptions(), func(r pipeline.BatchResult, i int) {
		mu.Lock()
		defer mu.Unlock()
		results[i] = r
		done++
		fmt.Fprintf(progress, "[%d/%d] %s: %s\n", done, len(values), r.Value, batchStatus(r))
	})

	fmt.Fprintf(progress, "Batch completed in %s\n\n", time.Since(start).Round(time.Millisecond))

	return withOutput(cmd, cfg, func(w report.Writer) error {
		_, err := w.WriteBatch(results)
		return err
	})
}

func batchStatus(r pipeline.BatchResult) string {
	if r.Report == nil {
		return "rejected: " + r.Error
	}
	return fmt.Sprintf("%d platform(s) found", r.Report.Summary.PlatformsFound)
}

func readValuesFile(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided input file is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to open values file: %w", err)
	}
	defer f.Close()
	return readValues(f)
}

// readValues returns the non-blank, non-comment lines of r.
func readValues(r io.Reader) ([]string, error) {
	var values []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		values = append(values, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read values: %w", err)
	}
	return values, nil
}
