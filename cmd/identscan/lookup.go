package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/identscan/internal/model"
	"github.com/nao1215/identscan/internal/report"
)

// NewUsernameCmd creates the username command.
func NewUsernameCmd() *cobra.Command {
	return newLookupCmd(model.KindUsername, "username <name>",
		"Find accounts registered under a username",
		`Username checks a username against multi-site tools and direct profile
URLs. Names must be 3 to 64 characters of letters, digits, '.', '_' or '-'.

Examples:
  identscan username alice
  identscan username --max-sources 5 --json alice`)
}

// NewEmailCmd creates the email command.
func NewEmailCmd() *cobra.Command {
	return newLookupCmd(model.KindEmail, "email <address>",
		"Find services and breaches linked to an email address",
		`Email checks which services an address is registered with, which known
breaches include it, and what its domain reveals (provider, disposable
domain, mail exchangers).

Breach data comes from Have I Been Pwned (set IDENTSCAN_HIBP_API_KEY) and
from a local corpus created with 'identscan breaches import'.

Examples:
  identscan email alice@example.com
  identscan email --markdown -o report.md alice@example.com`)
}

// NewImageCmd creates the image command.
func NewImageCmd() *cobra.Command {
	return newLookupCmd(model.KindImage, "image <path>",
		"Find where an image is published and what its metadata reveals",
		`Image uploads a local image to reverse image search engines and extracts
its SHA3-256 fingerprint and EXIF metadata (camera, GPS, author).
Supported formats: jpg, jpeg, png, gif, webp.

Examples:
  identscan image photo.jpg
  identscan image --tor photo.jpg`)
}

func newLookupCmd(kind model.Kind, use, short, long string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Long:  long,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLookupCmd(cmd, kind, args[0])
		},
	}
	addLookupFlags(cmd)
	return cmd
}

func runLookupCmd(cmd *cobra.Command, kind model.Kind, value string) error {
	cfg, err := buildConfig(cmd, os.LookupEnv)
	if err != nil {
		return err
	}
	logger := newLogger(cmd, cfg.Verbose)

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Reject bad input before starting Tor or opening the corpus.
	if _, err := model.NewSubject(kind, value, cfg.SubjectOptions()); err != nil {
		return err
	}

	a, err := newApp(ctx, cmd, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	start := time.Now()
	rep, err := a.orchestrator.Lookup(ctx, kind, value, cfg.SubjectOptions())
	if err != nil {
		return err
	}
	logger.Info("lookup finished",
		"kind", kind.String(),
		"findings", len(rep.Findings),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)

	return withOutput(cmd, cfg, func(w report.Writer) error {
		_, err := w.Write(rep)
		return err
	})
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
