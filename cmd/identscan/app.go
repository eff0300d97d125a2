package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nao1215/identscan/internal/breachdb"
	"github.com/nao1215/identscan/internal/config"
	"github.com/nao1215/identscan/internal/log"
	"github.com/nao1215/identscan/internal/pipeline"
	"github.com/nao1215/identscan/internal/registry"
	"github.com/nao1215/identscan/internal/transport"
)

// addLookupFlags registers the flags shared by every command that runs lookups.
func addLookupFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("max-sources", "n", config.DefaultMaxSources,
		"Maximum probes per tier (0 for no limit)")
	cmd.Flags().DurationP("timeout", "t", config.DefaultPerProbeTimeout,
		"Timeout for each probe")
	cmd.Flags().Duration("overall-timeout", config.DefaultOverallTimeout,
		"Timeout for the whole lookup; a partial report is returned when it expires")
	cmd.Flags().Int("concurrency", config.DefaultMaxConcurrency,
		"Maximum probes running at once per lookup")

	cmd.Flags().StringP("config", "c", "",
		"Definitions file (default: .identscan, then the XDG config directory)")
	cmd.Flags().String("breach-db", "",
		"Breach corpus created by `breaches import` (default: XDG data directory, if present)")

	cmd.Flags().String("proxy", "",
		"Route requests through a SOCKS5 proxy (e.g. 127.0.0.1:9050)")
	cmd.Flags().Bool("tor", false,
		"Start an embedded Tor daemon and route requests through it")
	cmd.Flags().Duration("tor-timeout", config.DefaultTorStartupTimeout,
		"Timeout for embedded Tor startup")

	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from flags, the environment and the
// definitions file, in that order of precedence.
func buildConfig(cmd *cobra.Command, lookupEnv func(string) (string, bool)) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	if cfg.MaxSources, err = flags.GetInt("max-sources"); err != nil {
		return nil, err
	}
	if cfg.PerProbeTimeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.OverallTimeout, err = flags.GetDuration("overall-timeout"); err != nil {
		return nil, err
	}
	if cfg.MaxConcurrency, err = flags.GetInt("concurrency"); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}
	if cfg.BreachDBPath, err = flags.GetString("breach-db"); err != nil {
		return nil, err
	}
	if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
		return nil, err
	}
	if cfg.UseTor, err = flags.GetBool("tor"); err != nil {
		return nil, err
	}
	if cfg.TorStartupTimeout, err = flags.GetDuration("tor-timeout"); err != nil {
		return nil, err
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if flags.Lookup("batch-concurrency") != nil {
		if cfg.BatchConcurrency, err = flags.GetInt("batch-concurrency"); err != nil {
			return nil, err
		}
	}
	cfg.Verbose = getVerboseFlag(cmd)

	cfg.ApplyEnv(lookupEnv)

	defs, err := config.Load(cfg.ConfigFilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load definitions: %w", err)
	}
	cfg.ApplyFile(defs)

	if cfg.BreachDBPath == "" {
		if path := config.DefaultBreachDBPath(); fileExists(path) {
			cfg.BreachDBPath = path
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

// newLogger creates the CLI logger. Every lookup session gets its own
// query_id so concurrent runs can be told apart in shared logs.
func newLogger(cmd *cobra.Command, verbose bool) *slog.Logger {
	return log.NewSecureLogger(cmd.ErrOrStderr(), verbose).With("query_id", uuid.NewString())
}

// app is the wiring shared by lookup commands.
type app struct {
	cfg          *config.Config
	logger       *slog.Logger
	registry     *registry.Registry
	orchestrator *pipeline.Orchestrator
	closers      []func() error
}

// newApp connects the transport, opens the breach corpus and builds the
// probe registry. Call Close when done.
func newApp(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) (_ *app, err error) {
	a := &app{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	client, err := a.transportClient(ctx, cmd)
	if err != nil {
		return nil, err
	}

	deps := registry.Deps{
		HTTPClient:  client.HTTPClient(),
		GitHubToken: cfg.GitHubToken,
		HIBPAPIKey:  cfg.HIBPAPIKey,
		MaxBodySize: cfg.MaxBodySize,
		Logger:      logger,
	}
	if addr := client.ProxyAddress(); addr != "" {
		deps.ProcessEnv = proxyEnv(addr)
	}

	if cfg.BreachDBPath != "" && hasCorpusProbe(cfg.Definitions) {
		opts := breachdb.DefaultOptions()
		opts.CreateIfNotExists = false
		db, err := breachdb.Open(cfg.BreachDBPath, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to open breach corpus: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		deps.BreachLookup = db
		logger.Debug("breach corpus opened", "path", db.Path())
	}

	reg, err := registry.Build(cfg.Definitions, deps)
	if err != nil {
		return nil, fmt.Errorf("failed to build probe registry: %w", err)
	}
	a.registry = reg
	a.orchestrator = pipeline.New(reg,
		pipeline.WithLogger(logger),
		pipeline.WithMaxConcurrency(cfg.MaxConcurrency),
	)
	return a, nil
}

// transportClient returns the client shared by all probes: direct, through
// a SOCKS5 proxy, or through an embedded Tor daemon.
func (a *app) transportClient(ctx context.Context, cmd *cobra.Command) (*transport.Client, error) {
	opts := []transport.Option{transport.WithUserAgent(a.cfg.UserAgent)}

	switch {
	case a.cfg.UseTor:
		return a.startEmbeddedTor(ctx, cmd, opts)

	case a.cfg.ProxyAddress != "":
		client, err := transport.NewClient(append(opts, transport.WithProxy(a.cfg.ProxyAddress))...)
		if err != nil {
			return nil, fmt.Errorf("failed to create proxy client: %w", err)
		}
		if status := client.CheckConnection(ctx); status != transport.ProxyStatusOK {
			return nil, fmt.Errorf("proxy check failed: %s (make sure a SOCKS5 proxy is running at %s)",
				status, a.cfg.ProxyAddress)
		}
		a.logger.Info("proxy connection verified", "address", a.cfg.ProxyAddress)
		return client, nil

	default:
		return transport.NewClient(opts...)
	}
}

// startEmbeddedTor starts a Tor daemon and returns a client routed through it.
func (a *app) startEmbeddedTor(ctx context.Context, cmd *cobra.Command, opts []transport.Option) (*transport.Client, error) {
	fmt.Fprintln(cmd.ErrOrStderr(), "Starting embedded Tor daemon (this may take 1-3 minutes)...")

	tor := transport.NewEmbeddedTor(transport.WithStartupTimeout(a.cfg.TorStartupTimeout))
	if err := tor.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start embedded Tor: %w", err)
	}
	a.closers = append(a.closers, func() error {
		a.logger.Info("stopping embedded Tor daemon")
		return tor.Stop()
	})
	a.logger.Info("embedded Tor daemon started", "socksAddr", tor.SocksAddr())

	client, err := tor.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Tor client: %w", err)
	}
	if status := client.CheckConnection(ctx); status != transport.ProxyStatusOK {
		return nil, fmt.Errorf("embedded Tor proxy check failed: %s", status)
	}
	return client, nil
}

// Close releases everything newApp opened, in reverse order.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Error("cleanup failed", "error", err)
		}
	}
	a.closers = nil
}

func hasCorpusProbe(defs *config.File) bool {
	for _, d := range defs.Probes {
		if d.Type == config.TypeCorpus {
			return true
		}
	}
	return false
}

// proxyEnv routes external tools through the same SOCKS5 proxy.
func proxyEnv(address string) []string {
	proxyURL := "socks5://" + address
	return []string{"ALL_PROXY=" + proxyURL, "HTTPS_PROXY=" + proxyURL, "HTTP_PROXY=" + proxyURL}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
