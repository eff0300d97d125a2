package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/nao1215/identscan/internal/breachdb"
	"github.com/nao1215/identscan/internal/config"
	"github.com/nao1215/identscan/internal/model"
	"github.com/nao1215/identscan/internal/probe"
	"github.com/nao1215/identscan/internal/registry"
	"github.com/nao1215/identscan/internal/report"
)

var allKinds = []model.Kind{model.KindUsername, model.KindEmail, model.KindImage}

// NewSitesCmd creates the sites command.
func NewSitesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sites",
		Short: "List the configured probes",
		Long: `Sites lists every probe that a lookup would run, grouped by subject kind
and tier, after the definitions file has been applied.

The breach corpus probe is listed only when a corpus exists.

Examples:
  identscan sites
  identscan sites --kind email`,
		Args: cobra.NoArgs,
		RunE: runSitesCmd,
	}

	cmd.Flags().StringP("kind", "k", "", "Only list probes for this kind: username, email or image")
	cmd.Flags().StringP("config", "c", "", "Definitions file")
	cmd.Flags().String("breach-db", "", "Breach corpus path")

	return cmd
}

func runSitesCmd(cmd *cobra.Command, _ []string) error {
	kinds := allKinds
	kindName, err := cmd.Flags().GetString("kind")
	if err != nil {
		return err
	}
	if kindName != "" {
		kind, err := model.ParseKind(kindName)
		if err != nil {
			return err
		}
		kinds = []model.Kind{kind}
	}

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	dbPath, err := cmd.Flags().GetString("breach-db")
	if err != nil {
		return err
	}

	defs, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load definitions: %w", err)
	}
	if dbPath == "" {
		dbPath = defs.BreachDB
	}
	if dbPath == "" {
		dbPath = config.DefaultBreachDBPath()
	}

	deps := registry.Deps{Logger: newLogger(cmd, getVerboseFlag(cmd))}
	if fileExists(dbPath) {
		opts := breachdb.DefaultOptions()
		opts.CreateIfNotExists = false
		db, err := breachdb.Open(dbPath, opts)
		if err != nil {
			return fmt.Errorf("failed to open breach corpus: %w", err)
		}
		defer db.Close()
		deps.BreachLookup = db
	}

	reg, err := registry.Build(defs, deps)
	if err != nil {
		return fmt.Errorf("failed to build probe registry: %w", err)
	}

	out := cmd.OutOrStdout()
	_, err = io.WriteString(out, renderSites(reg, kinds, report.IsTerminal(out)))
	return err
}

// renderSites renders the registry as one table.
func renderSites(reg *registry.Registry, kinds []model.Kind, rounded bool) string {
	tw := table.NewWriter()
	if rounded {
		tw.SetStyle(table.StyleRounded)
	} else {
		tw.SetStyle(table.StyleDefault)
	}
	tw.AppendHeader(table.Row{"Kind", "Tier", "Name", "Source", "Target", "Tags"})

	total := 0
	for _, kind := range kinds {
		for _, d := range reg.Descriptors(kind) {
			tier := strconv.Itoa(d.Tier)
			if d.Signal {
				tier = "signal"
			}
			tw.AppendRow(table.Row{kind.String(), tier, d.Name, d.Source.String(), target(d), strings.Join(d.Tags, ", ")})
			total++
		}
	}
	tw.AppendFooter(table.Row{"", "", fmt.Sprintf("%d probes", total)})
	return tw.Render() + "\n"
}

// target is what a probe contacts: a URL, a command or nothing for local probes.
func target(d probe.Descriptor) string {
	switch {
	case d.Invocation != nil:
		return d.Invocation.Command
	case d.URLTemplate != "":
		return d.URLTemplate
	default:
		return "-"
	}
}
