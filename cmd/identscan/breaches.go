package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/identscan/internal/breachdb"
	"github.com/nao1215/identscan/internal/config"
)

// NewBreachesCmd creates the breaches command group.
func NewBreachesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "breaches",
		Short: "Manage the local breach corpus",
		Long: `Breaches manages the local sqlite corpus that email lookups consult
alongside Have I Been Pwned.`,
	}
	cmd.PersistentFlags().String("breach-db", "",
		"Corpus path (default: breaches.db in the XDG data directory)")

	cmd.AddCommand(newBreachesImportCmd())
	cmd.AddCommand(newBreachesStatsCmd())
	return cmd
}

func newBreachesImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.json>",
		Short: "Import breach records into the corpus",
		Long: `Import loads a JSON corpus into the local breach database. Breaches use
the Have I Been Pwned field names; accounts list the breaches each email
address appears in:

  {
    "breaches": [
      {"Name": "Adobe", "Title": "Adobe", "Domain": "adobe.com",
       "BreachDate": "2013-10-04", "DataClasses": ["Email addresses", "Passwords"]}
    ],
    "accounts": [
      {"email": "alice@example.com", "breaches": ["Adobe"]}
    ]
  }

Importing is idempotent: existing breaches are updated and known exposures
are kept.`,
		Args: cobra.ExactArgs(1),
		RunE: runBreachesImportCmd,
	}
}

func newBreachesStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show corpus statistics",
		Args:  cobra.NoArgs,
		RunE:  runBreachesStatsCmd,
	}
}

func breachDBPath(cmd *cobra.Command) (string, error) {
	path, err := cmd.Flags().GetString("breach-db")
	if err != nil {
		return "", err
	}
	if path == "" {
		path = config.DefaultBreachDBPath()
	}
	return path, nil
}

func runBreachesImportCmd(cmd *cobra.Command, args []string) error {
	path, err := breachDBPath(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cmd, getVerboseFlag(cmd))

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open corpus file: %w", err)
	}
	defer f.Close()

	corpus, err := breachdb.ReadCorpus(f)
	if err != nil {
		return err
	}

	db, err := breachdb.Open(path, breachdb.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open breach corpus: %w", err)
	}
	defer db.Close()

	stats, err := db.Import(commandContext(cmd), corpus)
	if err != nil {
		return err
	}
	logger.Info("corpus imported", "path", path, "breaches", stats.Breaches, "exposures", stats.Exposures)

	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d breaches and %d exposures into %s\n",
		stats.Breaches, stats.Exposures, path)
	return nil
}

func runBreachesStatsCmd(cmd *cobra.Command, _ []string) error {
	path, err := breachDBPath(cmd)
	if err != nil {
		return err
	}

	opts := breachdb.DefaultOptions()
	opts.CreateIfNotExists = false
	db, err := breachdb.Open(path, opts)
	if err != nil {
		return fmt.Errorf("failed to open breach corpus: %w", err)
	}
	defer db.Close()

	breaches, accounts, err := db.Stats(commandContext(cmd))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d breaches, %d accounts\n", path, breaches, accounts)
	return nil
}
