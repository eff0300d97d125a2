package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/identscan/internal/model"
)

// exitInvalidSubject is the exit status for a subject that failed validation.
const exitInvalidSubject = 2

// NewRootCmd creates the root command for identscan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "identscan",
		Short: "Multi-source identity lookup for usernames, emails and images",
		Long: `identscan checks a username, an email address or an image against many
public sources, external OSINT tools and breach data, then aggregates the
results into a single report.

Sources are organized in tiers. When the primary tier produces nothing
usable, for example because an external tool is not installed, the next
tier is tried automatically.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewUsernameCmd())
	cmd.AddCommand(NewEmailCmd())
	cmd.AddCommand(NewImageCmd())
	cmd.AddCommand(NewBatchCmd())
	cmd.AddCommand(NewSitesCmd())
	cmd.AddCommand(NewBreachesCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		return exitInvalidSubject
	}
	return 1
}
