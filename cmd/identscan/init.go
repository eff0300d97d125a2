package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/identscan/internal/config"
)

//go:embed templates/identscan.yaml
var configTemplate embed.FS

// configFileName is the default output of `identscan init`.
const configFileName = config.DefaultConfigFile

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a definitions file",
		Long: `Init writes a commented definitions file that adds, overrides or disables
probes and holds API credentials.

Examples:
  # Create .identscan in the current directory
  identscan init

  # Create the per-user file in the XDG config directory
  identscan init --xdg

  # Write to a specific path, overwriting an existing file
  identscan init -o defs.yaml -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", configFileName, "Output file path")
	cmd.Flags().Bool("xdg", false, "Write to the XDG config directory instead of --output")
	cmd.Flags().BoolP("force", "f", false, "Overwrite an existing file")

	return cmd
}

func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	useXDG, err := cmd.Flags().GetBool("xdg")
	if err != nil {
		return err
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}
	if useXDG {
		outputPath = filepath.Join(config.XDGConfigDir(), config.XDGConfigFile)
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("definitions file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile("templates/identscan.yaml")
	if err != nil {
		return fmt.Errorf("failed to read template: %w", err)
	}

	if dir := filepath.Dir(outputPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// Credentials may be stored here, so the file is owner-only.
	if err := os.WriteFile(outputPath, content, 0o600); err != nil {
		return fmt.Errorf("failed to write definitions file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created definitions file: %s\n", outputPath)
	return nil
}
