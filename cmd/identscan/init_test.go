package main

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/nao1215/identscan/internal/config"
)

func TestNewInitCmd(t *testing.T) {
	t.Parallel()

	cmd := NewInitCmd()
	flag := cmd.Flags().Lookup("output")
	if flag == nil {
		t.Fatal("expected output flag")
	}
	if flag.DefValue != configFileName {
		t.Errorf("expected default %q, got %q", configFileName, flag.DefValue)
	}
	if cmd.Flags().Lookup("force") == nil || cmd.Flags().Lookup("xdg") == nil {
		t.Error("expected force and xdg flags")
	}
}

func TestRunInitCmd(t *testing.T) {
	t.Parallel()

	t.Run("creates a loadable definitions file", func(t *testing.T) {
		t.Parallel()

		outputPath := filepath.Join(t.TempDir(), "nested", ".identscan")
		stdout, _, err := execute(t, "init", "-o", outputPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, outputPath) {
			t.Errorf("expected path in output, got %q", stdout)
		}

		content, err := os.ReadFile(outputPath)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(content), "no_defaults") {
			t.Error("expected template content")
		}

		// Everything in the template is commented out, so it loads as the defaults.
		defs, err := config.Load(outputPath)
		if err != nil {
			t.Fatalf("template does not load: %v", err)
		}
		defaults, err := config.LoadDefaults()
		if err != nil {
			t.Fatal(err)
		}
		if len(defs.Probes) != len(defaults.Probes) {
			t.Errorf("expected %d probes, got %d", len(defaults.Probes), len(defs.Probes))
		}

		if runtime.GOOS != "windows" {
			info, err := os.Stat(outputPath)
			if err != nil {
				t.Fatal(err)
			}
			if info.Mode().Perm() != 0o600 {
				t.Errorf("expected mode 0600, got %o", info.Mode().Perm())
			}
		}
	})

	t.Run("refuses to overwrite without force", func(t *testing.T) {
		t.Parallel()

		outputPath := filepath.Join(t.TempDir(), ".identscan")
		if err := os.WriteFile(outputPath, []byte("existing"), 0o600); err != nil {
			t.Fatal(err)
		}

		if _, _, err := execute(t, "init", "-o", outputPath); err == nil {
			t.Fatal("expected error for existing file")
		}
		if _, _, err := execute(t, "init", "-o", outputPath, "-f"); err != nil {
			t.Fatalf("unexpected error with force: %v", err)
		}
		content, err := os.ReadFile(outputPath)
		if err != nil {
			t.Fatal(err)
		}
		if string(content) == "existing" {
			t.Error("expected file to be overwritten")
		}
	})
}
