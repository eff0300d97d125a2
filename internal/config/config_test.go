package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/identscan/internal/model"
)

// TestNewConfig documents the defaults; a changed default must change this test.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default per-probe timeout is 15 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.PerProbeTimeout != 15*time.Second {
			t.Errorf("expected 15s, got %v", cfg.PerProbeTimeout)
		}
	})

	t.Run("default overall timeout is 150 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.OverallTimeout != 150*time.Second {
			t.Errorf("expected 150s, got %v", cfg.OverallTimeout)
		}
	})

	t.Run("default max sources is 20", func(t *testing.T) {
		t.Parallel()
		if cfg.MaxSources != 20 {
			t.Errorf("expected 20, got %d", cfg.MaxSources)
		}
	})

	t.Run("default concurrency is 10 per tier and 4 per batch", func(t *testing.T) {
		t.Parallel()
		if cfg.MaxConcurrency != 10 || cfg.BatchConcurrency != 4 {
			t.Errorf("expected 10/4, got %d/%d", cfg.MaxConcurrency, cfg.BatchConcurrency)
		}
	})

	t.Run("default config is valid", func(t *testing.T) {
		t.Parallel()
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{name: "zero timeout", mutate: func(c *Config) { c.PerProbeTimeout = 0 }, wantErr: ErrInvalidTimeout},
		{name: "negative overall timeout", mutate: func(c *Config) { c.OverallTimeout = -time.Second }, wantErr: ErrInvalidOverallTimeout},
		{name: "zero concurrency", mutate: func(c *Config) { c.MaxConcurrency = 0 }, wantErr: ErrInvalidConcurrency},
		{name: "zero batch concurrency", mutate: func(c *Config) { c.BatchConcurrency = 0 }, wantErr: ErrInvalidConcurrency},
		{name: "negative max sources", mutate: func(c *Config) { c.MaxSources = -1 }, wantErr: ErrInvalidMaxSources},
		{name: "zero max sources is unlimited", mutate: func(c *Config) { c.MaxSources = 0 }},
		{name: "json and markdown", mutate: func(c *Config) { c.JSONReport, c.MarkdownReport = true, true }, wantErr: ErrConflictingReportFormats},
		{name: "json only", mutate: func(c *Config) { c.JSONReport = true }},
		{name: "negative body size", mutate: func(c *Config) { c.MaxBodySize = -1 }, wantErr: ErrInvalidMaxBodySize},
		{name: "proxy without port", mutate: func(c *Config) { c.ProxyAddress = "127.0.0.1" }, wantErr: ErrInvalidProxyAddress},
		{name: "proxy with port", mutate: func(c *Config) { c.ProxyAddress = "127.0.0.1:9050" }},
		{name: "proxy and tor", mutate: func(c *Config) { c.ProxyAddress, c.UseTor = "127.0.0.1:9050", true }, wantErr: ErrConflictingProxy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := NewConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestSubjectOptions(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	cfg.MaxSources = 5
	cfg.PerProbeTimeout = 3 * time.Second

	opts := cfg.SubjectOptions()
	if opts.MaxSources != 5 || opts.PerProbeTimeout != 3*time.Second {
		t.Errorf("unexpected options %+v", opts)
	}
	if opts.OverallTimeout != DefaultOverallTimeout || opts.MaxImageBytes != DefaultMaxImageBytes {
		t.Errorf("expected defaults carried over, got %+v", opts)
	}
}

func TestApplyFileAndEnv(t *testing.T) {
	t.Parallel()

	file := &File{HIBPAPIKey: "file-key", GitHubToken: "file-token", UserAgent: "custom/1.0", BreachDB: "/tmp/b.db"}
	env := map[string]string{EnvHIBPAPIKey: "env-key"}

	cfg := NewConfig()
	cfg.ApplyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	cfg.ApplyFile(file)

	if cfg.HIBPAPIKey != "env-key" {
		t.Errorf("expected environment to win over file, got %q", cfg.HIBPAPIKey)
	}
	if cfg.GitHubToken != "file-token" {
		t.Errorf("expected token from file, got %q", cfg.GitHubToken)
	}
	if cfg.UserAgent != "custom/1.0" {
		t.Errorf("expected user agent from file, got %q", cfg.UserAgent)
	}
	if cfg.BreachDBPath != "/tmp/b.db" {
		t.Errorf("expected breach db from file, got %q", cfg.BreachDBPath)
	}
	if cfg.Definitions != file {
		t.Error("expected definitions to be attached")
	}

	flagged := NewConfig()
	flagged.BreachDBPath = "/flag.db"
	flagged.ApplyFile(file)
	if flagged.BreachDBPath != "/flag.db" {
		t.Errorf("expected flag to win over file, got %q", flagged.BreachDBPath)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	f, err := LoadDefaults()
	if err != nil {
		t.Fatalf("LoadDefaults: %v", err)
	}
	if err := f.Validate(); err != nil {
		t.Fatalf("built-in definitions are invalid: %v", err)
	}

	tiers := func(kind model.Kind) map[int]int {
		counts := make(map[int]int)
		for _, d := range f.ForKind(kind) {
			if !d.Type.IsSignal() {
				counts[d.Tier]++
			}
		}
		return counts
	}

	username := tiers(model.KindUsername)
	if username[0] != 1 || username[1] != 16 {
		t.Errorf("expected username tiers 1+16, got %v", username)
	}
	email := tiers(model.KindEmail)
	if email[0] != 1 || email[1] != 5 {
		t.Errorf("expected email tiers 1+5, got %v", email)
	}
	if image := tiers(model.KindImage); image[0] != 3 || len(image) != 1 {
		t.Errorf("expected a single image tier of 3, got %v", image)
	}

	var maigret ProbeDefinition
	for _, d := range f.ForKind(model.KindUsername) {
		if d.Name == "maigret" {
			maigret = d
		}
	}
	if maigret.Timeout != 120*time.Second {
		t.Errorf("expected maigret timeout 120s, got %v", maigret.Timeout)
	}
	if !strings.Contains(strings.Join(maigret.Args, " "), "{max_sites}") {
		t.Errorf("expected max sites placeholder in %v", maigret.Args)
	}
}

func TestFileMerge(t *testing.T) {
	t.Parallel()

	base := &File{
		HIBPAPIKey: "base",
		Probes: []ProbeDefinition{
			{Name: "GitHub", Kind: "username", Tier: 1, Type: TypeGitHub},
			{Name: "Reddit", Kind: "username", Tier: 1, Type: TypeHTTP, URL: "https://reddit.com/{}"},
			{Name: "GitHub", Kind: "email", Tier: 1, Type: TypeHTTP, URL: "https://github.com/check"},
		},
	}
	override := &File{
		GitHubToken: "tok",
		Probes: []ProbeDefinition{
			{Name: "reddit", Kind: "user", Tier: 1, Type: TypeHTTP, URL: "https://old.reddit.com/u/{}"},
			{Name: "Mastodon", Kind: "username", Tier: 1, Type: TypeHTTP, URL: "https://mastodon.social/@{}"},
		},
		Disable: []string{"github"},
	}

	merged := base.Merge(override)

	if merged.HIBPAPIKey != "base" || merged.GitHubToken != "tok" {
		t.Errorf("unexpected credentials %q %q", merged.HIBPAPIKey, merged.GitHubToken)
	}
	if len(merged.Probes) != 2 {
		t.Fatalf("expected 2 probes after disable, got %+v", merged.Probes)
	}
	if merged.Probes[0].URL != "https://old.reddit.com/u/{}" {
		t.Errorf("expected Reddit replaced in place, got %+v", merged.Probes[0])
	}
	if merged.Probes[1].Name != "Mastodon" {
		t.Errorf("expected Mastodon appended, got %+v", merged.Probes[1])
	}
	if len(base.Probes) != 3 {
		t.Error("merge must not modify the receiver")
	}
}

func TestFileValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		def  ProbeDefinition
	}{
		{name: "missing name", def: ProbeDefinition{Kind: "email", Type: TypeHIBP}},
		{name: "unknown kind", def: ProbeDefinition{Name: "x", Kind: "phone", Type: TypeHTTP, URL: "u"}},
		{name: "unknown type", def: ProbeDefinition{Name: "x", Kind: "email", Type: "smtp"}},
		{name: "http without url", def: ProbeDefinition{Name: "x", Kind: "email", Type: TypeHTTP}},
		{name: "process without command", def: ProbeDefinition{Name: "x", Kind: "email", Type: TypeProcess}},
		{name: "negative tier", def: ProbeDefinition{Name: "x", Kind: "email", Type: TypeHIBP, Tier: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := &File{Probes: []ProbeDefinition{tt.def}}
			if err := f.Validate(); !errors.Is(err, ErrInvalidDefinition) {
				t.Errorf("expected ErrInvalidDefinition, got %v", err)
			}
		})
	}

	t.Run("duplicate probe", func(t *testing.T) {
		t.Parallel()
		def := ProbeDefinition{Name: "x", Kind: "email", Type: TypeHIBP}
		f := &File{Probes: []ProbeDefinition{def, def}}
		if err := f.Validate(); !errors.Is(err, ErrInvalidDefinition) {
			t.Errorf("expected ErrInvalidDefinition, got %v", err)
		}
	})
}

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("valid file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "defs.yaml")
		content := `
hibp_api_key: abc
probes:
  - name: Mastodon
    kind: username
    tier: 1
    type: http
    url: "https://mastodon.social/@{}"
    timeout: 5s
    status: {found: [200], not_found: [404, 410]}
disable: [TikTok]
`
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}

		f, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("LoadConfigFile: %v", err)
		}
		if f.HIBPAPIKey != "abc" || len(f.Probes) != 1 || f.Disable[0] != "TikTok" {
			t.Fatalf("unexpected file %+v", f)
		}
		if f.Probes[0].Timeout != 5*time.Second {
			t.Errorf("expected 5s timeout, got %v", f.Probes[0].Timeout)
		}
		if f.Probes[0].Status == nil || len(f.Probes[0].Status.NotFound) != 2 {
			t.Errorf("expected status codes, got %+v", f.Probes[0].Status)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "bad.yaml")
		if err := os.WriteFile(path, []byte("probes: [unterminated"), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfigFile(path); err == nil {
			t.Error("expected parse error")
		}
	})
}

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("explicit file merges over defaults", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "defs.yaml")
		content := "disable: [maigret, holehe]\n"
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}

		f, err := Load(path)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		for _, d := range f.Probes {
			if d.Name == "maigret" || d.Name == "holehe" {
				t.Errorf("expected %s to be disabled", d.Name)
			}
		}
		if len(f.ForKind(model.KindUsername)) != 16 {
			t.Errorf("expected 16 username probes, got %d", len(f.ForKind(model.KindUsername)))
		}
	})

	t.Run("no_defaults replaces built-in definitions", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "defs.yaml")
		content := "no_defaults: true\nprobes:\n  - {name: Local, kind: username, tier: 0, type: http, url: \"http://127.0.0.1/{}\"}\n"
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}

		f, err := Load(path)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if len(f.Probes) != 1 || f.Probes[0].Name != "Local" {
			t.Errorf("expected only the user probe, got %+v", f.Probes)
		}
	})

	t.Run("explicit missing file", func(t *testing.T) {
		t.Parallel()

		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("invalid user definition", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "defs.yaml")
		content := "probes:\n  - {name: Broken, kind: username, tier: 1, type: http}\n"
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path); !errors.Is(err, ErrInvalidDefinition) {
			t.Errorf("expected ErrInvalidDefinition, got %v", err)
		}
	})
}

func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "explicit.yaml")
	if err := os.WriteFile(path, []byte("{}"), 0o600); err != nil {
		t.Fatal(err)
	}
	if got := FindConfigFile(path); got != path {
		t.Errorf("expected explicit path, got %q", got)
	}
	if got := FindConfigFile(path + ".missing"); got != "" {
		t.Errorf("expected empty result for missing explicit path, got %q", got)
	}
}

func TestXDGDirs(t *testing.T) {
	t.Parallel()

	for name, dir := range map[string]string{
		"data":   XDGDataDir(),
		"config": XDGConfigDir(),
	} {
		if filepath.Base(dir) != AppName {
			t.Errorf("%s dir %q does not end with %s", name, dir, AppName)
		}
	}
	if filepath.Base(DefaultBreachDBPath()) != BreachDBFile {
		t.Errorf("unexpected breach db path %q", DefaultBreachDBPath())
	}
}
