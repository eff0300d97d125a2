package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the definitions file looked up in the working directory.
const DefaultConfigFile = ".identscan"

// XDGConfigFile is the definitions file name inside XDGConfigDir.
const XDGConfigFile = "config.yaml"

// Environment variables holding credentials.
const (
	EnvHIBPAPIKey  = "IDENTSCAN_HIBP_API_KEY"
	EnvGitHubToken = "IDENTSCAN_GITHUB_TOKEN"
)

//go:embed defaults.yaml
var defaultDefinitions []byte

// LoadDefaults returns the built-in probe definitions.
func LoadDefaults() (*File, error) {
	f, err := parseFile(defaultDefinitions)
	if err != nil {
		return nil, fmt.Errorf("built-in definitions: %w", err)
	}
	return f, nil
}

// LoadConfigFile loads a definitions file from path.
// If the file does not exist, it returns ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}
	f, err := parseFile(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

func parseFile(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// FindConfigFile searches for the definitions file in the following order:
//  1. configPath, when given
//  2. .identscan in the current directory
//  3. config.yaml in the XDG config directory
//  4. .identscan in the user's home directory
//
// It returns an empty string when nothing is found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	candidates := make([]string, 0, 3)
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), XDGConfigFile))
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

// Load returns the built-in definitions merged with the user's definitions
// file. An explicit configPath that does not exist is an error; a missing
// file found by search is not. A file with no_defaults set replaces the
// built-in definitions.
func Load(configPath string) (*File, error) {
	defaults, err := LoadDefaults()
	if err != nil {
		return nil, err
	}

	var user *File
	if path := FindConfigFile(configPath); path != "" {
		if user, err = LoadConfigFile(path); err != nil {
			return nil, err
		}
	} else if configPath != "" {
		return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
	}

	if user != nil && user.NoDefaults {
		defaults = &File{}
	}
	merged := defaults.Merge(user)
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return merged, nil
}

// ApplyEnv fills credentials from the environment when they are still unset.
// lookup is usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvHIBPAPIKey); ok && c.HIBPAPIKey == "" {
		c.HIBPAPIKey = v
	}
	if v, ok := lookup(EnvGitHubToken); ok && c.GitHubToken == "" {
		c.GitHubToken = v
	}
}
