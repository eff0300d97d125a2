package config

import (
	"net"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/identscan/internal/model"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "identscan"

	// DefaultPerProbeTimeout bounds a single probe. Sites that answer slower
	// than this are reported as timeouts rather than holding up the tier.
	DefaultPerProbeTimeout = model.DefaultPerProbeTimeout

	// DefaultOverallTimeout bounds a whole lookup across all tiers.
	DefaultOverallTimeout = model.DefaultOverallTimeout

	// DefaultMaxSources caps the probes dispatched per tier.
	DefaultMaxSources = model.DefaultMaxSources

	// DefaultMaxConcurrency caps in-flight probes within one tier.
	DefaultMaxConcurrency = 10

	// DefaultBatchConcurrency caps subjects looked up at once by `batch`.
	// Each subject fans out on its own, so this stays small.
	DefaultBatchConcurrency = 4

	// DefaultMaxBodySize limits the response bytes a probe reads.
	DefaultMaxBodySize = 2 * 1024 * 1024

	// DefaultMaxImageBytes limits image subjects.
	DefaultMaxImageBytes = model.DefaultMaxImageBytes

	// DefaultTorStartupTimeout is the maximum time to wait for the embedded
	// Tor daemon to bootstrap.
	DefaultTorStartupTimeout = 3 * time.Minute

	// DefaultUserAgent is sent with every HTTP probe. Several sites answer
	// non-browser agents with a login wall, which would read as "found".
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36"

	// BreachDBFile is the corpus file name inside XDGDataDir.
	BreachDBFile = "breaches.db"
)

// Config holds all configuration options for identscan. It is populated
// from CLI flags, the definitions file and the environment, then passed
// through constructors; nothing reads it from global state.
type Config struct {
	// PerProbeTimeout bounds each probe invocation.
	PerProbeTimeout time.Duration

	// OverallTimeout bounds one lookup from the first dispatch to the report.
	OverallTimeout time.Duration

	// MaxSources truncates each tier to its first MaxSources probes.
	// Zero disables truncation.
	MaxSources int

	// MaxConcurrency caps concurrently running probes per lookup, signals included.
	MaxConcurrency int

	// BatchConcurrency caps concurrently processed subjects in a batch.
	BatchConcurrency int

	// MaxBodySize caps response bytes read by HTTP probes. Zero uses the default.
	MaxBodySize int64

	// MaxImageBytes caps the size of image subjects.
	MaxImageBytes int64

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// Verbose enables debug logging.
	Verbose bool

	// JSONReport selects JSON output. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects GitHub Flavored Markdown output.
	MarkdownReport bool

	// ReportFile is the output path; stdout when empty.
	ReportFile string

	// ConfigFilePath is the definitions file given with --config.
	ConfigFilePath string

	// ProxyAddress routes outbound requests through a SOCKS5 proxy ("host:port").
	ProxyAddress string

	// UseTor starts an embedded Tor daemon and routes requests through it.
	UseTor bool

	// TorStartupTimeout bounds the embedded Tor bootstrap.
	TorStartupTimeout time.Duration

	// BreachDBPath is the sqlite breach corpus. Empty disables the corpus probe.
	BreachDBPath string

	// HIBPAPIKey authenticates Have I Been Pwned requests.
	HIBPAPIKey string

	// GitHubToken authenticates GitHub API requests.
	GitHubToken string

	// Definitions are the merged probe definitions.
	Definitions *File
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		PerProbeTimeout:   DefaultPerProbeTimeout,
		OverallTimeout:    DefaultOverallTimeout,
		MaxSources:        DefaultMaxSources,
		MaxConcurrency:    DefaultMaxConcurrency,
		BatchConcurrency:  DefaultBatchConcurrency,
		MaxBodySize:       DefaultMaxBodySize,
		MaxImageBytes:     DefaultMaxImageBytes,
		UserAgent:         DefaultUserAgent,
		TorStartupTimeout: DefaultTorStartupTimeout,
	}
}

// XDGDataDir returns the XDG data directory for identscan
// (~/.local/share/identscan on Linux).
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for identscan
// (~/.config/identscan on Linux).
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// DefaultBreachDBPath returns the breach corpus location inside XDGDataDir.
func DefaultBreachDBPath() string {
	return filepath.Join(XDGDataDir(), BreachDBFile)
}

// SubjectOptions returns the per-lookup options derived from c.
func (c *Config) SubjectOptions() model.Options {
	return model.Options{
		MaxSources:      c.MaxSources,
		PerProbeTimeout: c.PerProbeTimeout,
		OverallTimeout:  c.OverallTimeout,
		MaxImageBytes:   c.MaxImageBytes,
	}
}

// ApplyFile copies settings from a definitions file that the CLI did not
// already set. Flags win over the file.
func (c *Config) ApplyFile(f *File) {
	if f == nil {
		return
	}
	c.Definitions = f
	if c.HIBPAPIKey == "" {
		c.HIBPAPIKey = f.HIBPAPIKey
	}
	if c.GitHubToken == "" {
		c.GitHubToken = f.GitHubToken
	}
	if f.UserAgent != "" && c.UserAgent == DefaultUserAgent {
		c.UserAgent = f.UserAgent
	}
	if c.BreachDBPath == "" {
		c.BreachDBPath = f.BreachDB
	}
}

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	if c.PerProbeTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.OverallTimeout <= 0 {
		return ErrInvalidOverallTimeout
	}
	if c.MaxConcurrency <= 0 || c.BatchConcurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.MaxSources < 0 {
		return ErrInvalidMaxSources
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.ProxyAddress != "" {
		if c.UseTor {
			return ErrConflictingProxy
		}
		if _, _, err := net.SplitHostPort(c.ProxyAddress); err != nil {
			return ErrInvalidProxyAddress
		}
	}
	return nil
}
