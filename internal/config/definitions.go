package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/nao1215/identscan/internal/model"
)

// ProbeType selects the probe implementation built from a definition.
type ProbeType string

// Probe types accepted in definitions files.
const (
	TypeHTTP         ProbeType = "http"
	TypeProcess      ProbeType = "process"
	TypeGitHub       ProbeType = "github"
	TypeHIBP         ProbeType = "hibp"
	TypeCorpus       ProbeType = "corpus"
	TypeEmailInfo    ProbeType = "emailinfo"
	TypeReverseImage ProbeType = "reverse_image"
	TypeEXIF         ProbeType = "exif"
)

var knownTypes = []ProbeType{
	TypeHTTP, TypeProcess, TypeGitHub, TypeHIBP, TypeCorpus, TypeEmailInfo, TypeReverseImage, TypeEXIF,
}

// IsSignal reports whether probes of this type feed report signals
// (breaches, email info, image metadata) rather than tier findings.
func (t ProbeType) IsSignal() bool {
	switch t {
	case TypeHIBP, TypeCorpus, TypeEmailInfo, TypeEXIF:
		return true
	default:
		return false
	}
}

// StatusCodes maps HTTP status codes to outcomes for an http probe.
type StatusCodes struct {
	Found     []int `yaml:"found,omitempty"`
	NotFound  []int `yaml:"not_found,omitempty"`
	Uncertain []int `yaml:"uncertain,omitempty"`
}

// ProbeDefinition describes one probe in a definitions file.
type ProbeDefinition struct {
	Name string    `yaml:"name"`
	Kind string    `yaml:"kind"`
	Tier int       `yaml:"tier,omitempty"`
	Type ProbeType `yaml:"type"`
	Tags []string  `yaml:"tags,omitempty"`

	// Timeout overrides the per-probe timeout, e.g. for slow external tools.
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// http and reverse_image
	URL            string            `yaml:"url,omitempty"`
	Method         string            `yaml:"method,omitempty"`
	Body           string            `yaml:"body,omitempty"`
	Headers        map[string]string `yaml:"headers,omitempty"`
	ProfileURL     string            `yaml:"profile_url,omitempty"`
	ExtractProfile bool              `yaml:"extract_profile,omitempty"`
	Status         *StatusCodes      `yaml:"status,omitempty"`

	// process
	Command string   `yaml:"command,omitempty"`
	Args    []string `yaml:"args,omitempty"`
	Parser  string   `yaml:"parser,omitempty"`

	// reverse_image
	UploadField string `yaml:"upload_field,omitempty"`
	ResultClass string `yaml:"result_class,omitempty"`
	MaxLinks    int    `yaml:"max_links,omitempty"`
}

// SubjectKind parses Kind.
func (d ProbeDefinition) SubjectKind() (model.Kind, error) {
	return model.ParseKind(d.Kind)
}

// key identifies a definition for override and duplicate detection.
func (d ProbeDefinition) key() string {
	kind := strings.ToLower(d.Kind)
	if k, err := d.SubjectKind(); err == nil {
		kind = k.String()
	}
	return kind + "/" + strings.ToLower(d.Name)
}

// Validate checks the fields required by the definition's type.
func (d ProbeDefinition) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidDefinition)
	}
	if _, err := d.SubjectKind(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidDefinition, d.Name, err)
	}
	if !slices.Contains(knownTypes, d.Type) {
		return fmt.Errorf("%w: %s: unknown type %q", ErrInvalidDefinition, d.Name, d.Type)
	}
	if d.Tier < 0 {
		return fmt.Errorf("%w: %s: negative tier", ErrInvalidDefinition, d.Name)
	}
	if d.Timeout < 0 {
		return fmt.Errorf("%w: %s: negative timeout", ErrInvalidDefinition, d.Name)
	}

	switch d.Type {
	case TypeHTTP, TypeReverseImage:
		if d.URL == "" {
			return fmt.Errorf("%w: %s: %s probe requires url", ErrInvalidDefinition, d.Name, d.Type)
		}
	case TypeProcess:
		if d.Command == "" {
			return fmt.Errorf("%w: %s: process probe requires command", ErrInvalidDefinition, d.Name)
		}
	}
	return nil
}

// File is the structure of a definitions file (.identscan or config.yaml).
type File struct {
	// HIBPAPIKey authenticates Have I Been Pwned lookups.
	HIBPAPIKey string `yaml:"hibp_api_key,omitempty"`

	// GitHubToken authenticates GitHub API lookups.
	GitHubToken string `yaml:"github_token,omitempty"`

	// UserAgent overrides DefaultUserAgent.
	UserAgent string `yaml:"user_agent,omitempty"`

	// BreachDB is the path of the local breach corpus.
	BreachDB string `yaml:"breach_db,omitempty"`

	// Probes are the probe definitions.
	Probes []ProbeDefinition `yaml:"probes,omitempty"`

	// Disable lists probe names to drop, including built-in ones.
	Disable []string `yaml:"disable,omitempty"`

	// NoDefaults drops the built-in definitions instead of merging over them.
	NoDefaults bool `yaml:"no_defaults,omitempty"`
}

// Merge returns a new File with override applied on top of f. Probes with
// the same kind and name are replaced in place, new probes are appended,
// and probes named in either Disable list are removed.
func (f *File) Merge(override *File) *File {
	out := &File{}
	if f != nil {
		*out = *f
		out.Probes = slices.Clone(f.Probes)
		out.Disable = slices.Clone(f.Disable)
	}
	if override == nil {
		out.Probes = out.enabled()
		return out
	}

	if override.HIBPAPIKey != "" {
		out.HIBPAPIKey = override.HIBPAPIKey
	}
	if override.GitHubToken != "" {
		out.GitHubToken = override.GitHubToken
	}
	if override.UserAgent != "" {
		out.UserAgent = override.UserAgent
	}
	if override.BreachDB != "" {
		out.BreachDB = override.BreachDB
	}

	index := make(map[string]int, len(out.Probes))
	for i, p := range out.Probes {
		index[p.key()] = i
	}
	for _, p := range override.Probes {
		if i, ok := index[p.key()]; ok {
			out.Probes[i] = p
			continue
		}
		index[p.key()] = len(out.Probes)
		out.Probes = append(out.Probes, p)
	}

	out.Disable = append(out.Disable, override.Disable...)
	out.Probes = out.enabled()
	return out
}

// enabled returns the probes not named in Disable.
func (f *File) enabled() []ProbeDefinition {
	if len(f.Disable) == 0 {
		return f.Probes
	}
	disabled := make(map[string]bool, len(f.Disable))
	for _, name := range f.Disable {
		disabled[strings.ToLower(strings.TrimSpace(name))] = true
	}
	return slices.DeleteFunc(f.Probes, func(p ProbeDefinition) bool {
		return disabled[strings.ToLower(p.Name)]
	})
}

// Validate checks every definition and rejects duplicates.
func (f *File) Validate() error {
	seen := make(map[string]bool, len(f.Probes))
	for _, p := range f.Probes {
		if err := p.Validate(); err != nil {
			return err
		}
		if seen[p.key()] {
			return fmt.Errorf("%w: duplicate probe %q for kind %s", ErrInvalidDefinition, p.Name, p.Kind)
		}
		seen[p.key()] = true
	}
	return nil
}

// ForKind returns the definitions for kind in file order.
func (f *File) ForKind(kind model.Kind) []ProbeDefinition {
	out := make([]ProbeDefinition, 0)
	for _, p := range f.Probes {
		if k, err := p.SubjectKind(); err == nil && k == kind {
			out = append(out, p)
		}
	}
	return out
}
