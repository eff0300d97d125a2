package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Default lookup options.
const (
	// DefaultMaxSources caps how many probes of a tier are dispatched.
	DefaultMaxSources = 20

	// DefaultPerProbeTimeout bounds a single probe invocation.
	DefaultPerProbeTimeout = 15 * time.Second

	// DefaultOverallTimeout bounds a whole lookup, fallback tiers included.
	DefaultOverallTimeout = 150 * time.Second

	// DefaultMaxImageBytes is the largest image accepted for reverse search.
	DefaultMaxImageBytes = 10 * 1024 * 1024

	// MinUsernameLength is the shortest username accepted.
	MinUsernameLength = 3

	// MaxUsernameLength is the longest username accepted.
	MaxUsernameLength = 64
)

// ErrInvalidSubject is the sentinel wrapped by every ValidationError.
var ErrInvalidSubject = errors.New("invalid subject")

var (
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)
)

// ImageExtensions are the file extensions accepted for image subjects.
var ImageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

// ValidationError reports a subject that failed its kind-specific syntax check.
// No probe is ever dispatched for such a subject.
type ValidationError struct {
	Kind   Kind
	Value  string
	Reason string
}

// Error implements error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Kind, e.Value, e.Reason)
}

// Unwrap lets errors.Is match ErrInvalidSubject.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidSubject
}

// Options tunes a single lookup.
type Options struct {
	// MaxSources truncates each tier to its first MaxSources probes.
	// Zero or negative disables truncation.
	MaxSources int

	// PerProbeTimeout bounds each probe invocation.
	PerProbeTimeout time.Duration

	// OverallTimeout bounds the whole lookup.
	OverallTimeout time.Duration

	// MaxImageBytes limits the size of image subjects.
	MaxImageBytes int64
}

// DefaultOptions returns the options used when a caller supplies none.
func DefaultOptions() Options {
	return Options{
		MaxSources:      DefaultMaxSources,
		PerProbeTimeout: DefaultPerProbeTimeout,
		OverallTimeout:  DefaultOverallTimeout,
		MaxImageBytes:   DefaultMaxImageBytes,
	}
}

// withDefaults fills zero durations and sizes.
func (o Options) withDefaults() Options {
	if o.PerProbeTimeout == 0 {
		o.PerProbeTimeout = DefaultPerProbeTimeout
	}
	if o.OverallTimeout == 0 {
		o.OverallTimeout = DefaultOverallTimeout
	}
	if o.MaxImageBytes == 0 {
		o.MaxImageBytes = DefaultMaxImageBytes
	}
	return o
}

// Subject is a validated identifier to look up. It is immutable: the only
// way to obtain one is NewSubject, and all fields are read through accessors.
type Subject struct {
	kind    Kind
	value   string
	options Options
}

// NewSubject trims and validates value for the given kind.
// Zero option values are replaced with package defaults.
func NewSubject(kind Kind, value string, opts Options) (Subject, error) {
	value = strings.TrimSpace(value)
	opts = opts.withDefaults()

	if opts.PerProbeTimeout < 0 || opts.OverallTimeout < 0 {
		return Subject{}, &ValidationError{Kind: kind, Value: value, Reason: "timeouts must be positive"}
	}

	var err error
	switch kind {
	case KindEmail:
		value, err = validateEmail(value)
	case KindUsername:
		err = validateUsername(value)
	case KindImage:
		err = validateImage(value, opts.MaxImageBytes)
	default:
		return Subject{}, &ValidationError{Kind: kind, Value: value, Reason: "unsupported kind"}
	}
	if err != nil {
		return Subject{}, err
	}

	return Subject{kind: kind, value: value, options: opts}, nil
}

// Kind returns the subject kind.
func (s Subject) Kind() Kind { return s.kind }

// Value returns the normalized identifier.
func (s Subject) Value() string { return s.value }

// Options returns the lookup options.
func (s Subject) Options() Options { return s.options }

// IsZero reports whether s was never constructed by NewSubject.
func (s Subject) IsZero() bool { return s.value == "" }

// String returns "kind:value".
func (s Subject) String() string {
	return s.kind.String() + ":" + s.value
}

// validateEmail checks the address syntax and lower-cases the domain part.
func validateEmail(value string) (string, error) {
	if !emailPattern.MatchString(value) {
		return "", &ValidationError{Kind: KindEmail, Value: value, Reason: "not a valid email address"}
	}
	at := strings.LastIndex(value, "@")
	return value[:at] + "@" + strings.ToLower(value[at+1:]), nil
}

func validateUsername(value string) error {
	switch {
	case len(value) < MinUsernameLength:
		return &ValidationError{
			Kind:   KindUsername,
			Value:  value,
			Reason: fmt.Sprintf("must be at least %d characters", MinUsernameLength),
		}
	case len(value) > MaxUsernameLength:
		return &ValidationError{
			Kind:   KindUsername,
			Value:  value,
			Reason: fmt.Sprintf("must be at most %d characters", MaxUsernameLength),
		}
	case !usernamePattern.MatchString(value):
		return &ValidationError{
			Kind:   KindUsername,
			Value:  value,
			Reason: "may contain only letters, digits, '.', '_' and '-'",
		}
	}
	return nil
}

func validateImage(path string, maxBytes int64) error {
	if path == "" {
		return &ValidationError{Kind: KindImage, Value: path, Reason: "empty path"}
	}

	ext := strings.ToLower(filepath.Ext(path))
	allowed := false
	for _, e := range ImageExtensions {
		if ext == e {
			allowed = true
			break
		}
	}
	if !allowed {
		return &ValidationError{
			Kind:   KindImage,
			Value:  path,
			Reason: "unsupported file type, expected one of " + strings.Join(ImageExtensions, ", "),
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return &ValidationError{Kind: KindImage, Value: path, Reason: "cannot read file"}
	}
	if !info.Mode().IsRegular() {
		return &ValidationError{Kind: KindImage, Value: path, Reason: "not a regular file"}
	}
	if info.Size() == 0 {
		return &ValidationError{Kind: KindImage, Value: path, Reason: "file is empty"}
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return &ValidationError{
			Kind:   KindImage,
			Value:  path,
			Reason: fmt.Sprintf("file is larger than %d bytes", maxBytes),
		}
	}
	return nil
}
