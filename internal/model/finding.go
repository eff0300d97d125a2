package model

import "fmt"

// Status is the detection state of a Finding.
// NotFound outcomes never become findings, so only two states exist.
type Status int

const (
	// StatusFound means the probe positively matched the subject.
	StatusFound Status = iota
	// StatusUncertain means the probe answered ambiguously.
	StatusUncertain
)

// String returns the lowercase status name.
func (s Status) String() string {
	switch s {
	case StatusFound:
		return "found"
	case StatusUncertain:
		return "uncertain"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	switch string(text) {
	case "found":
		*s = StatusFound
	case "uncertain":
		*s = StatusUncertain
	default:
		return fmt.Errorf("unknown finding status %q", text)
	}
	return nil
}

// HighConfidenceThreshold is the confidence at or above which a finding
// counts as high confidence in the summary.
const HighConfidenceThreshold = 0.8

// Metadata is optional profile data a probe may have observed.
// A nil field was not observed; a non-nil empty string was observed empty.
type Metadata struct {
	FullName  *string `json:"full_name,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
	Bio       *string `json:"bio,omitempty"`
}

// HasFullName reports whether a non-empty full name was observed.
func (m Metadata) HasFullName() bool { return nonEmpty(m.FullName) }

// HasAvatar reports whether a non-empty avatar URL was observed.
func (m Metadata) HasAvatar() bool { return nonEmpty(m.AvatarURL) }

// HasBio reports whether a non-empty bio was observed.
func (m Metadata) HasBio() bool { return nonEmpty(m.Bio) }

// IsEmpty reports whether no field was observed at all.
func (m Metadata) IsEmpty() bool {
	return m.FullName == nil && m.AvatarURL == nil && m.Bio == nil
}

// Merge returns m with any nil field filled from other.
func (m Metadata) Merge(other Metadata) Metadata {
	if m.FullName == nil {
		m.FullName = other.FullName
	}
	if m.AvatarURL == nil {
		m.AvatarURL = other.AvatarURL
	}
	if m.Bio == nil {
		m.Bio = other.Bio
	}
	return m
}

func nonEmpty(s *string) bool {
	return s != nil && *s != ""
}

// Finding is a single platform on which the subject was observed.
type Finding struct {
	// Platform is the display name of the site or service.
	Platform string `json:"platform"`

	// URL is the profile or evidence URL, when known.
	URL string `json:"url,omitempty"`

	// Status is found or uncertain.
	Status Status `json:"status"`

	// Confidence is in [0, 1].
	Confidence float64 `json:"confidence"`

	// Tags are category labels, sorted and unique.
	Tags []string `json:"tags,omitempty"`

	// Metadata holds optional profile fields.
	Metadata Metadata `json:"metadata"`

	// Evidence lists supporting links, e.g. reverse image search matches.
	Evidence []string `json:"evidence,omitempty"`

	// Source is the name of the probe that produced the finding.
	Source string `json:"source"`
}

// IsHighConfidence reports whether the finding meets HighConfidenceThreshold.
func (f Finding) IsHighConfidence() bool {
	return f.Confidence >= HighConfidenceThreshold
}
