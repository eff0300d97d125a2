package model

import "fmt"

// ErrorKind classifies a per-probe failure recorded in a Report.
type ErrorKind int

const (
	// ErrorTimeout means a probe exceeded its own deadline.
	ErrorTimeout ErrorKind = iota
	// ErrorNetwork means a transport-level failure.
	ErrorNetwork
	// ErrorToolUnavailable means an external tool is missing or unusable.
	ErrorToolUnavailable
	// ErrorMalformedResponse means the probe answered with data it could not parse.
	ErrorMalformedResponse
	// ErrorOverallTimeout means the lookup deadline cut pending probes short.
	ErrorOverallTimeout
)

// String returns the snake_case kind name used in reports.
func (k ErrorKind) String() string {
	switch k {
	case ErrorTimeout:
		return "timeout"
	case ErrorNetwork:
		return "network"
	case ErrorToolUnavailable:
		return "tool_unavailable"
	case ErrorMalformedResponse:
		return "malformed_response"
	case ErrorOverallTimeout:
		return "overall_timeout"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k ErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *ErrorKind) UnmarshalText(text []byte) error {
	for _, candidate := range []ErrorKind{
		ErrorTimeout, ErrorNetwork, ErrorToolUnavailable, ErrorMalformedResponse, ErrorOverallTimeout,
	} {
		if candidate.String() == string(text) {
			*k = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown error kind %q", text)
}

// ProbeError is a non-fatal failure recorded in a Report.
type ProbeError struct {
	// Probe is the probe name; empty for the overall-timeout entry.
	Probe string `json:"probe,omitempty"`

	// Tier is the tier index the probe ran in. Signal probes report -1.
	Tier int `json:"tier"`

	// Signal marks failures of auxiliary signal probes.
	Signal bool `json:"signal,omitempty"`

	Kind   ErrorKind `json:"kind"`
	Detail string    `json:"detail,omitempty"`
}

// Error implements error so a ProbeError can be logged or wrapped directly.
func (e ProbeError) Error() string {
	if e.Probe == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	}
	return fmt.Sprintf("%s (tier %d): %s: %s", e.Probe, e.Tier, e.Kind, e.Detail)
}
