package model

import "fmt"

// RiskLevel grades an email address by the number of known breaches it
// appears in.
type RiskLevel int

const (
	// RiskLow means no known breaches.
	RiskLow RiskLevel = iota
	// RiskMedium means one or two breaches.
	RiskMedium
	// RiskHigh means three or four breaches.
	RiskHigh
	// RiskCritical means five or more breaches.
	RiskCritical
)

// RiskLevelFor maps a breach count to a RiskLevel.
func RiskLevelFor(breaches int) RiskLevel {
	switch {
	case breaches >= 5:
		return RiskCritical
	case breaches >= 3:
		return RiskHigh
	case breaches >= 1:
		return RiskMedium
	default:
		return RiskLow
	}
}

// String returns the lowercase risk level name.
func (r RiskLevel) String() string {
	switch r {
	case RiskLow:
		return "low"
	case RiskMedium:
		return "medium"
	case RiskHigh:
		return "high"
	case RiskCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r RiskLevel) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *RiskLevel) UnmarshalText(text []byte) error {
	switch string(text) {
	case "low":
		*r = RiskLow
	case "medium":
		*r = RiskMedium
	case "high":
		*r = RiskHigh
	case "critical":
		*r = RiskCritical
	default:
		return fmt.Errorf("unknown risk level %q", text)
	}
	return nil
}
