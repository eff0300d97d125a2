package registry

import "errors"

var (
	// ErrNoTiers is returned when a kind has no tier probes.
	ErrNoTiers = errors.New("no probe tiers registered for subject kind")

	// ErrTierGap is returned when tier indexes are not contiguous from zero.
	ErrTierGap = errors.New("probe tiers must be contiguous from 0")

	// ErrDuplicateProbe is returned when two probes of one kind share a name.
	ErrDuplicateProbe = errors.New("duplicate probe name")

	// ErrUnsupportedProbe is returned for definitions with an unknown type.
	ErrUnsupportedProbe = errors.New("unsupported probe type")
)
