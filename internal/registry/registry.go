package registry

import (
	"fmt"
	"slices"
	"strings"

	"github.com/nao1215/identscan/internal/model"
	"github.com/nao1215/identscan/internal/probe"
)

// Registry maps each subject kind to its tiers and signal probes.
type Registry struct {
	tiers   map[model.Kind][][]probe.Probe
	signals map[model.Kind][]probe.Probe
}

// New groups probes by kind, tier and signal flag, keeping the given order
// inside each group. It fails on duplicate names within a kind, on gaps in
// tier indexes, and on kinds that have signal probes but no tiers.
func New(probes ...probe.Probe) (*Registry, error) {
	r := &Registry{
		tiers:   make(map[model.Kind][][]probe.Probe),
		signals: make(map[model.Kind][]probe.Probe),
	}

	names := make(map[model.Kind]map[string]bool)
	byTier := make(map[model.Kind]map[int][]probe.Probe)

	for _, p := range probes {
		d := p.Descriptor()
		if names[d.Kind] == nil {
			names[d.Kind] = make(map[string]bool)
			byTier[d.Kind] = make(map[int][]probe.Probe)
		}
		key := strings.ToLower(d.Name)
		if names[d.Kind][key] {
			return nil, fmt.Errorf("%w: %q for %s", ErrDuplicateProbe, d.Name, d.Kind)
		}
		names[d.Kind][key] = true

		if d.Signal {
			r.signals[d.Kind] = append(r.signals[d.Kind], p)
			continue
		}
		if d.Tier < 0 {
			return nil, fmt.Errorf("%w: %q has tier %d", ErrTierGap, d.Name, d.Tier)
		}
		byTier[d.Kind][d.Tier] = append(byTier[d.Kind][d.Tier], p)
	}

	for kind, tiers := range byTier {
		if len(tiers) == 0 {
			if len(r.signals[kind]) > 0 {
				return nil, fmt.Errorf("%w: %s has only signal probes", ErrNoTiers, kind)
			}
			continue
		}
		ordered := make([][]probe.Probe, len(tiers))
		for idx, group := range tiers {
			if idx >= len(tiers) {
				return nil, fmt.Errorf("%w: %s has tier %d but only %d tiers", ErrTierGap, kind, idx, len(tiers))
			}
			ordered[idx] = group
		}
		r.tiers[kind] = ordered
	}
	return r, nil
}

// Tiers returns a copy of the tiers for kind, tier 0 first.
func (r *Registry) Tiers(kind model.Kind) [][]probe.Probe {
	tiers := r.tiers[kind]
	if len(tiers) == 0 {
		return nil
	}
	out := make([][]probe.Probe, len(tiers))
	for i, tier := range tiers {
		out[i] = slices.Clone(tier)
	}
	return out
}

// Signals returns a copy of the signal probes for kind.
func (r *Registry) Signals(kind model.Kind) []probe.Probe {
	return slices.Clone(r.signals[kind])
}

// Has reports whether kind has at least one tier.
func (r *Registry) Has(kind model.Kind) bool {
	return len(r.tiers[kind]) > 0
}

// Descriptors lists the descriptors of kind, tiers in order followed by
// signal probes.
func (r *Registry) Descriptors(kind model.Kind) []probe.Descriptor {
	var out []probe.Descriptor
	for _, tier := range r.tiers[kind] {
		for _, p := range tier {
			out = append(out, p.Descriptor())
		}
	}
	for _, p := range r.signals[kind] {
		out = append(out, p.Descriptor())
	}
	return out
}

// Len returns the total number of probes for kind.
func (r *Registry) Len(kind model.Kind) int {
	n := len(r.signals[kind])
	for _, tier := range r.tiers[kind] {
		n += len(tier)
	}
	return n
}
