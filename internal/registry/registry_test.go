package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/nao1215/identscan/internal/config"
	"github.com/nao1215/identscan/internal/model"
	"github.com/nao1215/identscan/internal/probe"
)

func fake(name string, kind model.Kind, tier int) probe.Probe {
	return probe.Func(probe.Descriptor{Name: name, Kind: kind, Tier: tier}, func(context.Context, string) probe.Outcome {
		return probe.NotFound()
	})
}

func fakeSignal(name string, kind model.Kind) probe.Probe {
	return probe.Func(probe.Descriptor{Name: name, Kind: kind, Tier: -1, Signal: true}, func(context.Context, string) probe.Outcome {
		return probe.NotFound()
	})
}

func names(probes []probe.Probe) []string {
	out := make([]string, len(probes))
	for i, p := range probes {
		out[i] = p.Descriptor().Name
	}
	return out
}

func TestNew(t *testing.T) {
	t.Parallel()

	r, err := New(
		fake("b", model.KindUsername, 1),
		fake("a", model.KindUsername, 0),
		fake("c", model.KindUsername, 1),
		fakeSignal("s", model.KindUsername),
		fake("x", model.KindEmail, 0),
	)
	if err != nil {
		t.Fatal(err)
	}

	tiers := r.Tiers(model.KindUsername)
	if len(tiers) != 2 {
		t.Fatalf("expected 2 tiers, got %d", len(tiers))
	}
	if got := names(tiers[0]); len(got) != 1 || got[0] != "a" {
		t.Errorf("unexpected tier 0 %v", got)
	}
	if got := names(tiers[1]); len(got) != 2 || got[0] != "b" || got[1] != "c" {
		t.Errorf("expected registration order in tier 1, got %v", got)
	}
	if got := names(r.Signals(model.KindUsername)); len(got) != 1 || got[0] != "s" {
		t.Errorf("unexpected signals %v", got)
	}
	if !r.Has(model.KindEmail) || r.Has(model.KindImage) {
		t.Error("unexpected Has result")
	}
	if r.Tiers(model.KindImage) != nil {
		t.Error("expected nil tiers for unregistered kind")
	}
	if r.Len(model.KindUsername) != 4 {
		t.Errorf("expected 4 username probes, got %d", r.Len(model.KindUsername))
	}
	if d := r.Descriptors(model.KindUsername); len(d) != 4 || d[3].Name != "s" {
		t.Errorf("expected signals listed last, got %+v", d)
	}
}

func TestNewErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		probes []probe.Probe
		want   error
	}{
		{
			name:   "duplicate name ignores case",
			probes: []probe.Probe{fake("GitHub", model.KindUsername, 0), fake("github", model.KindUsername, 1)},
			want:   ErrDuplicateProbe,
		},
		{
			name:   "duplicate between tier and signal",
			probes: []probe.Probe{fake("x", model.KindEmail, 0), fakeSignal("x", model.KindEmail)},
			want:   ErrDuplicateProbe,
		},
		{
			name:   "tier gap",
			probes: []probe.Probe{fake("a", model.KindUsername, 0), fake("b", model.KindUsername, 2)},
			want:   ErrTierGap,
		},
		{
			name:   "missing tier 0",
			probes: []probe.Probe{fake("a", model.KindUsername, 1)},
			want:   ErrTierGap,
		},
		{
			name:   "signals only",
			probes: []probe.Probe{fakeSignal("s", model.KindImage)},
			want:   ErrNoTiers,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := New(tt.probes...); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestSameNameAcrossKinds(t *testing.T) {
	t.Parallel()

	if _, err := New(fake("GitHub", model.KindUsername, 0), fake("GitHub", model.KindEmail, 0)); err != nil {
		t.Errorf("expected names to be scoped per kind, got %v", err)
	}
}

func TestAccessorsReturnCopies(t *testing.T) {
	t.Parallel()

	r, err := New(fake("a", model.KindUsername, 0), fakeSignal("s", model.KindUsername))
	if err != nil {
		t.Fatal(err)
	}

	tiers := r.Tiers(model.KindUsername)
	tiers[0][0] = fake("mutated", model.KindUsername, 0)
	signals := r.Signals(model.KindUsername)
	signals[0] = fakeSignal("mutated", model.KindUsername)

	if got := r.Tiers(model.KindUsername)[0][0].Descriptor().Name; got != "a" {
		t.Errorf("registry tiers were mutated through a copy: %s", got)
	}
	if got := r.Signals(model.KindUsername)[0].Descriptor().Name; got != "s" {
		t.Errorf("registry signals were mutated through a copy: %s", got)
	}
}

type nopLookup struct{}

func (nopLookup) LookupBreaches(context.Context, string) ([]model.Breach, error) { return nil, nil }

func TestBuildDefaults(t *testing.T) {
	t.Parallel()

	defs, err := config.LoadDefaults()
	if err != nil {
		t.Fatal(err)
	}

	t.Run("without corpus", func(t *testing.T) {
		t.Parallel()

		r, err := Build(defs, Deps{})
		if err != nil {
			t.Fatal(err)
		}

		tiers := r.Tiers(model.KindUsername)
		if len(tiers) != 2 || len(tiers[0]) != 1 || len(tiers[1]) != 16 {
			t.Fatalf("unexpected username tiers %d", len(tiers))
		}
		maigret := tiers[0][0].Descriptor()
		if maigret.Source != probe.SourceProcess || maigret.Invocation == nil || maigret.Invocation.Command != "maigret" {
			t.Errorf("unexpected maigret descriptor %+v", maigret)
		}

		if got := names(r.Signals(model.KindEmail)); len(got) != 2 {
			t.Errorf("expected HIBP and email info signals only, got %v", got)
		}
		if tiers := r.Tiers(model.KindImage); len(tiers) != 1 || len(tiers[0]) != 3 {
			t.Errorf("expected one image tier of 3 engines, got %v", tiers)
		}
		for _, p := range r.Signals(model.KindImage) {
			if !p.Descriptor().Signal || p.Descriptor().Source != probe.SourceLocal {
				t.Errorf("expected local signal probe, got %+v", p.Descriptor())
			}
		}
	})

	t.Run("with corpus", func(t *testing.T) {
		t.Parallel()

		r, err := Build(defs, Deps{BreachLookup: nopLookup{}})
		if err != nil {
			t.Fatal(err)
		}
		if got := names(r.Signals(model.KindEmail)); len(got) != 3 {
			t.Errorf("expected 3 email signals, got %v", got)
		}
	})
}

func TestBuildErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		defs *config.File
	}{
		{
			name: "invalid definition",
			defs: &config.File{Probes: []config.ProbeDefinition{{Name: "x", Kind: "username", Type: config.TypeHTTP}}},
		},
		{
			name: "unknown parser",
			defs: &config.File{Probes: []config.ProbeDefinition{
				{Name: "tool", Kind: "username", Type: config.TypeProcess, Command: "tool", Parser: "xml"},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := Build(tt.defs, Deps{}); err == nil {
				t.Error("expected build error")
			}
		})
	}
}
