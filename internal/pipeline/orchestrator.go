package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/nao1215/identscan/internal/model"
	"github.com/nao1215/identscan/internal/probe"
	"github.com/nao1215/identscan/internal/registry"
)

// DefaultMaxConcurrency bounds the number of probes running at once.
const DefaultMaxConcurrency = 10

// ProbeSource supplies the tiers and signal probes of a subject kind.
// *registry.Registry implements it.
type ProbeSource interface {
	Tiers(kind model.Kind) [][]probe.Probe
	Signals(kind model.Kind) []probe.Probe
}

// Orchestrator runs lookups against a ProbeSource. It holds no per-query
// state and is safe for concurrent use.
type Orchestrator struct {
	source         ProbeSource
	logger         *slog.Logger
	maxConcurrency int
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger. Nil keeps slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMaxConcurrency bounds the probes running at once in one lookup,
// tier and signal probes together. Non-positive values are ignored.
func WithMaxConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxConcurrency = n
		}
	}
}

// New creates an Orchestrator over source.
func New(source ProbeSource, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		source:         source,
		logger:         slog.Default(),
		maxConcurrency: DefaultMaxConcurrency,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Lookup validates value as a subject of kind and runs it. A
// *model.ValidationError is returned before any probe is dispatched when
// the value is malformed.
func (o *Orchestrator) Lookup(ctx context.Context, kind model.Kind, value string, opts model.Options) (*model.Report, error) {
	subject, err := model.NewSubject(kind, value, opts)
	if err != nil {
		return nil, err
	}
	return o.Run(ctx, subject)
}

// slot is the result of one probe invocation.
type slot struct {
	desc    probe.Descriptor
	outcome probe.Outcome

	// cut marks probes stopped or skipped by the overall deadline.
	cut bool
}

// tierRun is the collected state of one dispatched tier.
type tierRun struct {
	index int
	slots []slot
}

// Run executes the tier state machine for subject and assembles the report.
// The only errors are a zero subject and a kind without tiers; every probe
// failure is recorded in the report instead.
func (o *Orchestrator) Run(ctx context.Context, subject model.Subject) (*model.Report, error) {
	if subject.IsZero() {
		return nil, &model.ValidationError{Kind: subject.Kind(), Reason: "subject was not constructed with NewSubject"}
	}
	if o.source == nil {
		return nil, fmt.Errorf("%w: %s", registry.ErrNoTiers, subject.Kind())
	}
	tiers := o.source.Tiers(subject.Kind())
	if len(tiers) == 0 {
		return nil, fmt.Errorf("%w: %s", registry.ErrNoTiers, subject.Kind())
	}

	opts := subject.Options()
	runCtx, cancel := context.WithTimeout(ctx, opts.OverallTimeout)
	defer cancel()

	logger := o.logger.With("subject", subject.String())
	start := time.Now()

	// Signal probes run beside the tier loop and share its limit.
	limit := semaphore.NewWeighted(int64(o.maxConcurrency))
	signals := o.source.Signals(subject.Kind())
	signalSlots := make([]slot, len(signals))
	signalDone := make(chan struct{})
	go func() {
		defer close(signalDone)
		o.collect(runCtx, subject, signals, signalSlots, limit, logger)
	}()

	var (
		attempted   []tierRun
		accepted    *tierRun
		interrupted bool
	)

	for i, tier := range tiers {
		// SELECT_TIER
		if runCtx.Err() != nil {
			interrupted = true
			break
		}

		// DISPATCH + COLLECT
		probes := truncate(tier, opts.MaxSources)
		logger.Info("tier dispatch", "tier", i, "probes", len(probes), "available", len(tier))
		run := tierRun{index: i, slots: make([]slot, len(probes))}
		o.collect(runCtx, subject, probes, run.slots, limit, logger)
		attempted = append(attempted, run)

		// EVALUATE
		if runCtx.Err() != nil && run.hasCut() {
			accepted = &attempted[len(attempted)-1]
			interrupted = true
			break
		}
		if !shouldFallback(run.slots) {
			accepted = &attempted[len(attempted)-1]
			break
		}
		if i+1 < len(tiers) {
			logger.Info("falling back", "from_tier", i, "to_tier", i+1, "reason", fallbackReason(run.slots))
		}
	}

	<-signalDone
	for _, s := range signalSlots {
		if s.cut {
			interrupted = true
		}
	}

	tierUsed := 0
	if len(attempted) > 0 {
		tierUsed = attempted[len(attempted)-1].index
	}
	if accepted != nil {
		tierUsed = accepted.index
	}

	var overall *model.ProbeError
	if interrupted {
		overall = &model.ProbeError{Kind: model.ErrorOverallTimeout, Tier: tierUsed, Detail: overallDetail(runCtx, opts.OverallTimeout)}
		logger.Warn("overall timeout, returning partial report", "tier", tierUsed, "elapsed", time.Since(start).Round(time.Millisecond))
	}

	report := assemble(subject, tierUsed, accepted, attempted, signalSlots, overall)
	logger.Info("lookup complete",
		"tier_used", report.TierUsed,
		"findings", len(report.Findings),
		"errors", len(report.Errors),
		"partial", report.Partial,
	)
	return report, nil
}

// collect runs probes concurrently and writes each outcome into its own
// slot. It returns once every probe has finished or been cut.
func (o *Orchestrator) collect(ctx context.Context, subject model.Subject, probes []probe.Probe, slots []slot, limit *semaphore.Weighted, logger *slog.Logger) {
	var g errgroup.Group

	perProbe := subject.Options().PerProbeTimeout
	for i, p := range probes {
		desc := p.Descriptor()
		g.Go(func() error {
			if err := limit.Acquire(ctx, 1); err != nil {
				slots[i] = slot{desc: desc, cut: true}
				return nil
			}
			defer limit.Release(1)

			if ctx.Err() != nil {
				slots[i] = slot{desc: desc, cut: true}
				return nil
			}

			timeout := perProbe
			if desc.Timeout > 0 {
				timeout = desc.Timeout
			}

			began := time.Now()
			out := execute(ctx, p, subject, timeout)
			slots[i] = slot{
				desc:    desc,
				outcome: out,
				cut:     out.Status == probe.StatusFailure && ctx.Err() != nil,
			}

			logger.Debug("probe finished",
				"probe", desc.Name,
				"tier", desc.Tier,
				"signal", desc.Signal,
				"status", out.Status.String(),
				"elapsed", time.Since(began).Round(time.Millisecond),
			)
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // workers never return errors
}

// execute runs one probe under its own deadline. A probe that overruns the
// deadline is abandoned and reported as a timeout; a panic or a malformed
// outcome is reported as a malformed response.
func execute(parent context.Context, p probe.Probe, subject model.Subject, timeout time.Duration) probe.Outcome {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	name := p.Descriptor().Name
	done := make(chan probe.Outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- probe.Fail(model.ErrorMalformedResponse, "%s: probe panicked: %v", name, r)
			}
		}()
		done <- p.Execute(ctx, subject)
	}()

	select {
	case out := <-done:
		if err := out.Validate(); err != nil {
			return probe.Fail(model.ErrorMalformedResponse, "%s: %v", name, err)
		}
		return out
	case <-ctx.Done():
		return probe.Fail(model.ErrorTimeout, "%s: no answer within %s", name, timeout)
	}
}

// truncate keeps the first maxSources probes. Non-positive means no limit.
func truncate(tier []probe.Probe, maxSources int) []probe.Probe {
	if maxSources > 0 && len(tier) > maxSources {
		return tier[:maxSources]
	}
	return tier
}

// shouldFallback reports whether the next tier must run: the tier produced
// no Found or Uncertain outcome, and either some probe reported its tool as
// unavailable or no probe produced any non-failure outcome.
func shouldFallback(slots []slot) bool {
	var toolUnavailable, answered bool
	for _, s := range slots {
		if s.cut {
			continue
		}
		if s.outcome.Productive() {
			return false
		}
		if s.outcome.IsFailure(model.ErrorToolUnavailable) {
			toolUnavailable = true
		}
		if s.outcome.Status != probe.StatusFailure {
			answered = true
		}
	}
	return toolUnavailable || !answered
}

func fallbackReason(slots []slot) string {
	for _, s := range slots {
		if s.outcome.IsFailure(model.ErrorToolUnavailable) {
			return "tool unavailable"
		}
	}
	return "no answers"
}

func (r tierRun) hasCut() bool {
	for _, s := range r.slots {
		if s.cut {
			return true
		}
	}
	return false
}

func overallDetail(ctx context.Context, timeout time.Duration) string {
	if errors.Is(ctx.Err(), context.Canceled) {
		return "lookup cancelled before completion"
	}
	return fmt.Sprintf("lookup exceeded overall timeout of %s", timeout)
}
