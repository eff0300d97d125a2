package probe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nao1215/identscan/internal/model"
)

// Probe queries a single data source for a Subject.
type Probe interface {
	// Descriptor returns the static description of the probe.
	Descriptor() Descriptor

	// Execute runs the probe once. It must return before ctx is done or
	// shortly after, and it must not panic.
	Execute(ctx context.Context, subject model.Subject) Outcome
}

// Source is the mechanism a probe uses to reach its data.
type Source int

const (
	// SourceHTTP issues plain HTTP requests.
	SourceHTTP Source = iota
	// SourceProcess runs an external executable.
	SourceProcess
	// SourceAPI calls a structured third-party API.
	SourceAPI
	// SourceLocal reads only local data.
	SourceLocal
)

// String returns the source name.
func (s Source) String() string {
	switch s {
	case SourceHTTP:
		return "http"
	case SourceProcess:
		return "process"
	case SourceAPI:
		return "api"
	case SourceLocal:
		return "local"
	default:
		return "unknown"
	}
}

// Descriptor is the static, read-only description of a probe.
type Descriptor struct {
	// Name is unique within a subject kind.
	Name string

	// Kind is the subject kind the probe accepts.
	Kind model.Kind

	// Tier is the fallback tier index. Zero is the primary tier.
	Tier int

	// Tags categorize the platform, e.g. "social" or "coding".
	Tags []string

	Source Source

	// URLTemplate is set for HTTP-based probes; "{}" marks the subject value.
	URLTemplate string

	// Invocation is set for process probes.
	Invocation *Invocation

	// Timeout overrides the subject's per-probe timeout when positive.
	Timeout time.Duration

	// Signal marks auxiliary probes that run alongside the tiers and feed
	// report signals instead of findings.
	Signal bool
}

// Status is the variant of an Outcome.
type Status int

const (
	// StatusFound means a positive match.
	StatusFound Status = iota
	// StatusNotFound means the source answered negatively.
	StatusNotFound
	// StatusUncertain means an ambiguous answer.
	StatusUncertain
	// StatusFailure means no answer could be obtained.
	StatusFailure
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusFound:
		return "found"
	case StatusNotFound:
		return "not_found"
	case StatusUncertain:
		return "uncertain"
	case StatusFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Hit is one platform observation carried by a Found or Uncertain outcome.
// Tool probes that cover many sites return one Hit per site.
type Hit struct {
	// Platform is the display name; the probe name is used when empty.
	Platform string
	URL      string
	Tags     []string
	Metadata model.Metadata
	Evidence []string

	// Ambiguous marks a hit the source itself could not confirm.
	Ambiguous bool
}

// Failure describes why a probe produced no answer.
type Failure struct {
	Kind   model.ErrorKind
	Detail string
}

// Outcome is the result of one probe invocation. Exactly one variant is
// populated; build outcomes with Found, FoundSignals, NotFound, Uncertain
// or Fail.
type Outcome struct {
	Status Status

	// Hits is set for Found (unless Signals is set) and optionally for Uncertain.
	Hits []Hit

	// Signals is set for Found outcomes of signal probes.
	Signals *model.Signals

	// RawStatus is the source's raw answer code for Uncertain.
	RawStatus int

	// Failure is set for StatusFailure only.
	Failure *Failure
}

// Found returns a positive outcome carrying hits.
func Found(hits ...Hit) Outcome {
	return Outcome{Status: StatusFound, Hits: hits}
}

// FoundSignals returns a positive outcome carrying auxiliary signals.
func FoundSignals(signals model.Signals) Outcome {
	return Outcome{Status: StatusFound, Signals: &signals}
}

// NotFound returns a negative outcome.
func NotFound() Outcome {
	return Outcome{Status: StatusNotFound}
}

// Uncertain returns an ambiguous outcome with the raw status and optional hits.
func Uncertain(rawStatus int, hits ...Hit) Outcome {
	return Outcome{Status: StatusUncertain, RawStatus: rawStatus, Hits: hits}
}

// Fail returns a failure outcome.
func Fail(kind model.ErrorKind, format string, args ...any) Outcome {
	return Outcome{
		Status:  StatusFailure,
		Failure: &Failure{Kind: kind, Detail: fmt.Sprintf(format, args...)},
	}
}

// IsFailure reports whether o is a Failure with the given kind.
func (o Outcome) IsFailure(kind model.ErrorKind) bool {
	return o.Status == StatusFailure && o.Failure != nil && o.Failure.Kind == kind
}

// Productive reports whether the outcome can yield findings.
func (o Outcome) Productive() bool {
	return o.Status == StatusFound || o.Status == StatusUncertain
}

// ErrMalformedOutcome is returned by Validate for outcomes that mix variants.
var ErrMalformedOutcome = errors.New("malformed probe outcome")

// Validate checks that exactly one variant is populated.
func (o Outcome) Validate() error {
	switch o.Status {
	case StatusFound:
		if o.Failure != nil {
			return fmt.Errorf("%w: found outcome carries a failure", ErrMalformedOutcome)
		}
		if len(o.Hits) == 0 && o.Signals == nil {
			return fmt.Errorf("%w: found outcome carries no payload", ErrMalformedOutcome)
		}
	case StatusNotFound:
		if o.Failure != nil || len(o.Hits) > 0 || o.Signals != nil {
			return fmt.Errorf("%w: not-found outcome carries a payload", ErrMalformedOutcome)
		}
	case StatusUncertain:
		if o.Failure != nil || o.Signals != nil {
			return fmt.Errorf("%w: uncertain outcome carries a failure or signals", ErrMalformedOutcome)
		}
	case StatusFailure:
		if o.Failure == nil {
			return fmt.Errorf("%w: failure outcome without failure detail", ErrMalformedOutcome)
		}
		if len(o.Hits) > 0 || o.Signals != nil {
			return fmt.Errorf("%w: failure outcome carries a payload", ErrMalformedOutcome)
		}
	default:
		return fmt.Errorf("%w: unknown status %d", ErrMalformedOutcome, o.Status)
	}
	return nil
}

// funcProbe adapts a plain function to the Probe interface.
type funcProbe struct {
	desc Descriptor
	fn   func(ctx context.Context, value string) Outcome
}

// Func wraps fn, a pure "(value, deadline) -> outcome" function, as a Probe.
func Func(desc Descriptor, fn func(ctx context.Context, value string) Outcome) Probe {
	return &funcProbe{desc: desc, fn: fn}
}

// Descriptor implements Probe.
func (p *funcProbe) Descriptor() Descriptor { return p.desc }

// Execute implements Probe.
func (p *funcProbe) Execute(ctx context.Context, subject model.Subject) Outcome {
	return p.fn(ctx, subject.Value())
}

// StringPtr returns a pointer to s, for building Metadata.
func StringPtr(s string) *string {
	return &s
}
