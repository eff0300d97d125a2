package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/identscan/internal/model"
)

// MaxSitesPlaceholder is replaced by the subject's MaxSources in process arguments.
const MaxSitesPlaceholder = "{max_sites}"

// processWaitDelay bounds how long a killed tool may keep its pipes open.
const processWaitDelay = 2 * time.Second

// Invocation describes how to run an external lookup tool.
type Invocation struct {
	// Command is the executable name or path.
	Command string

	// Args are the arguments; Placeholder and MaxSitesPlaceholder are expanded.
	Args []string

	// Parser names the output parser ("json" or "marker").
	Parser string
}

// String renders the invocation as a shell-like command line.
func (i Invocation) String() string {
	return strings.TrimSpace(i.Command + " " + strings.Join(i.Args, " "))
}

// ErrUnknownParser is returned when an invocation names an unknown parser.
var ErrUnknownParser = errors.New("unknown output parser")

// ProcessProbe runs an external CLI tool and converts its output into hits.
type ProcessProbe struct {
	desc  Descriptor
	parse OutputParser
	env   []string
}

// ProcessOption configures a ProcessProbe.
type ProcessOption func(*ProcessProbe)

// WithEnv sets extra environment variables for the tool, e.g. proxy settings.
func WithEnv(env []string) ProcessOption {
	return func(p *ProcessProbe) {
		p.env = append(p.env, env...)
	}
}

// NewProcessProbe creates a ProcessProbe from desc.Invocation.
func NewProcessProbe(desc Descriptor, opts ...ProcessOption) (*ProcessProbe, error) {
	if desc.Invocation == nil || desc.Invocation.Command == "" {
		return nil, fmt.Errorf("process probe %q: missing command", desc.Name)
	}
	parse, err := ParserFor(desc.Invocation.Parser)
	if err != nil {
		return nil, fmt.Errorf("process probe %q: %w", desc.Name, err)
	}

	desc.Source = SourceProcess
	p := &ProcessProbe{desc: desc, parse: parse}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Descriptor implements Probe.
func (p *ProcessProbe) Descriptor() Descriptor { return p.desc }

// Execute implements Probe.
//
// A missing executable, a failure to start, or a non-zero exit without
// usable output yields ToolUnavailable. Output that cannot be parsed
// yields MalformedResponse.
func (p *ProcessProbe) Execute(ctx context.Context, subject model.Subject) Outcome {
	inv := p.desc.Invocation
	path, err := exec.LookPath(inv.Command)
	if err != nil {
		return Fail(model.ErrorToolUnavailable, "%s: executable %q not found", p.desc.Name, inv.Command)
	}

	cmd := exec.CommandContext(ctx, path, expandArgs(inv.Args, subject)...)
	cmd.WaitDelay = processWaitDelay
	if len(p.env) > 0 {
		cmd.Env = append(cmd.Environ(), p.env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return failureFromError(ctx, p.desc.Name, ctxErr)
	}

	hits, parseErr := p.parse(stdout.Bytes(), p.desc)
	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			return Fail(model.ErrorToolUnavailable, "%s: cannot run %q: %v", p.desc.Name, inv.Command, runErr)
		}
		if parseErr != nil || len(hits) == 0 {
			return Fail(model.ErrorToolUnavailable, "%s: %q exited with code %d: %s",
				p.desc.Name, inv.Command, exitErr.ExitCode(), tail(stderr.String(), 200))
		}
	}
	if parseErr != nil {
		return Fail(model.ErrorMalformedResponse, "%s: %v", p.desc.Name, parseErr)
	}
	if len(hits) == 0 {
		return NotFound()
	}
	return Found(hits...)
}

// expandArgs substitutes the subject value and the site limit. When the
// subject has no source limit, a MaxSitesPlaceholder argument is dropped
// together with the flag preceding it.
func expandArgs(args []string, subject model.Subject) []string {
	maxSources := subject.Options().MaxSources
	out := make([]string, 0, len(args))
	for _, a := range args {
		if strings.Contains(a, MaxSitesPlaceholder) {
			if maxSources <= 0 {
				if n := len(out); n > 0 && strings.HasPrefix(out[n-1], "-") {
					out = out[:n-1]
				}
				continue
			}
			a = strings.ReplaceAll(a, MaxSitesPlaceholder, strconv.Itoa(maxSources))
		}
		out = append(out, strings.ReplaceAll(a, Placeholder, subject.Value()))
	}
	return out
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
