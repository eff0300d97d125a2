package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/identscan/internal/model"
)

// Batch defaults.
const (
	// DefaultBatchConcurrency is the number of subjects looked up at once.
	DefaultBatchConcurrency = 4

	// MaxBatchSize is the largest batch accepted without an explicit override.
	MaxBatchSize = 20
)

// Looker runs a single lookup. *Orchestrator implements it.
type Looker interface {
	Lookup(ctx context.Context, kind model.Kind, value string, opts model.Options) (*model.Report, error)
}

// BatchResult is the outcome of one subject in a batch. Exactly one of
// Report and Err is set.
type BatchResult struct {
	Value  string        `json:"value"`
	Report *model.Report `json:"report,omitempty"`

	// Err is the validation or registry error that prevented the lookup.
	Err error `json:"-"`

	// Error is Err's message, kept for serialization.
	Error string `json:"error,omitempty"`
}

// BatchRunner looks up many subjects of one kind concurrently.
type BatchRunner struct {
	looker      Looker
	concurrency int
	logger      *slog.Logger
}

// BatchOption configures a BatchRunner.
type BatchOption func(*BatchRunner)

// WithBatchLogger sets the logger. Nil keeps slog.Default().
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchRunner) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithBatchConcurrency sets how many subjects run at once.
// Non-positive values are ignored.
func WithBatchConcurrency(n int) BatchOption {
	return func(b *BatchRunner) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchRunner creates a BatchRunner.
func NewBatchRunner(looker Looker, opts ...BatchOption) *BatchRunner {
	b := &BatchRunner{
		looker:      looker,
		concurrency: DefaultBatchConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run looks up every value and returns the results in input order. A
// value that fails validation gets a result carrying the error and does
// not stop the others.
func (b *BatchRunner) Run(ctx context.Context, kind model.Kind, values []string, opts model.Options) []BatchResult {
	results := make([]BatchResult, len(values))
	b.run(ctx, kind, values, opts, func(r BatchResult, i int) {
		results[i] = r
	})
	return results
}

// RunWithCallback looks up every value and calls fn as each one finishes.
// fn is called from worker goroutines and must be safe for concurrent use.
func (b *BatchRunner) RunWithCallback(ctx context.Context, kind model.Kind, values []string, opts model.Options, fn func(result BatchResult, index int)) {
	b.run(ctx, kind, values, opts, fn)
}

func (b *BatchRunner) run(ctx context.Context, kind model.Kind, values []string, opts model.Options, fn func(BatchResult, int)) {
	b.logger.Info("starting batch",
		"kind", kind.String(),
		"total", len(values),
		"concurrency", b.concurrency,
	)
	start := time.Now()

	var g errgroup.Group
	g.SetLimit(b.concurrency)

	for i, value := range values {
		g.Go(func() error {
			result := BatchResult{Value: value}
			report, err := b.looker.Lookup(ctx, kind, value, opts)
			if err != nil {
				b.logger.Warn("lookup rejected", "value", value, "index", i+1, "error", err)
				result.Err = err
				result.Error = err.Error()
			} else {
				result.Report = report
			}
			fn(result, i)
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // workers never return errors

	b.logger.Info("batch complete",
		"total", len(values),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
}
