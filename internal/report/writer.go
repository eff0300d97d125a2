package report

import (
	"io"

	"github.com/nao1215/identscan/internal/model"
	"github.com/nao1215/identscan/internal/pipeline"
)

// Writer renders lookup results.
type Writer interface {
	// Write outputs a single report.
	Write(report *model.Report) (int, error)

	// WriteBatch outputs the results of a batch lookup.
	WriteBatch(results []pipeline.BatchResult) (int, error)
}

// MultiWriter writes to multiple Writers in order and stops at the first error.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
func (m *MultiWriter) Write(report *model.Report) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteBatch outputs the batch results to all configured Writers.
func (m *MultiWriter) WriteBatch(results []pipeline.BatchResult) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteBatch(results)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// status describes the completeness of a report.
func status(r *model.Report) string {
	switch {
	case r.Partial:
		return "partial (overall timeout)"
	case r.HasErrors():
		return "complete with probe errors"
	default:
		return "complete"
	}
}

// truncateString truncates a string to maxLen bytes with an ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
