package report

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"github.com/nao1215/identscan/internal/model"
	"github.com/nao1215/identscan/internal/pipeline"
)

// TextWriter outputs human-readable reports as tables.
type TextWriter struct {
	baseWriter

	// terminal selects rounded box drawing; otherwise plain ASCII is used.
	terminal bool

	// verbose adds profile metadata and evidence links.
	verbose bool
}

// TextWriterOption configures a TextWriter.
type TextWriterOption func(*TextWriter)

// WithTerminal selects box-drawing tables for interactive terminals.
func WithTerminal(terminal bool) TextWriterOption {
	return func(w *TextWriter) {
		w.terminal = terminal
	}
}

// WithVerbose includes profile metadata and evidence links.
func WithVerbose(verbose bool) TextWriterOption {
	return func(w *TextWriter) {
		w.verbose = verbose
	}
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer, opts ...TextWriterOption) *TextWriter {
	w := &TextWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Write outputs one report.
func (w *TextWriter) Write(report *model.Report) (int, error) {
	var sb strings.Builder
	w.writeReport(&sb, report)
	return io.WriteString(w.output, sb.String())
}

// WriteBatch outputs an overview table followed by each report.
func (w *TextWriter) WriteBatch(results []pipeline.BatchResult) (int, error) {
	var sb strings.Builder

	rows := make([][]string, len(results))
	for i, r := range results {
		if r.Report == nil {
			rows[i] = []string{r.Value, "-", "-", "rejected: " + r.Error}
			continue
		}
		rows[i] = []string{
			r.Value,
			strconv.Itoa(r.Report.Summary.PlatformsFound),
			strconv.Itoa(r.Report.Summary.HighConfidenceCount),
			status(r.Report),
		}
	}
	sb.WriteString(w.renderTable("BATCH", []string{"SUBJECT", "PLATFORMS", "HIGH CONFIDENCE", "STATUS"}, rows, 1, 2))
	sb.WriteString("\n")

	for _, r := range results {
		if r.Report != nil {
			w.writeReport(&sb, r.Report)
		}
	}
	return io.WriteString(w.output, sb.String())
}

func (w *TextWriter) writeReport(sb *strings.Builder, r *model.Report) {
	fmt.Fprintf(sb, "\n%s lookup: %s\n", r.Subject.Kind, r.Subject.Value)
	fmt.Fprintf(sb, "Tier used: %d    Status: %s\n\n", r.TierUsed, status(r))

	s := r.Summary
	summary := [][]string{
		{"Platforms found", strconv.Itoa(s.PlatformsFound)},
		{"High confidence", strconv.Itoa(s.HighConfidenceCount)},
		{"With full name", strconv.Itoa(s.WithFullName)},
		{"With avatar", strconv.Itoa(s.WithAvatar)},
		{"With bio", strconv.Itoa(s.WithBio)},
	}
	if s.BreachCount != nil && s.RiskLevel != nil {
		summary = append(summary,
			[]string{"Breaches", strconv.Itoa(*s.BreachCount)},
			[]string{"Risk level", strings.ToUpper(s.RiskLevel.String())})
	}
	if r.Subject.Kind == model.KindImage {
		summary = append(summary, []string{"Unique domains", strconv.Itoa(s.UniqueDomains)})
	}
	sb.WriteString(w.renderTable("SUMMARY", []string{"METRIC", "VALUE"}, summary, 1))
	sb.WriteString("\n")

	if len(s.ByCategory) > 0 {
		rows := make([][]string, 0, len(s.ByCategory))
		for _, tag := range sortedKeys(s.ByCategory) {
			rows = append(rows, []string{tag, strings.Join(s.ByCategory[tag], ", ")})
		}
		sb.WriteString(w.renderTable("CATEGORIES", []string{"TAG", "PLATFORMS"}, rows))
		sb.WriteString("\n")
	}

	if r.HasFindings() {
		rows := make([][]string, len(r.Findings))
		for i, f := range r.Findings {
			rows[i] = []string{
				f.Platform,
				f.Status.String(),
				strconv.FormatFloat(f.Confidence, 'f', 2, 64),
				valueOr(f.URL, "-"),
			}
		}
		sb.WriteString(w.renderTable("FINDINGS", []string{"PLATFORM", "STATUS", "CONFIDENCE", "URL"}, rows, 2))
		sb.WriteString("\n")
		if w.verbose {
			w.writeDetails(sb, r.Findings)
		}
	} else {
		sb.WriteString("No platforms found.\n\n")
	}

	if len(r.Breaches) > 0 {
		rows := make([][]string, len(r.Breaches))
		for i, b := range r.Breaches {
			rows[i] = []string{valueOr(b.Title, b.Name), valueOr(b.Domain, "-"), valueOr(b.BreachDate, "-")}
		}
		sb.WriteString(w.renderTable("BREACHES", []string{"BREACH", "DOMAIN", "DATE"}, rows))
		sb.WriteString("\n")
	}

	if e := r.Email; e != nil {
		fmt.Fprintf(sb, "Email provider: %s (domain %s, disposable %t, MX valid %t)\n\n", e.Provider, e.Domain, e.Disposable, e.MXValid)
	}

	if img := r.Image; img != nil {
		fmt.Fprintf(sb, "Image SHA3-256: %s (%d bytes, %d EXIF tags)\n", img.SHA3, img.SizeBytes, img.ExifTags)
		if img.Camera != "" {
			fmt.Fprintf(sb, "Camera: %s\n", img.Camera)
		}
		if img.GPS != nil {
			fmt.Fprintf(sb, "GPS: %s, %s\n", img.GPS.Latitude, img.GPS.Longitude)
		}
		sb.WriteString("\n")
	}

	if len(r.SocialProfiles) > 0 {
		rows := make([][]string, len(r.SocialProfiles))
		for i, p := range r.SocialProfiles {
			rows[i] = []string{p.Network, valueOr(p.Handle, "-"), p.URL}
		}
		sb.WriteString(w.renderTable("SOCIAL PROFILES", []string{"NETWORK", "HANDLE", "URL"}, rows))
		sb.WriteString("\n")
	}

	if r.HasErrors() {
		rows := make([][]string, len(r.Errors))
		for i, e := range r.Errors {
			tier := strconv.Itoa(e.Tier)
			if e.Signal {
				tier = "signal"
			}
			rows[i] = []string{valueOr(e.Probe, "-"), tier, e.Kind.String(), truncateString(e.Detail, 70)}
		}
		sb.WriteString(w.renderTable("PROBE ERRORS", []string{"PROBE", "TIER", "KIND", "DETAIL"}, rows))
		sb.WriteString("\n")
	}
}

func (w *TextWriter) writeDetails(sb *strings.Builder, findings []model.Finding) {
	for _, f := range findings {
		if f.Metadata.IsEmpty() && len(f.Evidence) == 0 {
			continue
		}
		fmt.Fprintf(sb, "[+] %s\n", f.Platform)
		if f.Metadata.HasFullName() {
			fmt.Fprintf(sb, "    name:   %s\n", *f.Metadata.FullName)
		}
		if f.Metadata.HasAvatar() {
			fmt.Fprintf(sb, "    avatar: %s\n", *f.Metadata.AvatarURL)
		}
		if f.Metadata.HasBio() {
			fmt.Fprintf(sb, "    bio:    %s\n", truncateString(*f.Metadata.Bio, 120))
		}
		for _, e := range f.Evidence {
			fmt.Fprintf(sb, "    link:   %s\n", e)
		}
	}
	sb.WriteString("\n")
}

// renderTable renders a titled table. rightAligned lists zero-based
// column indexes to right-align.
func (w *TextWriter) renderTable(title string, headers []string, rows [][]string, rightAligned ...int) string {
	tw := table.NewWriter()
	if w.terminal {
		tw.SetStyle(table.StyleRounded)
	} else {
		tw.SetStyle(table.StyleDefault)
	}
	tw.SetTitle(title)

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(headers))
		for i := range headers {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, len(headers))
	for i := range headers {
		align := text.AlignLeft
		for _, c := range rightAligned {
			if c == i {
				align = text.AlignRight
			}
		}
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render() + "\n"
}
