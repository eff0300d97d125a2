package report

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/identscan/internal/model"
	"github.com/nao1215/identscan/internal/pipeline"
)

// MarkdownWriter outputs reports in Markdown format.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the report as a Markdown document.
func (w *MarkdownWriter) Write(report *model.Report) (int, error) {
	md := markdown.NewMarkdown(w.output)
	w.writeReport(md, report, "#")
	w.writeFooter(md)
	return len(md.String()), md.Build()
}

// WriteBatch outputs an overview table followed by one section per subject.
func (w *MarkdownWriter) WriteBatch(results []pipeline.BatchResult) (int, error) {
	md := markdown.NewMarkdown(w.output)
	md.H1("identscan Batch Report")
	md.PlainText("")

	rows := make([][]string, len(results))
	for i, r := range results {
		if r.Report == nil {
			rows[i] = []string{"`" + r.Value + "`", "-", "-", "rejected: " + r.Error}
			continue
		}
		rows[i] = []string{
			"`" + r.Value + "`",
			strconv.Itoa(r.Report.Summary.PlatformsFound),
			strconv.Itoa(r.Report.Summary.HighConfidenceCount),
			status(r.Report),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Subject", "Platforms", "High Confidence", "Status"},
		Rows:   rows,
	})
	md.PlainText("")

	for _, r := range results {
		if r.Report != nil {
			w.writeReport(md, r.Report, "##")
		}
	}
	w.writeFooter(md)
	return len(md.String()), md.Build()
}

// writeReport writes one report. level is the heading prefix of its title.
func (w *MarkdownWriter) writeReport(md *markdown.Markdown, r *model.Report, level string) {
	sub := level + "#"

	md.PlainTextf("%s identscan Report: `%s`", level, r.Subject.Value)
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Subject", "`" + r.Subject.Value + "`"},
			{"Kind", r.Subject.Kind.String()},
			{"Tier Used", strconv.Itoa(r.TierUsed)},
			{"Status", status(r)},
		},
	})
	md.PlainText("")

	w.writeSummary(md, r, sub)
	w.writeFindings(md, r, sub)
	w.writeBreaches(md, r, sub)
	w.writeEmail(md, r, sub)
	w.writeImage(md, r, sub)
	w.writeSocialProfiles(md, r, sub)
	w.writeErrors(md, r, sub)
}

func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, r *model.Report, level string) {
	md.PlainText(level + " Summary")
	md.PlainText("")

	s := r.Summary
	rows := [][]string{
		{"Platforms Found", strconv.Itoa(s.PlatformsFound)},
		{"High Confidence", strconv.Itoa(s.HighConfidenceCount)},
		{"With Full Name", strconv.Itoa(s.WithFullName)},
		{"With Avatar", strconv.Itoa(s.WithAvatar)},
		{"With Bio", strconv.Itoa(s.WithBio)},
	}
	if s.BreachCount != nil {
		rows = append(rows, []string{"Breaches", strconv.Itoa(*s.BreachCount)})
	}
	if s.RiskLevel != nil {
		rows = append(rows, []string{"Risk Level", "**" + strings.ToUpper(s.RiskLevel.String()) + "**"})
	}
	if r.Subject.Kind == model.KindImage {
		rows = append(rows, []string{"Unique Domains", strconv.Itoa(s.UniqueDomains)})
	}
	md.Table(markdown.TableSet{Header: []string{"Metric", "Value"}, Rows: rows})
	md.PlainText("")

	if len(s.ByCategory) > 0 {
		w.writePieChart(md, s.ByCategory)
	}
	w.writeAlert(md, r)
}

// writePieChart writes a mermaid pie chart of platforms per category.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, byCategory map[string][]string) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Platforms by Category"),
		piechart.WithShowData(true),
	)
	for _, tag := range sortedKeys(byCategory) {
		chart.LabelAndIntValue(tag, uint64(len(byCategory[tag])))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, r *model.Report) {
	switch {
	case r.Partial:
		md.Warningf("The lookup hit its overall timeout; %d platform(s) were found before it stopped.", r.Summary.PlatformsFound)
	case r.Summary.RiskLevel != nil && *r.Summary.RiskLevel >= model.RiskHigh:
		md.Cautionf("This address appears in %d known breach(es). Risk level: %s.", *r.Summary.BreachCount, *r.Summary.RiskLevel)
	case r.Image != nil && r.Image.HasIdentifyingMetadata():
		md.Importantf("The image carries identifying EXIF metadata (%d tags).", r.Image.ExifTags)
	case r.HasFindings():
		md.Note("Findings are observations from public sources and may include false positives.")
	default:
		md.Tip("No platform reported this subject.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeFindings(md *markdown.Markdown, r *model.Report, level string) {
	md.PlainText(level + " Findings")
	md.PlainText("")

	if !r.HasFindings() {
		md.PlainText("No platforms found.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(r.Findings))
	for i, f := range r.Findings {
		link := "-"
		if f.URL != "" {
			link = fmt.Sprintf("[%s](%s)", truncateString(f.URL, 60), f.URL)
		}
		rows[i] = []string{
			f.Platform,
			f.Status.String(),
			strconv.FormatFloat(f.Confidence, 'f', 2, 64),
			link,
			valueOr(strings.Join(f.Tags, ", "), "-"),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Platform", "Status", "Confidence", "URL", "Tags"},
		Rows:   rows,
	})
	md.PlainText("")

	for _, f := range r.Findings {
		var lines []string
		if f.Metadata.HasFullName() {
			lines = append(lines, "Name: "+*f.Metadata.FullName)
		}
		if f.Metadata.HasAvatar() {
			lines = append(lines, "Avatar: "+*f.Metadata.AvatarURL)
		}
		if f.Metadata.HasBio() {
			lines = append(lines, "Bio: "+*f.Metadata.Bio)
		}
		for _, e := range f.Evidence {
			lines = append(lines, "Evidence: "+e)
		}
		if len(lines) > 0 {
			md.Details(f.Platform, strings.Join(lines, "\n"))
		}
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeBreaches(md *markdown.Markdown, r *model.Report, level string) {
	if r.Subject.Kind != model.KindEmail {
		return
	}
	md.PlainText(level + " Breaches")
	md.PlainText("")
	if len(r.Breaches) == 0 {
		md.PlainText("No known breaches.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(r.Breaches))
	for i, b := range r.Breaches {
		rows[i] = []string{
			valueOr(b.Title, b.Name),
			valueOr(b.Domain, "-"),
			valueOr(b.BreachDate, "-"),
			valueOr(strings.Join(b.DataClasses, ", "), "-"),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Breach", "Domain", "Date", "Data"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeEmail(md *markdown.Markdown, r *model.Report, level string) {
	if r.Email == nil {
		return
	}
	e := r.Email
	md.PlainText(level + " Email")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Domain", e.Domain},
			{"Provider", e.Provider},
			{"Disposable", strconv.FormatBool(e.Disposable)},
			{"MX Valid", strconv.FormatBool(e.MXValid)},
			{"MX Hosts", valueOr(strings.Join(e.MXHosts, ", "), "-")},
		},
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeImage(md *markdown.Markdown, r *model.Report, level string) {
	if r.Image == nil {
		return
	}
	img := r.Image
	rows := [][]string{
		{"SHA3-256", "`" + img.SHA3 + "`"},
		{"Size", strconv.FormatInt(img.SizeBytes, 10) + " bytes"},
		{"Format", valueOr(img.Format, "-")},
		{"EXIF Tags", strconv.Itoa(img.ExifTags)},
	}
	for _, kv := range [][2]string{
		{"Camera", img.Camera},
		{"Serial", img.Serial},
		{"Software", img.Software},
		{"Artist", img.Artist},
		{"Copyright", img.Copyright},
		{"Taken At", img.TakenAt},
	} {
		if kv[1] != "" {
			rows = append(rows, []string{kv[0], kv[1]})
		}
	}
	if img.GPS != nil {
		rows = append(rows, []string{"GPS", img.GPS.Latitude + ", " + img.GPS.Longitude})
	}

	md.PlainText(level + " Image")
	md.PlainText("")
	md.Table(markdown.TableSet{Header: []string{"Property", "Value"}, Rows: rows})
	md.PlainText("")
}

func (w *MarkdownWriter) writeSocialProfiles(md *markdown.Markdown, r *model.Report, level string) {
	if len(r.SocialProfiles) == 0 {
		return
	}
	md.PlainText(level + " Social Profiles")
	md.PlainText("")

	items := make([]string, len(r.SocialProfiles))
	for i, p := range r.SocialProfiles {
		items[i] = fmt.Sprintf("%s: [%s](%s) (via %s)", p.Network, valueOr(p.Handle, p.URL), p.URL, p.Source)
	}
	md.BulletList(items...)
	md.PlainText("")
}

func (w *MarkdownWriter) writeErrors(md *markdown.Markdown, r *model.Report, level string) {
	if !r.HasErrors() {
		return
	}
	md.PlainText(level + " Probe Errors")
	md.PlainText("")

	rows := make([][]string, len(r.Errors))
	for i, e := range r.Errors {
		tier := strconv.Itoa(e.Tier)
		if e.Signal {
			tier = "signal"
		}
		rows[i] = []string{valueOr(e.Probe, "-"), tier, e.Kind.String(), truncateString(e.Detail, 80)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Probe", "Tier", "Kind", "Detail"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Report generated by [identscan](https://github.com/nao1215/identscan)*")
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
