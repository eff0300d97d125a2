// Package report renders lookup reports.
//
// Three formats are provided:
//   - TextWriter: tables for terminal display (go-pretty)
//   - JSONWriter and FullJSONWriter: structured output for tool integration
//   - MarkdownWriter: shareable documents with tables, alerts and a
//     category chart (nao1215/markdown)
//
// Writers implement Writer and can be combined with MultiWriter. Rendering
// never changes the report.
package report
