package outwriter

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/huangsam/deepdive/internal/contract"
	"github.com/huangsam/deepdive/schema"
)

// RenderMarkdown renders the report as a Markdown document with one table per segment.
func RenderMarkdown(report *schema.Report, cfg *contract.Config) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "# %s\n\n", escapeMarkdown(reportHeading(report)))
	if !report.GeneratedAt.IsZero() {
		fmt.Fprintf(&b, "_Generated %s_\n\n", report.GeneratedAt.UTC().Format("2006-01-02 15:04:05 MST"))
	}
	if len(report.Tables) == 0 {
		b.WriteString("No results to display.\n")
		return b.Bytes()
	}

	for _, t := range report.Tables {
		fmt.Fprintf(&b, "## %s\n\n", escapeMarkdown(t.Title))
		b.WriteString("| Rank | Metric | Arm | Value | Baseline | % Change | Significance |\n")
		b.WriteString("|---:|:---|:---|---:|---:|---:|:---|\n")
		for _, r := range t.Rows {
			c := buildCells(r, cfg.Precision)
			arm := escapeMarkdown(c.Arm)
			if r.Control {
				arm = "**" + arm + "** " + controlMarker
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s |\n",
				c.Rank, escapeMarkdown(c.Metric), arm,
				escapeMarkdown(c.Value), escapeMarkdown(c.Baseline), c.Change, c.Significance)
		}
		b.WriteString("\n")
		for _, line := range verdictLines(t) {
			fmt.Fprintf(&b, "%s\n\n", escapeMarkdown(line))
		}
		if len(t.KeyInsights) > 0 {
			b.WriteString("Key insights:\n\n")
			for _, insight := range t.KeyInsights {
				fmt.Fprintf(&b, "- %s\n", escapeMarkdown(insight))
			}
			b.WriteString("\n")
		}
	}

	if len(report.Summary.Metrics) > 0 {
		fmtFloat := floatFormatter(cfg.Precision)
		b.WriteString("## Summary\n\n")
		b.WriteString("| Metric | Rows | Mean | Median | Min | Max |\n")
		b.WriteString("|:---|---:|---:|---:|---:|---:|\n")
		for _, m := range report.Summary.Metrics {
			fmt.Fprintf(&b, "| %s | %d | %s | %s | %s | %s |\n",
				escapeMarkdown(m.Name), m.Count, fmtFloat(m.Mean), fmtFloat(m.Median), fmtFloat(m.Min), fmtFloat(m.Max))
		}
		b.WriteString("\n")
	}
	return b.Bytes()
}

// RenderHTML renders the Markdown report into a complete HTML page.
func RenderHTML(report *schema.Report, cfg *contract.Config) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse(RenderMarkdown(report, cfg))
	renderer := html.NewRenderer(html.RendererOptions{
		Title: reportHeading(report),
		Flags: html.CommonFlags | html.CompletePage,
	})
	return markdown.Render(doc, renderer)
}

var markdownEscaper = strings.NewReplacer(
	`|`, `\|`,
	`*`, `\*`,
	`_`, `\_`,
	"`", "\\`",
	"\n", " ",
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
