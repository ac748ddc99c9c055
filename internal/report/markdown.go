package report

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/harrison/frontend-diff/internal/models"
)

// WriteMarkdown writes the report as a Markdown document with one summary
// table per component and a section per failure.
func WriteMarkdown(w io.Writer, r *models.RunReport) error {
	var b bytes.Buffer

	b.WriteString("# frontend-diff report\n\n")
	fmt.Fprintf(&b, "- Version: %s\n", code(r.Version))
	if r.Renderer != "" {
		fmt.Fprintf(&b, "- Renderer: %s\n", code(r.Renderer))
	}
	if r.RunID != "" {
		fmt.Fprintf(&b, "- Run: %s\n", code(r.RunID))
	}
	if !r.StartedAt.IsZero() {
		fmt.Fprintf(&b, "- Started: %s\n", r.StartedAt.Format(time.RFC3339))
	}
	fmt.Fprintf(&b, "- Duration: %s\n", r.Duration.Round(time.Millisecond))
	status := "all passed"
	if !r.Success() {
		status = "failures detected"
	}
	fmt.Fprintf(&b, "- Result: **%d tests, %d passed, %d failed** (%s)\n", r.Total, r.Passed, r.Failed, status)

	for _, c := range r.Components {
		fmt.Fprintf(&b, "\n## %s\n\n", c.Component)
		b.WriteString("| Example | Result | Detail |\n|---|---|---|\n")
		for _, o := range c.Results {
			result := "✔ passed"
			if !o.Passed {
				result = "✘ " + o.Reason
			}
			fmt.Fprintf(&b, "| %s | %s | %s |\n", cell(o.Example), result, cell(detail(o)))
		}

		for _, o := range c.Results {
			if o.Passed || (len(o.Diff.Changes) == 0 && o.Diff.Unified == "") {
				continue
			}
			fmt.Fprintf(&b, "\n### %s → %s\n\n", c.Component, o.Example)
			for _, ch := range o.Diff.Changes {
				fmt.Fprintf(&b, "- %s\n", code(DescribeChange(ch)))
			}
			if o.Diff.Unified != "" {
				fence := "```"
				for strings.Contains(o.Diff.Unified, fence) {
					fence += "`"
				}
				fmt.Fprintf(&b, "\n%sdiff\n%s", fence, o.Diff.Unified)
				if !strings.HasSuffix(o.Diff.Unified, "\n") {
					b.WriteString("\n")
				}
				b.WriteString(fence + "\n")
			}
		}
	}

	_, err := w.Write(b.Bytes())
	return err
}

// WriteHTML writes a standalone HTML page converted from the Markdown report.
func WriteHTML(w io.Writer, r *models.RunReport) error {
	var md bytes.Buffer
	if err := WriteMarkdown(&md, r); err != nil {
		return err
	}

	gm := goldmark.New(goldmark.WithExtensions(extension.Table))
	var body bytes.Buffer
	if err := gm.Convert(md.Bytes(), &body); err != nil {
		return fmt.Errorf("convert report to HTML: %w", err)
	}

	_, err := fmt.Fprintf(w, htmlPage, html.EscapeString("frontend-diff report "+r.Version), body.String())
	return err
}

const htmlPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: sans-serif; margin: 2rem; max-width: 72rem; }
table { border-collapse: collapse; }
th, td { border: 1px solid #b1b4b6; padding: 0.25rem 0.5rem; text-align: left; }
pre { background: #f3f2f1; padding: 0.75rem; overflow-x: auto; }
</style>
</head>
<body>
%s</body>
</html>
`

// code wraps s in a Markdown code span.
func code(s string) string {
	if s == "" {
		return "` `"
	}
	fence := "`"
	for strings.Contains(s, fence) {
		fence += "`"
	}
	if strings.HasPrefix(s, "`") || strings.HasSuffix(s, "`") {
		return fence + " " + s + " " + fence
	}
	return fence + s + fence
}

// cell escapes text for a Markdown table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.NewReplacer("<", "&lt;", ">", "&gt;").Replace(s)
}
