// Package report presents a RunReport as text, JSON, Markdown or HTML.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/harrison/frontend-diff/internal/models"
)

// Formats accepted by Write.
const (
	FormatText     = "text"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

// Write renders r in the named format.
func Write(w io.Writer, format string, r *models.RunReport, opts TextOptions) error {
	switch format {
	case FormatText, "":
		return WriteText(w, r, opts)
	case FormatJSON:
		return WriteJSON(w, r)
	case FormatMarkdown:
		return WriteMarkdown(w, r)
	case FormatHTML:
		return WriteHTML(w, r)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

// WriteJSON writes r as indented JSON for tooling.
func WriteJSON(w io.Writer, r *models.RunReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// DescribeChange renders a change as one human-readable line.
func DescribeChange(c models.Change) string {
	where := c.Path
	if where == "" {
		where = "(root)"
	}
	switch c.Kind {
	case models.ChangeAdded:
		return fmt.Sprintf("unexpected %s at %s%s", c.Actual, where, lines(0, c.ActualLine))
	case models.ChangeRemoved:
		return fmt.Sprintf("missing %s at %s%s", c.Expected, where, lines(c.ExpectedLine, 0))
	case models.ChangeAttributeAdded:
		return fmt.Sprintf("unexpected attribute %s=%q on %s%s", c.Attribute, c.Actual, where, lines(c.ExpectedLine, c.ActualLine))
	case models.ChangeAttributeRemoved:
		return fmt.Sprintf("missing attribute %s=%q on %s%s", c.Attribute, c.Expected, where, lines(c.ExpectedLine, c.ActualLine))
	case models.ChangeAttributeChanged:
		return fmt.Sprintf("attribute %s on %s: expected %q, got %q%s", c.Attribute, where, c.Expected, c.Actual, lines(c.ExpectedLine, c.ActualLine))
	case models.ChangeTextChanged:
		return fmt.Sprintf("text at %s: expected %q, got %q%s", where, c.Expected, c.Actual, lines(c.ExpectedLine, c.ActualLine))
	default:
		return fmt.Sprintf("%s at %s", c.Kind, where)
	}
}

func lines(expected, actual int) string {
	var parts []string
	if expected > 0 {
		parts = append(parts, fmt.Sprintf("reference line %d", expected))
	}
	if actual > 0 {
		parts = append(parts, fmt.Sprintf("candidate line %d", actual))
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, ", ") + ")"
}

// detail summarizes why an outcome failed.
func detail(o models.ComparisonOutcome) string {
	switch {
	case o.Passed:
		return ""
	case o.Reason == models.ReasonMismatch:
		n := len(o.Diff.Changes)
		if n == 1 {
			return "1 difference"
		}
		return fmt.Sprintf("%d differences", n)
	case o.Error != "":
		return o.Error
	default:
		return o.Reason
	}
}
