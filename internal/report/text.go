package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/harrison/frontend-diff/internal/models"
)

// TextOptions controls the text report.
type TextOptions struct {
	// Color forces ANSI colors on or off regardless of the terminal
	Color bool
	// FailuresOnly hides passing examples
	FailuresOnly bool
}

type palette struct {
	heading, pass, fail, meta, added, removed *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		heading: color.New(color.FgHiWhite, color.Bold),
		pass:    color.New(color.FgHiGreen, color.Bold),
		fail:    color.New(color.FgHiRed, color.Bold),
		meta:    color.New(color.FgCyan),
		added:   color.New(color.FgGreen),
		removed: color.New(color.FgRed),
	}
	for _, c := range []*color.Color{p.heading, p.pass, p.fail, p.meta, p.added, p.removed} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// WriteText writes the grouped human-readable report: every component, each
// example with ✔ or ✘, the differences of failures and the final totals.
func WriteText(w io.Writer, r *models.RunReport, opts TextOptions) error {
	bw := bufio.NewWriter(w)
	p := newPalette(opts.Color)

	for _, c := range r.Components {
		fmt.Fprintln(bw, p.heading.Sprint(c.Component))
		for _, o := range c.Results {
			if o.Passed {
				if !opts.FailuresOnly {
					fmt.Fprintf(bw, "  %s %s %s\n", p.heading.Sprint("→"), o.Example, p.pass.Sprint("✔"))
				}
				continue
			}
			fmt.Fprintf(bw, "  %s %s %s\n", p.heading.Sprint("→"), o.Example, p.fail.Sprint("✘"))
			writeFailure(bw, p, o)
		}
	}

	fmt.Fprintln(bw)
	fmt.Fprintln(bw, p.heading.Sprint("Results"))
	fmt.Fprintf(bw, "  %d tests.\n", r.Total)
	fmt.Fprintf(bw, "  %s\n", p.pass.Sprintf("%d passed.", r.Passed))
	if r.Failed > 0 {
		fmt.Fprintf(bw, "  %s\n", p.fail.Sprintf("%d failed.", r.Failed))
	} else {
		fmt.Fprintf(bw, "  %d failed.\n", r.Failed)
	}

	return bw.Flush()
}

func writeFailure(w io.Writer, p palette, o models.ComparisonOutcome) {
	fmt.Fprintf(w, "    %s %s\n", p.meta.Sprint(o.Reason+":"), detail(o))
	for _, c := range o.Diff.Changes {
		fmt.Fprintf(w, "    - %s\n", DescribeChange(c))
	}
	if o.Diff.Unified == "" {
		return
	}
	fmt.Fprintln(w)
	for _, line := range strings.Split(strings.TrimRight(o.Diff.Unified, "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"), strings.HasPrefix(line, "@@"):
			line = p.meta.Sprint(line)
		case strings.HasPrefix(line, "+"):
			line = p.added.Sprint(line)
		case strings.HasPrefix(line, "-"):
			line = p.removed.Sprint(line)
		}
		fmt.Fprintf(w, "      %s\n", line)
	}
	fmt.Fprintln(w)
}
