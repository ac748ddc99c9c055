package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/frontend-diff/internal/models"
)

func sampleReport() *models.RunReport {
	r := &models.RunReport{
		RunID:     "2f1c7d1e-0000-4000-8000-000000000000",
		Version:   "5.1.0",
		Renderer:  "./render.sh",
		StartedAt: time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC),
		Duration:  1500 * time.Millisecond,
		Components: []models.ComponentOutcome{
			{
				Component: "button",
				Results: []models.ComparisonOutcome{
					{
						Example: "default",
						Reason:  models.ReasonMismatch,
						Diff: models.DiffReport{
							Changes: []models.Change{{
								Kind:         models.ChangeAttributeRemoved,
								Path:         "button.govuk-button",
								Attribute:    "type",
								Expected:     "submit",
								ExpectedLine: 1,
								ActualLine:   1,
							}},
							Unified: "--- reference\n+++ candidate\n@@ -1,3 +1,3 @@\n-<button class=\"govuk-button\" type=\"submit\">\n+<button class=\"govuk-button\">\n   Save\n </button>\n",
						},
					},
					{Example: "with | pipe", Passed: true, Diff: models.DiffReport{Changes: []models.Change{}}},
				},
			},
			{
				Component: "tag",
				Results: []models.ComparisonOutcome{
					{Example: "default", Reason: models.ReasonCandidateError, Error: "candidate render of tag failed (exit 1)"},
				},
			},
			{
				Component: "accordion",
				Results: []models.ComparisonOutcome{
					{Example: models.SetupExample, Reason: models.ReasonSetupError, Error: "component accordion: examples file accordion.yaml not found"},
				},
			},
		},
	}
	r.Tally()
	return r
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, sampleReport(), TextOptions{}))
	out := buf.String()

	for _, want := range []string{
		"button\n",
		"  → default ✘\n",
		"    mismatch: 1 difference\n",
		`    - missing attribute type="submit" on button.govuk-button (reference line 1, candidate line 1)`,
		"      --- reference\n",
		"      +<button class=\"govuk-button\">\n",
		"  → with | pipe ✔\n",
		"    candidate-error: candidate render of tag failed (exit 1)\n",
		"  → (setup) ✘\n",
		"    setup-error: component accordion",
		"Results\n  4 tests.\n  1 passed.\n  3 failed.\n",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "\x1b[", "colors must be off")
}

func TestWriteTextOptions(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, sampleReport(), TextOptions{FailuresOnly: true}))
	assert.NotContains(t, buf.String(), "with | pipe")

	buf.Reset()
	require.NoError(t, WriteText(&buf, sampleReport(), TextOptions{Color: true}))
	assert.Contains(t, buf.String(), "\x1b[")
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleReport()))

	var decoded models.RunReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 4, decoded.Total)
	assert.Equal(t, 3, decoded.Failed)
	assert.Equal(t, "type", decoded.Components[0].Results[0].Diff.Changes[0].Attribute)
	assert.Contains(t, buf.String(), `"kind": "attribute-removed"`)
}

func TestWriteMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMarkdown(&buf, sampleReport()))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "# frontend-diff report\n"))
	assert.Contains(t, out, "- Version: `5.1.0`")
	assert.Contains(t, out, "- Result: **4 tests, 1 passed, 3 failed** (failures detected)")
	assert.Contains(t, out, "| default | ✘ mismatch | 1 difference |")
	assert.Contains(t, out, `| with \| pipe | ✔ passed |  |`)
	assert.Contains(t, out, "### button → default")
	assert.Contains(t, out, "```diff\n--- reference\n")
	assert.NotContains(t, out, "### tag", "errors without diffs get no detail section")
}

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, sampleReport()))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, "<title>frontend-diff report 5.1.0</title>")
	assert.Contains(t, out, "<h1>frontend-diff report</h1>")
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, `<code class="language-diff">`)
	assert.Contains(t, out, "&lt;button class=")
	assert.NotContains(t, out, "<button")
}

func TestWriteDispatch(t *testing.T) {
	for _, format := range []string{FormatText, FormatJSON, FormatMarkdown, FormatHTML} {
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, format, sampleReport(), TextOptions{}), format)
		assert.NotEmpty(t, buf.String(), format)
	}
	assert.Error(t, Write(&bytes.Buffer{}, "yaml", sampleReport(), TextOptions{}))
}

func TestDescribeChange(t *testing.T) {
	tests := []struct {
		change models.Change
		want   string
	}{
		{
			change: models.Change{Kind: models.ChangeAdded, Path: "div > span", Actual: "<span>", ActualLine: 3},
			want:   "unexpected <span> at div > span (candidate line 3)",
		},
		{
			change: models.Change{Kind: models.ChangeRemoved, Path: "div > p", Expected: "<p>", ExpectedLine: 2},
			want:   "missing <p> at div > p (reference line 2)",
		},
		{
			change: models.Change{Kind: models.ChangeAttributeAdded, Path: "input", Attribute: "disabled", Actual: ""},
			want:   `unexpected attribute disabled="" on input`,
		},
		{
			change: models.Change{Kind: models.ChangeAttributeChanged, Path: "a", Attribute: "href", Expected: "/a", Actual: "/b", ExpectedLine: 1, ActualLine: 1},
			want:   `attribute href on a: expected "/a", got "/b" (reference line 1, candidate line 1)`,
		},
		{
			change: models.Change{Kind: models.ChangeTextChanged, Path: "p > #text", Expected: "Save", Actual: "Sav"},
			want:   `text at p > #text: expected "Save", got "Sav"`,
		},
		{
			change: models.Change{Kind: models.ChangeRemoved, Expected: "<p>"},
			want:   "missing <p> at (root)",
		},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DescribeChange(tt.change))
	}
}

func TestCode(t *testing.T) {
	assert.Equal(t, "`a`", code("a"))
	assert.Equal(t, "``a`b``", code("a`b"))
	assert.Equal(t, "`` `a ``", code("`a"))
	assert.Equal(t, "` `", code(""))
}
