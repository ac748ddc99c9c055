package models

import (
	"time"
)

// ChangeKind classifies a single structural difference.
type ChangeKind string

const (
	ChangeAdded            ChangeKind = "added"             // node present only in the candidate output
	ChangeRemoved          ChangeKind = "removed"           // node present only in the reference output
	ChangeAttributeAdded   ChangeKind = "attribute-added"   // attribute present only in the candidate output
	ChangeAttributeRemoved ChangeKind = "attribute-removed" // attribute present only in the reference output
	ChangeAttributeChanged ChangeKind = "attribute-changed" // attribute value differs
	ChangeTextChanged      ChangeKind = "text-changed"      // text or comment content differs
)

// Change is one structural difference between reference and candidate markup.
// Lines are 1-based positions in the canonical markup; zero means the node
// does not exist on that side.
type Change struct {
	Kind         ChangeKind `json:"kind"`
	Path         string     `json:"path"`
	Attribute    string     `json:"attribute,omitempty"`
	Expected     string     `json:"expected,omitempty"`
	Actual       string     `json:"actual,omitempty"`
	ExpectedLine int        `json:"expected_line,omitempty"`
	ActualLine   int        `json:"actual_line,omitempty"`
}

// DiffReport is the diff artifact attached to every comparison.
type DiffReport struct {
	Changes []Change `json:"changes"`
	Unified string   `json:"unified,omitempty"` // unified text diff of canonical markup
}

// Empty reports whether the diff carries no structural change.
func (d DiffReport) Empty() bool {
	return len(d.Changes) == 0
}

// Outcome reasons. A passing comparison has an empty reason.
const (
	ReasonMismatch       = "mismatch"
	ReasonCandidateError = "candidate-error"
	ReasonReferenceError = "reference-error"
	ReasonSetupError     = "setup-error"
)

// SetupExample names the synthetic outcome recorded when a component's
// reference examples cannot be loaded.
const SetupExample = "(setup)"

// ComparisonOutcome is the verdict for one example.
type ComparisonOutcome struct {
	Example  string        `json:"example"`
	Passed   bool          `json:"passed"`
	Reason   string        `json:"reason,omitempty"`
	Error    string        `json:"error,omitempty"`
	Diff     DiffReport    `json:"diff"`
	Expected string        `json:"expected,omitempty"` // canonical reference markup
	Actual   string        `json:"actual,omitempty"`   // canonical candidate markup
	Duration time.Duration `json:"duration_ns"`
}

// ComponentOutcome groups the outcomes of one component in declaration order.
type ComponentOutcome struct {
	Component string              `json:"component"`
	Results   []ComparisonOutcome `json:"results"`
}

// Failed counts the failing outcomes of the component.
func (c ComponentOutcome) Failed() int {
	n := 0
	for _, r := range c.Results {
		if !r.Passed {
			n++
		}
	}
	return n
}

// RunReport aggregates a differential run.
type RunReport struct {
	RunID      string             `json:"run_id"`
	Version    string             `json:"version"`
	Renderer   string             `json:"renderer,omitempty"`
	StartedAt  time.Time          `json:"started_at"`
	Duration   time.Duration      `json:"duration_ns"`
	Components []ComponentOutcome `json:"components"`
	Total      int                `json:"total"`
	Passed     int                `json:"passed"`
	Failed     int                `json:"failed"`
}

// Tally recomputes Total, Passed and Failed from the component outcomes.
func (r *RunReport) Tally() {
	r.Total, r.Passed, r.Failed = 0, 0, 0
	for _, c := range r.Components {
		for _, res := range c.Results {
			r.Total++
			if res.Passed {
				r.Passed++
			} else {
				r.Failed++
			}
		}
	}
}

// Success reports whether every example passed.
func (r *RunReport) Success() bool {
	return r.Failed == 0
}
