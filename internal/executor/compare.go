package executor

import (
	"context"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/harrison/frontend-diff/internal/bundle"
	"github.com/harrison/frontend-diff/internal/candidate"
	"github.com/harrison/frontend-diff/internal/markup"
	"github.com/harrison/frontend-diff/internal/models"
	"github.com/harrison/frontend-diff/internal/reference"
)

// comparison holds the read-only state shared by the tasks of one run.
type comparison struct {
	ref       *reference.Renderer
	bundle    *bundle.Bundle
	candidate candidate.Renderer
	differ    Differ
	semaphore chan struct{} // nil when candidate renders are unbounded
}

// component compares every example of one component concurrently. Results
// keep the declaration order of the examples.
func (c *comparison) component(ctx context.Context, name string) models.ComponentOutcome {
	outcome := models.ComponentOutcome{Component: name}

	var examples []models.Example
	if name == models.PageTemplate {
		examples = reference.PageExamples()
	} else {
		var err error
		examples, err = c.bundle.Examples(name)
		if err != nil {
			outcome.Results = []models.ComparisonOutcome{{
				Example: models.SetupExample,
				Reason:  models.ReasonSetupError,
				Error:   err.Error(),
				Diff:    models.DiffReport{Changes: []models.Change{}},
			}}
			return outcome
		}
	}

	results := make([]models.ComparisonOutcome, len(examples))
	p := pool.New()
	for i, ex := range examples {
		p.Go(func() {
			results[i] = c.example(ctx, name, ex)
		})
	}
	p.Wait()

	outcome.Results = results
	return outcome
}

func (c *comparison) example(ctx context.Context, component string, ex models.Example) models.ComparisonOutcome {
	start := time.Now()
	out := c.compare(ctx, component, ex)
	out.Duration = time.Since(start)
	return out
}

// compare renders one example through both renderers with the same params
// and diffs the normalized outputs.
func (c *comparison) compare(ctx context.Context, component string, ex models.Example) models.ComparisonOutcome {
	out := models.ComparisonOutcome{Example: ex.Name, Diff: models.DiffReport{Changes: []models.Change{}}}

	var req models.RenderRequest
	var expectedRaw string
	var err error
	if component == models.PageTemplate {
		req = models.TemplateRequest(ex.Data)
		expectedRaw, err = c.ref.RenderPage(ex.Data)
	} else {
		req = models.ComponentRequest(component, ex.Data)
		expectedRaw, err = c.ref.RenderComponent(component, ex.Data)
	}
	if err != nil {
		return fail(&out, models.ReasonReferenceError, err)
	}

	actualRaw, err := c.render(ctx, req)
	if err != nil {
		return fail(&out, models.ReasonCandidateError, err)
	}

	expected, err := markup.Normalize(expectedRaw)
	if err != nil {
		return fail(&out, models.ReasonReferenceError, err)
	}
	actual, err := markup.Normalize(actualRaw)
	if err != nil {
		return fail(&out, models.ReasonCandidateError, err)
	}
	out.Expected = expected
	out.Actual = actual

	diff, err := c.differ.Diff(expected, actual)
	if err != nil {
		return fail(&out, models.ReasonCandidateError, err)
	}
	out.Diff = diff
	out.Passed = diff.Empty()
	if !out.Passed {
		out.Reason = models.ReasonMismatch
	}
	return out
}

// render calls the candidate, holding a semaphore slot when bounded.
func (c *comparison) render(ctx context.Context, req models.RenderRequest) (string, error) {
	if c.semaphore != nil {
		select {
		case <-ctx.Done():
			return "", &candidate.InvocationError{Target: req.Target(), ExitCode: -1, Err: ctx.Err()}
		case c.semaphore <- struct{}{}:
		}
		defer func() { <-c.semaphore }()
	}
	if err := ctx.Err(); err != nil {
		return "", &candidate.InvocationError{Target: req.Target(), ExitCode: -1, Err: err}
	}
	return c.candidate.Render(ctx, req)
}

func fail(out *models.ComparisonOutcome, reason string, err error) models.ComparisonOutcome {
	out.Passed = false
	out.Reason = reason
	out.Error = err.Error()
	return *out
}
