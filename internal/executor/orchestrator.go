// Package executor runs differential comparisons: every example of every
// selected component is rendered by the reference and the candidate, and the
// normalized outputs are diffed.
package executor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"github.com/harrison/frontend-diff/internal/bundle"
	"github.com/harrison/frontend-diff/internal/candidate"
	"github.com/harrison/frontend-diff/internal/logger"
	"github.com/harrison/frontend-diff/internal/markup"
	"github.com/harrison/frontend-diff/internal/models"
	"github.com/harrison/frontend-diff/internal/reference"
)

// Logger defines the logging behavior the orchestrator needs.
type Logger interface {
	LogDebug(message string)
	LogInfo(message string)
	LogWarn(message string)
	LogError(message string)
	LogRunStart(version string, components int)
	LogComponentResult(outcome models.ComponentOutcome)
	LogSummary(report *models.RunReport)
}

// Progress receives coarse progress: one increment per finished component.
type Progress interface {
	Start(total int)
	Increment()
	Done()
}

// BundleProvider materializes reference bundles.
type BundleProvider interface {
	Ensure(ctx context.Context, version string, opts bundle.EnsureOptions) (*bundle.Bundle, error)
}

// Differ compares reference and candidate markup.
type Differ interface {
	Diff(expected, actual string) (models.DiffReport, error)
}

// Config holds run-independent orchestrator settings.
type Config struct {
	// MaxConcurrency bounds in-flight candidate renders (0 = unlimited)
	MaxConcurrency int
	// Timeout bounds a whole run (0 = none)
	Timeout time.Duration
	// Renderer describes the candidate in the report
	Renderer string
}

// Options selects what a single run compares.
type Options struct {
	Include      []string
	Exclude      []string
	ForceRefresh bool
}

// Orchestrator coordinates a differential run and aggregates its report.
type Orchestrator struct {
	provider  BundleProvider
	candidate candidate.Renderer
	differ    Differ
	logger    Logger
	progress  Progress
	cfg       Config
}

// NewOrchestrator creates a new Orchestrator instance.
// The log parameter is optional and can be nil.
func NewOrchestrator(provider BundleProvider, cand candidate.Renderer, differ Differ, log Logger, cfg Config) *Orchestrator {
	if provider == nil {
		panic("bundle provider cannot be nil")
	}
	if cand == nil {
		panic("candidate renderer cannot be nil")
	}
	if differ == nil {
		differ = markup.NewDiffer()
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Orchestrator{
		provider:  provider,
		candidate: cand,
		differ:    differ,
		logger:    log,
		cfg:       cfg,
	}
}

// SetProgress installs a progress hook. A nil hook disables progress.
func (o *Orchestrator) SetProgress(p Progress) {
	o.progress = p
}

// Run compares every selected example of version. Setup failures
// (acquisition, catalog) abort the run with a *RunError; everything else is
// recorded as a failed outcome in the returned report.
func (o *Orchestrator) Run(ctx context.Context, version string, opts Options) (*models.RunReport, error) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if o.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.Timeout)
		defer cancel()
	}

	startTime := time.Now()

	b, err := o.provider.Ensure(ctx, version, bundle.EnsureOptions{ForceRefresh: opts.ForceRefresh})
	if err != nil {
		return nil, &RunError{Phase: PhaseAcquisition, Version: version, Err: err}
	}

	names, err := b.Components()
	if err != nil {
		return nil, &RunError{Phase: PhaseCatalog, Version: version, Err: err}
	}
	selected := Filter(append(names, models.PageTemplate), opts.Include, opts.Exclude)

	for _, name := range opts.Include {
		if name != models.PageTemplate && !contains(names, name) {
			o.logWarn(fmt.Sprintf("Included component %q is not in the catalog for %s", name, version))
		}
	}

	o.logger.LogRunStart(version, len(selected))
	if o.progress != nil {
		o.progress.Start(len(selected))
	}

	run := &comparison{
		ref:       reference.New(b),
		bundle:    b,
		candidate: o.candidate,
		differ:    o.differ,
	}
	if o.cfg.MaxConcurrency > 0 {
		run.semaphore = make(chan struct{}, o.cfg.MaxConcurrency)
	}

	outcomes := make([]models.ComponentOutcome, len(selected))
	p := pool.New()
	for i, name := range selected {
		p.Go(func() {
			outcomes[i] = run.component(ctx, name)
			o.logger.LogComponentResult(outcomes[i])
			if o.progress != nil {
				o.progress.Increment()
			}
		})
	}
	p.Wait()

	if o.progress != nil {
		o.progress.Done()
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		o.logWarn(fmt.Sprintf("Run exceeded the %s timeout; unfinished renders were cancelled", o.cfg.Timeout))
	}

	report := &models.RunReport{
		RunID:      uuid.NewString(),
		Version:    version,
		Renderer:   o.cfg.Renderer,
		StartedAt:  startTime,
		Duration:   time.Since(startTime),
		Components: outcomes,
	}
	report.Tally()

	o.logger.LogSummary(report)
	return report, nil
}

func (o *Orchestrator) logWarn(msg string) {
	o.logger.LogWarn(msg)
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
