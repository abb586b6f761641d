package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/theapemachine/analogy/pkg/errors"
	"github.com/theapemachine/analogy/pkg/extract"
	"github.com/theapemachine/analogy/pkg/metrics"
	"github.com/theapemachine/analogy/pkg/prompts"
	"github.com/theapemachine/analogy/pkg/provider"
)

/*
Runner executes the stages of the pipeline in declaration order. The stages
and the provider are shared read-only, each Run gets its own RunContext.
*/
type Runner struct {
	stages   []*Stage
	metrics  *metrics.PipelineMetrics
	observer Observer
}

type RunnerOption func(*Runner)

/*
NewRunner binds every definition in the registry to the provider and the
extractor.
*/
func NewRunner(
	registry *prompts.Registry,
	prvdr provider.Interface,
	extractor *extract.Extractor,
	options ...RunnerOption,
) *Runner {
	runner := &Runner{}

	for _, def := range registry.List() {
		runner.stages = append(runner.stages, NewStage(def, prvdr, extractor))
	}

	for _, option := range options {
		option(runner)
	}

	return runner
}

func WithMetrics(m *metrics.PipelineMetrics) RunnerOption {
	return func(runner *Runner) {
		runner.metrics = m
	}
}

func WithObserver(observer Observer) RunnerOption {
	return func(runner *Runner) {
		runner.observer = observer
	}
}

// Stages returns the names of the stages in execution order.
func (runner *Runner) Stages() []string {
	names := make([]string, 0, len(runner.stages))

	for _, stage := range runner.stages {
		names = append(names, stage.Name())
	}

	return names
}

/*
Run produces an analogy for the concept. The first failing stage aborts the
run with a *errors.StageError naming it; no later stage is executed and no
partial record is returned.
*/
func (runner *Runner) Run(ctx context.Context, concept string) (*AnalogyRecord, error) {
	return runner.Execute(ctx, runner.NewRun(concept))
}

/*
NewRun prepares a pending run for the concept, so the caller knows the run
ID up front and can inspect its state once Execute returns.
*/
func (runner *Runner) NewRun(concept string) *Run {
	return newRun(NewRunContext(concept), len(runner.stages), runner.observer)
}

// Execute drives a pending run through every stage.
func (runner *Runner) Execute(ctx context.Context, run *Run) (*AnalogyRecord, error) {
	rc := run.ctx

	if run.state != StatePending {
		return nil, errors.ErrValidation.WithMessagef("Run %s was already executed.", rc.ID)
	}

	if strings.TrimSpace(rc.Concept) == "" {
		run.state = StateFailed
		return nil, errors.ErrValidation.WithMessagef("No concept provided.")
	}

	log.Info("pipeline started", "run", rc.ID, "concept", rc.Concept, "stages", len(runner.stages))

	start := time.Now()

	for i, stage := range runner.stages {
		run.enter(i, stage.Name())

		stageStart := time.Now()
		out, err := stage.Execute(ctx, rc)
		runner.recordStage(stage.Name(), time.Since(stageStart))

		if err != nil {
			return nil, runner.abort(run, stage.Name(), start, err)
		}

		rc.append(stage.Name(), out)
	}

	elapsed := time.Since(start)

	record, err := newRecord(rc, elapsed.Seconds())
	if err != nil {
		last := runner.stages[len(runner.stages)-1].Name()
		return nil, runner.abort(run, last, start, err)
	}

	run.succeed()
	runner.recordRun("", elapsed)

	log.Info("pipeline succeeded", "run", rc.ID, "source", record.SourceDomain, "elapsed", elapsed)
	return record, nil
}

func (runner *Runner) abort(run *Run, stage string, start time.Time, err error) error {
	stageErr := &errors.StageError{Stage: stage, Err: err}

	run.fail(stageErr)
	runner.recordRun(stage, time.Since(start))

	log.Error(
		"pipeline failed",
		"run", run.ctx.ID,
		"stage", stage,
		"completed", run.ctx.Completed(),
		"error", err,
	)
	return stageErr
}

func (runner *Runner) recordStage(stage string, elapsed time.Duration) {
	if runner.metrics != nil {
		runner.metrics.RecordStage(stage, elapsed)
	}
}

func (runner *Runner) recordRun(failed string, elapsed time.Duration) {
	if runner.metrics != nil {
		runner.metrics.RecordRun(failed, elapsed)
	}
}
