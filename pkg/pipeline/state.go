package pipeline

import "time"

// State is the lifecycle position of a run.
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

/*
Event is emitted on every state transition. Stage is set while a stage is
running and on the stage that failed.
*/
type Event struct {
	RunID   string
	State   State
	Stage   string
	Index   int
	Total   int
	Elapsed time.Duration
	Err     error
}

// Observer receives the progress events of a run, synchronously.
type Observer interface {
	Notify(Event)
}

// ObserverFunc adapts a plain function to an Observer.
type ObserverFunc func(Event)

func (fn ObserverFunc) Notify(event Event) {
	fn(event)
}

/*
Run tracks the state machine of one execution:
Pending -> Running(stage_i) -> ... -> Succeeded, or Running(stage_i) -> Failed.
*/
type Run struct {
	ctx      *RunContext
	state    State
	stage    string
	index    int
	total    int
	observer Observer
}

func newRun(rc *RunContext, total int, observer Observer) *Run {
	return &Run{
		ctx:      rc,
		state:    StatePending,
		total:    total,
		observer: observer,
	}
}

// ID identifies the run in logs, events and the X-Run-ID header.
func (run *Run) ID() string {
	return run.ctx.ID
}

func (run *Run) Concept() string {
	return run.ctx.Concept
}

// Completed lists the stages that produced an output, in execution order.
func (run *Run) Completed() []string {
	return run.ctx.Completed()
}

func (run *Run) State() State {
	return run.state
}

// Stage returns the stage currently running, or the one that failed.
func (run *Run) Stage() string {
	return run.stage
}

func (run *Run) enter(index int, stage string) {
	run.state = StateRunning
	run.index = index
	run.stage = stage
	run.emit(nil)
}

func (run *Run) succeed() {
	run.state = StateSucceeded
	run.stage = ""
	run.emit(nil)
}

func (run *Run) fail(err error) {
	run.state = StateFailed
	run.emit(err)
}

func (run *Run) emit(err error) {
	if run.observer == nil {
		return
	}

	run.observer.Notify(Event{
		RunID:   run.ctx.ID,
		State:   run.state,
		Stage:   run.stage,
		Index:   run.index,
		Total:   run.total,
		Elapsed: time.Since(run.ctx.StartedAt),
		Err:     err,
	})
}
