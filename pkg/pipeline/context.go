package pipeline

import (
	"time"

	"github.com/google/uuid"
)

// Output is the validated structured result of one stage.
type Output map[string]any

/*
RunContext holds everything one pipeline run accumulates: the concept it was
started for and the outputs of the stages completed so far, in order. A
RunContext lives for one run only.
*/
type RunContext struct {
	ID        string
	Concept   string
	StartedAt time.Time

	order   []string
	outputs map[string]Output
}

func NewRunContext(concept string) *RunContext {
	return &RunContext{
		ID:        uuid.New().String(),
		Concept:   concept,
		StartedAt: time.Now(),
		outputs:   make(map[string]Output),
	}
}

/*
Output implements prompts.Lookup, giving the builder access to earlier
stage results.
*/
func (rc *RunContext) Output(stage string) (map[string]any, bool) {
	out, ok := rc.outputs[stage]
	return out, ok
}

func (rc *RunContext) append(stage string, out Output) {
	rc.order = append(rc.order, stage)
	rc.outputs[stage] = out
}

// Completed lists the stages that produced an output, in execution order.
func (rc *RunContext) Completed() []string {
	out := make([]string, len(rc.order))
	copy(out, rc.order)
	return out
}

// Last returns the most recent stage output.
func (rc *RunContext) Last() (Output, bool) {
	if len(rc.order) == 0 {
		return nil, false
	}

	return rc.outputs[rc.order[len(rc.order)-1]], true
}
