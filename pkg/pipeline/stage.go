package pipeline

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/theapemachine/analogy/pkg/errors"
	"github.com/theapemachine/analogy/pkg/extract"
	"github.com/theapemachine/analogy/pkg/prompts"
	"github.com/theapemachine/analogy/pkg/provider"
)

/*
Stage is one unit of the pipeline: a definition bound to the model it calls
and the extractor that reads the answer. A Stage holds no per-run state, so
one instance serves any number of concurrent runs.
*/
type Stage struct {
	Definition prompts.Definition
	provider   provider.Interface
	extractor  *extract.Extractor
}

func NewStage(def prompts.Definition, prvdr provider.Interface, extractor *extract.Extractor) *Stage {
	if extractor == nil {
		extractor = extract.NewExtractor()
	}

	return &Stage{
		Definition: def,
		provider:   prvdr,
		extractor:  extractor,
	}
}

func (stage *Stage) Name() string {
	return stage.Definition.Name
}

/*
Execute renders the prompt from the run context, calls the model, extracts
the structured answer and validates it against the stage schema.
*/
func (stage *Stage) Execute(ctx context.Context, rc *RunContext) (Output, error) {
	rendered, err := prompts.Build(stage.Definition, rc.Concept, rc)
	if err != nil {
		return nil, err
	}

	log.Debug("executing stage", "run", rc.ID, "stage", stage.Name(), "prompt", len(rendered.Prompt))

	raw, err := stage.provider.Complete(ctx, provider.Request{
		Stage:  stage.Name(),
		System: rendered.System,
		Prompt: rendered.Prompt,
	})

	if err != nil {
		if errors.As(err, new(*errors.Error)) {
			return nil, err
		}

		return nil, errors.ErrModelInvocation.Wrap(err)
	}

	extracted, err := stage.extractor.Extract(raw)
	if err != nil {
		return nil, err
	}

	return validate(stage.Definition.Schema, extracted)
}
