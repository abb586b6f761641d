package prompts

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/theapemachine/analogy/pkg/errors"
	"github.com/valyala/fasttemplate"
)

const (
	startTag = "{{"
	endTag   = "}}"

	// ConceptTag is replaced with the concept the pipeline runs for.
	ConceptTag = "concept"
)

/*
Lookup gives the builder read access to the outputs produced so far in a run.
*/
type Lookup interface {
	Output(stage string) (map[string]any, bool)
}

// Rendered is the literal text sent to the model for one stage.
type Rendered struct {
	System string
	Prompt string
}

/*
Build renders the system instructions and the task prompt of a stage.

Placeholders:

	{{concept}}        the concept
	{{stage}}          the full output of an earlier stage, as JSON
	{{stage.field}}    one field of an earlier stage output

A placeholder that cannot be resolved is a MissingDependency error; nothing
is substituted with a placeholder value.
*/
func Build(def Definition, concept string, upstream Lookup) (Rendered, error) {
	resolve := resolver(concept, upstream)

	system, err := fasttemplate.ExecuteFuncStringWithErr(systemText(def), startTag, endTag, resolve)
	if err != nil {
		return Rendered{}, wrapMissing(def.Name, err)
	}

	prompt, err := fasttemplate.ExecuteFuncStringWithErr(def.Template, startTag, endTag, resolve)
	if err != nil {
		return Rendered{}, wrapMissing(def.Name, err)
	}

	return Rendered{
		System: system,
		Prompt: strings.TrimSpace(prompt),
	}, nil
}

func systemText(def Definition) string {
	builder := &strings.Builder{}

	if def.Role != "" {
		fmt.Fprintf(builder, "You are the %s.\n", def.Role)
	}

	if def.Goal != "" {
		fmt.Fprintf(builder, "Your goal: %s\n", strings.TrimSpace(def.Goal))
	}

	if def.Backstory != "" {
		builder.WriteString(strings.TrimSpace(def.Backstory))
		builder.WriteString("\n")
	}

	return strings.TrimSpace(builder.String())
}

func resolver(concept string, upstream Lookup) fasttemplate.TagFunc {
	return func(w io.Writer, tag string) (int, error) {
		tag = strings.TrimSpace(tag)

		if tag == ConceptTag {
			return w.Write([]byte(concept))
		}

		stage, field, hasField := strings.Cut(tag, ".")

		var (
			output map[string]any
			ok     bool
		)

		if upstream != nil {
			output, ok = upstream.Output(stage)
		}

		if !ok {
			return 0, errors.ErrMissingDependency.WithMessagef("no output for stage %q", stage)
		}

		if !hasField {
			return writeValue(w, output)
		}

		value, ok := output[field]

		if !ok {
			return 0, errors.ErrMissingDependency.WithMessagef("stage %q has no field %q", stage, field)
		}

		return writeValue(w, value)
	}
}

func writeValue(w io.Writer, value any) (int, error) {
	if text, ok := value.(string); ok {
		return w.Write([]byte(text))
	}

	buf, err := json.Marshal(value)
	if err != nil {
		return 0, fmt.Errorf("failed to render value: %w", err)
	}

	return w.Write(buf)
}

func wrapMissing(stage string, err error) error {
	var e *errors.Error

	if errors.As(err, &e) {
		return e.WithMessagef("rendering %q: %s", stage, e.Message)
	}

	return errors.ErrMissingDependency.WithMessagef("rendering %q: %v", stage, err)
}

/*
References lists the placeholders a template uses, without resolving them.
*/
func References(template string) ([]string, error) {
	var refs []string

	_, err := fasttemplate.ExecuteFuncStringWithErr(template, startTag, endTag,
		func(w io.Writer, tag string) (int, error) {
			refs = append(refs, strings.TrimSpace(tag))
			return 0, nil
		},
	)

	return refs, err
}
