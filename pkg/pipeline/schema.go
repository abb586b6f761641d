package pipeline

import (
	"strings"

	"github.com/theapemachine/analogy/pkg/errors"
	"github.com/theapemachine/analogy/pkg/prompts"
)

/*
validate checks an extracted output against the schema of its stage. Only
outputs that pass are allowed into the run context.
*/
func validate(schema []prompts.Field, out map[string]any) (Output, error) {
	for _, field := range schema {
		value, ok := out[field.Name]

		if !ok || value == nil {
			return nil, errors.ErrSchemaMismatch.WithMessagef("missing key %q", field.Name)
		}

		if !conforms(field.Type, value) {
			return nil, errors.ErrSchemaMismatch.WithMessagef(
				"key %q should be a non-empty %s, got %T", field.Name, field.Type, value,
			)
		}
	}

	return Output(out), nil
}

func conforms(kind prompts.FieldType, value any) bool {
	switch kind {
	case prompts.FieldString:
		text, ok := value.(string)
		return ok && strings.TrimSpace(text) != ""
	case prompts.FieldList:
		list, ok := value.([]any)
		return ok && len(list) > 0
	case prompts.FieldNumber:
		_, ok := value.(float64)
		return ok
	case prompts.FieldObject:
		_, ok := value.(map[string]any)
		return ok
	default:
		return true
	}
}
