package prompts

import "fmt"

// FieldType is the expected JSON type of one field in a stage's output.
type FieldType string

const (
	FieldString FieldType = "string"
	FieldList   FieldType = "list"
	FieldNumber FieldType = "number"
	FieldObject FieldType = "object"
	FieldAny    FieldType = "any"
)

func (t FieldType) Valid() bool {
	switch t {
	case FieldString, FieldList, FieldNumber, FieldObject, FieldAny:
		return true
	}

	return false
}

// Field is one required key of a stage's structured output.
type Field struct {
	Name string    `json:"field" mapstructure:"field"`
	Type FieldType `json:"type" mapstructure:"type"`
}

/*
Definition describes one stage of the analogy pipeline: who the model should
act as, what it should achieve, the task text, and the shape of the answer.
Definitions are loaded once at start and never mutated afterwards.
*/
type Definition struct {
	Name      string  `json:"name" mapstructure:"name"`
	Role      string  `json:"role" mapstructure:"role"`
	Goal      string  `json:"goal" mapstructure:"goal"`
	Backstory string  `json:"backstory,omitempty" mapstructure:"backstory"`
	Template  string  `json:"template" mapstructure:"template"`
	Schema    []Field `json:"schema" mapstructure:"schema"`
}

/*
Validate checks the parts of a definition that can be checked without
knowing the rest of the pipeline.
*/
func (def Definition) Validate() error {
	if def.Name == "" {
		return fmt.Errorf("stage definition without a name")
	}

	if def.Template == "" {
		return fmt.Errorf("stage %q has an empty template", def.Name)
	}

	if len(def.Schema) == 0 {
		return fmt.Errorf("stage %q declares no output schema", def.Name)
	}

	seen := make(map[string]bool, len(def.Schema))

	for _, field := range def.Schema {
		if field.Name == "" {
			return fmt.Errorf("stage %q has a schema field without a name", def.Name)
		}

		if seen[field.Name] {
			return fmt.Errorf("stage %q declares field %q twice", def.Name, field.Name)
		}

		seen[field.Name] = true

		if !field.Type.Valid() {
			return fmt.Errorf("stage %q field %q has unknown type %q", def.Name, field.Name, field.Type)
		}
	}

	return nil
}
