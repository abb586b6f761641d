package prompts

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
	"github.com/valyala/fasttemplate"
)

// ErrorStageNotFound is returned by Get for an unknown stage name.
type ErrorStageNotFound struct{ Name string }

func (e ErrorStageNotFound) Error() string { return fmt.Sprintf("stage not found: %s", e.Name) }

/*
Registry holds the ordered stage definitions of the pipeline. It is built
once and only read afterwards, so it is safe to share across requests.
*/
type Registry struct {
	definitions []Definition
	index       map[string]int
}

/*
NewRegistry validates the definitions as a whole: names are unique, every
template parses, and every placeholder refers to the concept or to a stage
that runs earlier.
*/
func NewRegistry(definitions ...Definition) (*Registry, error) {
	if len(definitions) == 0 {
		return nil, fmt.Errorf("pipeline has no stages")
	}

	registry := &Registry{
		definitions: make([]Definition, 0, len(definitions)),
		index:       make(map[string]int, len(definitions)),
	}

	for i, def := range definitions {
		if err := def.Validate(); err != nil {
			return nil, err
		}

		if _, ok := registry.index[def.Name]; ok {
			return nil, fmt.Errorf("stage %q is defined twice", def.Name)
		}

		if strings.Contains(def.Name, ".") || def.Name == ConceptTag {
			return nil, fmt.Errorf("stage name %q is reserved or contains a dot", def.Name)
		}

		for _, text := range []string{def.Template, def.Goal, def.Backstory} {
			if err := registry.checkReferences(def.Name, text); err != nil {
				return nil, err
			}
		}

		registry.index[def.Name] = i
		registry.definitions = append(registry.definitions, def)
	}

	return registry, nil
}

/*
NewRegistryFromConfig reads the stage list under key from viper.
*/
func NewRegistryFromConfig(v *viper.Viper, key string) (*Registry, error) {
	var definitions []Definition

	if err := v.UnmarshalKey(key, &definitions); err != nil {
		return nil, fmt.Errorf("failed to read stage definitions: %w", err)
	}

	registry, err := NewRegistry(definitions...)
	if err != nil {
		return nil, err
	}

	log.Debug("loaded stage definitions", "count", len(definitions), "stages", registry.Names())
	return registry, nil
}

func (registry *Registry) checkReferences(stage, text string) error {
	if text == "" {
		return nil
	}

	if _, err := fasttemplate.NewTemplate(text, startTag, endTag); err != nil {
		return fmt.Errorf("stage %q: %w", stage, err)
	}

	refs, err := References(text)
	if err != nil {
		return fmt.Errorf("stage %q: %w", stage, err)
	}

	for _, ref := range refs {
		if ref == ConceptTag {
			continue
		}

		upstream, _, _ := strings.Cut(ref, ".")

		if _, ok := registry.index[upstream]; !ok {
			return fmt.Errorf(
				"stage %q references %q, which is not an earlier stage", stage, ref,
			)
		}
	}

	return nil
}

// List returns the definitions in execution order.
func (registry *Registry) List() []Definition {
	out := make([]Definition, len(registry.definitions))
	copy(out, registry.definitions)
	return out
}

func (registry *Registry) Get(name string) (Definition, error) {
	i, ok := registry.index[name]

	if !ok {
		return Definition{}, ErrorStageNotFound{Name: name}
	}

	return registry.definitions[i], nil
}

func (registry *Registry) Names() []string {
	names := make([]string, len(registry.definitions))

	for i, def := range registry.definitions {
		names[i] = def.Name
	}

	return names
}

func (registry *Registry) Len() int {
	return len(registry.definitions)
}
