package pipeline

import (
	"strings"

	"github.com/charmbracelet/log"
	"github.com/theapemachine/analogy/pkg/errors"
)

/*
AnalogyRecord is the result of a successful run. TargetDomain always equals
the concept the run was started for.
*/
type AnalogyRecord struct {
	FinalAnalogy   string  `json:"final_analogy"`
	SourceDomain   string  `json:"source_domain"`
	TargetDomain   string  `json:"target_domain"`
	Explanation    string  `json:"explanation"`
	RuntimeSeconds float64 `json:"runtime_seconds"`
}

func newRecord(rc *RunContext, runtime float64) (*AnalogyRecord, error) {
	last, ok := rc.Last()
	if !ok {
		return nil, errors.ErrUnparsableOutput.WithMessagef("pipeline produced no output")
	}

	record := &AnalogyRecord{
		TargetDomain:   rc.Concept,
		RuntimeSeconds: runtime,
	}

	fields := map[string]*string{
		"final_analogy": &record.FinalAnalogy,
		"source_domain": &record.SourceDomain,
		"explanation":   &record.Explanation,
	}

	for _, name := range []string{"final_analogy", "source_domain", "explanation"} {
		value, _ := last[name].(string)

		if strings.TrimSpace(value) == "" {
			return nil, errors.ErrSchemaMismatch.WithMessagef("final output has no %q", name)
		}

		*fields[name] = value
	}

	if target, ok := last["target_domain"].(string); ok && target != rc.Concept {
		log.Warn("model changed the target domain, keeping the concept",
			"run", rc.ID, "concept", rc.Concept, "model", target,
		)
	}

	return record, nil
}
