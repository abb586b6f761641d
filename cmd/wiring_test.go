package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/theapemachine/analogy/pkg/feedback"
	"github.com/theapemachine/analogy/pkg/pipeline"
	"github.com/theapemachine/analogy/pkg/prompts"
	"github.com/tj/assert"
)

func TestLoadRegistry(t *testing.T) {
	t.Run("built-in stages", func(t *testing.T) {
		registry, err := loadRegistry(viper.New())

		assert.NoError(t, err)
		assert.Equal(t, []string{"domain_analyzer", "base_domain_selector", "mapping_agent"}, registry.Names())
	})

	t.Run("configured stages", func(t *testing.T) {
		v := viper.New()
		v.Set("pipeline.stages", []map[string]any{
			{
				"name":     "only",
				"template": "Explain {{concept}}. Final Answer: {\"final_analogy\": \"\"}",
				"schema":   []map[string]any{{"field": "final_analogy", "type": "string"}},
			},
		})

		registry, err := loadRegistry(v)

		assert.NoError(t, err)
		assert.Equal(t, []string{"only"}, registry.Names())
	})
}

func TestNewRunner(t *testing.T) {
	v := viper.New()
	v.Set("provider.name", "ollama")
	v.Set("provider.baseURL", "http://127.0.0.1:11434")

	runner, err := newRunner(v)
	assert.NoError(t, err)
	assert.Len(t, runner.Stages(), 3)

	v.Set("pipeline.marker", "final(")
	_, err = newRunner(v)
	assert.Error(t, err)

	v.Set("pipeline.marker", "")
	v.Set("provider.name", "watson")
	_, err = newRunner(v, pipeline.WithMetrics(nil))
	assert.Error(t, err)
}

func TestRenderRecord(t *testing.T) {
	out := renderRecord(&pipeline.AnalogyRecord{
		FinalAnalogy:   "A cell is a city.",
		SourceDomain:   "city",
		TargetDomain:   "cell",
		Explanation:    "Organelles are districts.",
		RuntimeSeconds: 1.5,
	})

	assert.Contains(t, out, "A cell is a city.")
	assert.Contains(t, out, "1.50s")
	assert.Contains(t, out, "Organelles are districts.")
}

func TestRenderStage(t *testing.T) {
	registry, err := prompts.DefaultRegistry()
	assert.NoError(t, err)

	def, err := registry.Get("base_domain_selector")
	assert.NoError(t, err)

	out := renderStage(def)

	assert.Contains(t, out, "base_domain_selector")
	assert.Contains(t, out, "base_domain:string")
	assert.Contains(t, out, "{{domain_analyzer.target_structures}}")

	_, err = registry.Get("summarizer")
	assert.Error(t, err)
}

func TestWriteEntries(t *testing.T) {
	ctx := context.Background()
	store := feedback.NewStore(filepath.Join(t.TempDir(), "feedback.csv"))

	var empty bytes.Buffer
	assert.NoError(t, writeEntries(ctx, &empty, store))
	assert.Equal(t, "[]\n", empty.String())

	assert.NoError(t, store.Append(ctx, feedback.Entry{
		TargetDomain:  "cell",
		FinalAnalogy:  "A cell is a city.",
		SourceDomain:  "city",
		Explanation:   "Organelles are districts.",
		RatingOverall: 4,
		Comment:       "vivid",
	}))

	var out bytes.Buffer
	assert.NoError(t, writeEntries(ctx, &out, store))

	var entries []feedback.Entry
	assert.NoError(t, json.Unmarshal(out.Bytes(), &entries))
	assert.Len(t, entries, 1)
	assert.Equal(t, "vivid", entries[0].Comment)
	assert.Equal(t, 4.0, entries[0].RatingOverall)
}
