package cmd

import (
	"fmt"

	"github.com/spf13/viper"
	"github.com/theapemachine/analogy/pkg/extract"
	"github.com/theapemachine/analogy/pkg/feedback"
	"github.com/theapemachine/analogy/pkg/pipeline"
	"github.com/theapemachine/analogy/pkg/prompts"
	"github.com/theapemachine/analogy/pkg/provider"
	"github.com/theapemachine/analogy/pkg/stores/s3"
)

/*
loadRegistry reads pipeline.stages from the config, falling back to the
built-in stage chain when none are configured.
*/
func loadRegistry(v *viper.Viper) (*prompts.Registry, error) {
	if !v.IsSet("pipeline.stages") {
		return prompts.DefaultRegistry()
	}

	return prompts.NewRegistryFromConfig(v, "pipeline.stages")
}

func newRunner(v *viper.Viper, options ...pipeline.RunnerOption) (*pipeline.Runner, error) {
	registry, err := loadRegistry(v)
	if err != nil {
		return nil, fmt.Errorf("invalid stage definitions: %w", err)
	}

	prvdr, err := provider.NewFromConfig(v)
	if err != nil {
		return nil, err
	}

	extractor, err := extract.NewExtractorWithMarker(v.GetString("pipeline.marker"))
	if err != nil {
		return nil, err
	}

	return pipeline.NewRunner(registry, prvdr, extractor, options...), nil
}

func newStore(v *viper.Viper) *feedback.Store {
	path := v.GetString("feedback.path")
	if path == "" {
		path = "feedback.csv"
	}

	return feedback.NewStore(path)
}

func newArchive(v *viper.Viper) (*s3.Archive, error) {
	var cfg s3.Config

	if err := v.UnmarshalKey("archive", &cfg); err != nil {
		return nil, fmt.Errorf("failed to read archive config: %w", err)
	}

	conn, err := s3.NewConn(cfg)
	if err != nil {
		return nil, err
	}

	return s3.NewArchive(conn, cfg), nil
}
