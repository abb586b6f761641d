package prompts

import (
	"bytes"
	_ "embed"

	"github.com/spf13/viper"
)

//go:embed stages.yml
var defaultStages []byte

/*
DefaultRegistry returns the three stage Structure Mapping pipeline: analyse
the target domain, select a base domain, map the two into an analogy.
*/
func DefaultRegistry() (*Registry, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if err := v.ReadConfig(bytes.NewReader(defaultStages)); err != nil {
		return nil, err
	}

	return NewRegistryFromConfig(v, "stages")
}
