package provider

import (
	"context"
)

/*
Request is one synchronous call to a language model. System carries the
role and goal of the stage, Prompt the task itself.
*/
type Request struct {
	Stage  string
	System string
	Prompt string
}

/*
Interface is the single boundary between the pipeline and a model backend.
Implementations are configured once and shared read-only across requests.
*/
type Interface interface {
	Complete(ctx context.Context, req Request) (string, error)
}

/*
Params are the sampling settings shared by every backend. Zero values leave
the backend default in place.
*/
type Params struct {
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int64   `mapstructure:"maxTokens"`
	BaseURL     string  `mapstructure:"baseURL"`
	APIKey      string  `mapstructure:"apiKey"`
}

func (params Params) modelOr(fallback string) string {
	if params.Model == "" {
		return fallback
	}

	return params.Model
}
