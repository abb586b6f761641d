package provider

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
)

/*
NewProvider builds the backend selected by name. The returned provider is
not yet guarded by a timeout, see NewFromConfig.
*/
func NewProvider(name string, params Params) (Interface, error) {
	switch strings.ToLower(name) {
	case "ollama", "":
		return NewOllamaProvider(WithOllamaClient(params)), nil
	case "openai":
		return NewOpenAIProvider(WithOpenAIClient(params)), nil
	case "anthropic":
		return NewAnthropicProvider(WithAnthropicClient(params)), nil
	case "google", "gemini":
		return NewGoogleProvider(WithGoogleClient(params)), nil
	case "cohere":
		return NewCohereProvider(WithCohereClient(params)), nil
	case "deepseek":
		return NewDeepseekProvider(WithDeepseekClient(params)), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", name)
	}
}

/*
NewFromConfig reads the provider section from viper and returns the
selected backend wrapped in a Guard with the configured timeout. Keys are
read one by one so environment overrides apply to each of them.
*/
func NewFromConfig(v *viper.Viper) (Interface, error) {
	params := Params{
		Model:       v.GetString("provider.model"),
		Temperature: v.GetFloat64("provider.temperature"),
		MaxTokens:   v.GetInt64("provider.maxTokens"),
		BaseURL:     v.GetString("provider.baseURL"),
		APIKey:      v.GetString("provider.apiKey"),
	}

	name := v.GetString("provider.name")

	backend, err := NewProvider(name, params)
	if err != nil {
		return nil, err
	}

	timeout := v.GetDuration("provider.timeout")
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	log.Info("model provider configured", "provider", name, "model", params.Model, "timeout", timeout)
	return NewGuard(backend, name, timeout), nil
}
