package provider

import (
	"context"
	"fmt"
	"os"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/charmbracelet/log"
)

/*
AnthropicProvider is a provider for the Anthropic API.
*/
type AnthropicProvider struct {
	client *anthropic.Client
	params Params
}

type AnthropicProviderOption func(*AnthropicProvider)

func NewAnthropicProvider(options ...AnthropicProviderOption) *AnthropicProvider {
	prvdr := &AnthropicProvider{}

	for _, option := range options {
		option(prvdr)
	}

	return prvdr
}

func (prvdr *AnthropicProvider) Complete(ctx context.Context, req Request) (string, error) {
	if prvdr.client == nil {
		return "", fmt.Errorf("anthropic client not configured")
	}

	maxTokens := prvdr.params.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(prvdr.params.modelOr("claude-3-5-haiku-latest")),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}

	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	if prvdr.params.Temperature > 0 {
		params.Temperature = anthropic.Float(prvdr.params.Temperature)
	}

	message, err := prvdr.client.Messages.New(ctx, params)
	if err != nil {
		log.Error("failed to generate completion", "provider", "anthropic", "error", err)
		return "", err
	}

	out := &strings.Builder{}

	for _, block := range message.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			out.WriteString(text.Text)
		}
	}

	return out.String(), nil
}

func WithAnthropicClient(params Params) AnthropicProviderOption {
	return func(prvdr *AnthropicProvider) {
		prvdr.params = params

		key := params.APIKey
		if key == "" {
			key = os.Getenv("ANTHROPIC_API_KEY")
		}

		opts := []option.RequestOption{option.WithAPIKey(key)}

		if params.BaseURL != "" {
			opts = append(opts, option.WithBaseURL(params.BaseURL))
		}

		client := anthropic.NewClient(opts...)
		prvdr.client = &client
	}
}
