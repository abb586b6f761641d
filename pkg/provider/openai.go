package provider

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

/*
OpenAIProvider is a provider for the OpenAI API, or any server that speaks
the same chat completions protocol when a base URL is configured.
*/
type OpenAIProvider struct {
	client *openai.Client
	params Params
}

type OpenAIProviderOption func(*OpenAIProvider)

func NewOpenAIProvider(options ...OpenAIProviderOption) *OpenAIProvider {
	prvdr := &OpenAIProvider{}

	for _, option := range options {
		option(prvdr)
	}

	return prvdr
}

func (prvdr *OpenAIProvider) Complete(ctx context.Context, req Request) (string, error) {
	if prvdr.client == nil {
		return "", fmt.Errorf("openai client not configured")
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(prvdr.params.modelOr("gpt-4o-mini")),
		Messages: prvdr.convertMessages(req),
	}

	if prvdr.params.Temperature > 0 {
		params.Temperature = openai.Float(prvdr.params.Temperature)
	}

	if prvdr.params.MaxTokens > 0 {
		params.MaxTokens = openai.Int(prvdr.params.MaxTokens)
	}

	completion, err := prvdr.client.Chat.Completions.New(ctx, params)
	if err != nil {
		log.Error("failed to generate completion", "provider", "openai", "error", err)
		return "", err
	}

	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("OpenAI completion returned no choices")
	}

	return completion.Choices[0].Message.Content, nil
}

func (prvdr *OpenAIProvider) convertMessages(req Request) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, 2)

	if req.System != "" {
		out = append(out, openai.SystemMessage(req.System))
	}

	return append(out, openai.UserMessage(req.Prompt))
}

func WithOpenAIClient(params Params) OpenAIProviderOption {
	return func(prvdr *OpenAIProvider) {
		prvdr.params = params

		key := params.APIKey
		if key == "" {
			key = os.Getenv("OPENAI_API_KEY")
		}

		opts := []option.RequestOption{option.WithAPIKey(key)}

		if params.BaseURL != "" {
			opts = append(opts, option.WithBaseURL(params.BaseURL))
		}

		client := openai.NewClient(opts...)
		prvdr.client = &client
	}
}
