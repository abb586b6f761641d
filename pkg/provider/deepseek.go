package provider

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	deepseek "github.com/cohesion-org/deepseek-go"
)

/*
DeepseekProvider is a provider for the Deepseek API.
*/
type DeepseekProvider struct {
	client *deepseek.Client
	params Params
}

type DeepseekProviderOption func(*DeepseekProvider)

func NewDeepseekProvider(options ...DeepseekProviderOption) *DeepseekProvider {
	prvdr := &DeepseekProvider{}

	for _, option := range options {
		option(prvdr)
	}

	return prvdr
}

func (prvdr *DeepseekProvider) Complete(ctx context.Context, req Request) (string, error) {
	if prvdr.client == nil {
		return "", fmt.Errorf("deepseek client not configured")
	}

	messages := make([]deepseek.ChatCompletionMessage, 0, 2)

	if req.System != "" {
		messages = append(messages, deepseek.ChatCompletionMessage{
			Role:    deepseek.ChatMessageRoleSystem,
			Content: req.System,
		})
	}

	messages = append(messages, deepseek.ChatCompletionMessage{
		Role:    deepseek.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	response, err := prvdr.client.CreateChatCompletion(ctx, &deepseek.ChatCompletionRequest{
		Model:       prvdr.params.modelOr(deepseek.DeepSeekChat),
		Messages:    messages,
		Temperature: float32(prvdr.params.Temperature),
		MaxTokens:   int(prvdr.params.MaxTokens),
	})
	if err != nil {
		log.Error("failed to generate completion", "provider", "deepseek", "error", err)
		return "", err
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("Deepseek completion returned no choices")
	}

	return response.Choices[0].Message.Content, nil
}

func WithDeepseekClient(params Params) DeepseekProviderOption {
	return func(prvdr *DeepseekProvider) {
		prvdr.params = params

		key := params.APIKey
		if key == "" {
			key = os.Getenv("DEEPSEEK_API_KEY")
		}

		prvdr.client = deepseek.NewClient(key)
	}
}
