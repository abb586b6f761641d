package provider

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
)

/*
CohereProvider is a provider for the Cohere API.
*/
type CohereProvider struct {
	client *cohereclient.Client
	params Params
}

type CohereProviderOption func(*CohereProvider)

func NewCohereProvider(options ...CohereProviderOption) *CohereProvider {
	prvdr := &CohereProvider{}

	for _, option := range options {
		option(prvdr)
	}

	return prvdr
}

func (prvdr *CohereProvider) Complete(ctx context.Context, req Request) (string, error) {
	if prvdr.client == nil {
		return "", fmt.Errorf("cohere client not configured")
	}

	model := prvdr.params.modelOr("command-r")

	chatReq := &cohere.ChatRequest{
		Model:   &model,
		Message: req.Prompt,
	}

	if req.System != "" {
		preamble := req.System
		chatReq.Preamble = &preamble
	}

	if prvdr.params.Temperature > 0 {
		temperature := prvdr.params.Temperature
		chatReq.Temperature = &temperature
	}

	if prvdr.params.MaxTokens > 0 {
		maxTokens := int(prvdr.params.MaxTokens)
		chatReq.MaxTokens = &maxTokens
	}

	response, err := prvdr.client.Chat(ctx, chatReq)
	if err != nil {
		log.Error("failed to generate completion", "provider", "cohere", "error", err)
		return "", err
	}

	return response.GetText(), nil
}

func WithCohereClient(params Params) CohereProviderOption {
	return func(prvdr *CohereProvider) {
		prvdr.params = params

		key := params.APIKey
		if key == "" {
			key = os.Getenv("COHERE_API_KEY")
		}

		prvdr.client = cohereclient.NewClient(
			cohereclient.WithToken(key),
		)
	}
}
