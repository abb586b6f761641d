package provider

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"google.golang.org/genai"
)

/*
GoogleProvider is a provider for the Gemini API.
*/
type GoogleProvider struct {
	client *genai.Client
	params Params
}

type GoogleProviderOption func(*GoogleProvider)

func NewGoogleProvider(options ...GoogleProviderOption) *GoogleProvider {
	prvdr := &GoogleProvider{}

	for _, option := range options {
		option(prvdr)
	}

	return prvdr
}

func (prvdr *GoogleProvider) Complete(ctx context.Context, req Request) (string, error) {
	if prvdr.client == nil {
		return "", fmt.Errorf("google client not configured")
	}

	config := &genai.GenerateContentConfig{}

	if req.System != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.System}}}
	}

	if prvdr.params.Temperature > 0 {
		config.Temperature = genai.Ptr(float32(prvdr.params.Temperature))
	}

	if prvdr.params.MaxTokens > 0 {
		config.MaxOutputTokens = int32(prvdr.params.MaxTokens)
	}

	resp, err := prvdr.client.Models.GenerateContent(
		ctx, prvdr.params.modelOr("gemini-2.0-flash"), genai.Text(req.Prompt), config,
	)
	if err != nil {
		log.Error("failed to generate completion", "provider", "google", "error", err)
		return "", err
	}

	return resp.Text(), nil
}

func WithGoogleClient(params Params) GoogleProviderOption {
	return func(prvdr *GoogleProvider) {
		prvdr.params = params

		key := params.APIKey
		if key == "" {
			key = os.Getenv("GOOGLE_API_KEY")
		}

		client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
			APIKey:  key,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			log.Error("failed to create Google GenAI client", "error", err)
			return
		}

		prvdr.client = client
	}
}
