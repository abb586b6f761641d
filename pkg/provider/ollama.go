package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/ollama/ollama/api"
)

/*
OllamaProvider is a provider for a local or remote Ollama server.
*/
type OllamaProvider struct {
	client *api.Client
	params Params
}

type OllamaProviderOption func(*OllamaProvider)

func NewOllamaProvider(options ...OllamaProviderOption) *OllamaProvider {
	prvdr := &OllamaProvider{}

	for _, option := range options {
		option(prvdr)
	}

	return prvdr
}

func (prvdr *OllamaProvider) Complete(ctx context.Context, req Request) (string, error) {
	if prvdr.client == nil {
		return "", fmt.Errorf("ollama client not configured")
	}

	stream := false

	opts := map[string]any{}

	if prvdr.params.Temperature > 0 {
		opts["temperature"] = prvdr.params.Temperature
	}

	if prvdr.params.MaxTokens > 0 {
		opts["num_predict"] = prvdr.params.MaxTokens
	}

	chatReq := &api.ChatRequest{
		Model:    prvdr.params.modelOr("mistral"),
		Messages: prvdr.convertMessages(req),
		Stream:   &stream,
		Options:  opts,
	}

	out := &strings.Builder{}

	respFunc := func(resp api.ChatResponse) error {
		out.WriteString(resp.Message.Content)
		return nil
	}

	if err := prvdr.client.Chat(ctx, chatReq, respFunc); err != nil {
		log.Error("failed to generate completion", "provider", "ollama", "error", err)
		return "", err
	}

	return out.String(), nil
}

func (prvdr *OllamaProvider) convertMessages(req Request) []api.Message {
	out := make([]api.Message, 0, 2)

	if req.System != "" {
		out = append(out, api.Message{Role: "system", Content: req.System})
	}

	return append(out, api.Message{Role: "user", Content: req.Prompt})
}

/*
WithOllamaClient connects to params.BaseURL when set, otherwise to
OLLAMA_HOST (or the local default).
*/
func WithOllamaClient(params Params) OllamaProviderOption {
	return func(prvdr *OllamaProvider) {
		prvdr.params = params

		if params.BaseURL != "" {
			base, err := url.Parse(params.BaseURL)
			if err != nil {
				log.Error("invalid Ollama base URL", "url", params.BaseURL, "error", err)
				return
			}

			prvdr.client = api.NewClient(base, http.DefaultClient)
			return
		}

		client, err := api.ClientFromEnvironment()
		if err != nil {
			log.Error("failed to create Ollama client", "error", err)
			return
		}

		prvdr.client = client
	}
}
