// Package llm is the chat-model boundary of the pipeline. The image
// description and bibliographic metadata stages talk to whatever
// OpenAI-compatible endpoint the run is configured with through the narrow
// Client interface here.
package llm

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
)

// Client is the one call the model-backed stages make: text (or text plus an
// image) in, completion out. Stage tests stub it; production runs use
// OpenAIProvider.
type Client interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ModelLister reports the models an endpoint serves. The driver asserts for
// it at startup in verbose mode to confirm the endpoint is reachable before
// documents start flowing.
type ModelLister interface {
	ListModels(ctx context.Context) (openai.ModelsList, error)
}

// OpenAIProvider backs Client and ModelLister with *openai.Client.
type OpenAIProvider struct {
	Inner *openai.Client
}

func (p *OpenAIProvider) CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	return p.Inner.CreateChatCompletion(ctx, request)
}

func (p *OpenAIProvider) ListModels(ctx context.Context) (openai.ModelsList, error) {
	return p.Inner.ListModels(ctx)
}

// New builds a provider against an OpenAI-compatible endpoint. An empty
// baseURL selects the default OpenAI endpoint.
func New(baseURL, apiKey string) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIProvider{Inner: openai.NewClientWithConfig(cfg)}
}
