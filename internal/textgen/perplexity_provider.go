package textgen

import (
	"context"

	"github.com/interviewme/interviewme/config"
	"github.com/interviewme/interviewme/internal/clients"
	"github.com/interviewme/interviewme/internal/models"
)

type PerplexityProvider struct {
	client *clients.PerplexityClient
	model  string
}

func NewPerplexityProvider() *PerplexityProvider {
	return &PerplexityProvider{
		client: clients.GetPerplexityClient(),
		model:  config.GetEnv("PERPLEXITY_MODEL", DEFAULT_PERPLEXITY_MODEL),
	}
}

func (p *PerplexityProvider) Name() string { return PROVIDER_PERPLEXITY }

func (p *PerplexityProvider) GenerateChat(ctx context.Context, messages []models.ChatMessage, opts models.GenerationOptions) (string, error) {
	model := opts.Model
	if model == "" {
		model = p.model
	}

	return p.client.ChatCompletion(ctx, models.PerplexityRequest{
		Model:       model,
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	})
}
