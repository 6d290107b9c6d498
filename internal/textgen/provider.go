package textgen

import (
	"context"
	"fmt"

	"github.com/interviewme/interviewme/internal/models"
)

const (
	PROVIDER_PERPLEXITY  = "perplexity"
	PROVIDER_HUGGINGFACE = "huggingface"
	PROVIDER_OPENAI      = "openai"

	DEFAULT_PERPLEXITY_MODEL  = "pplx-70b-online"
	DEFAULT_HUGGINGFACE_MODEL = "mistralai/Mixtral-8x7B-Instruct-v0.1"
	DEFAULT_OPENAI_MODEL      = "gpt-4o-mini"
)

// Provider generates chat completions against one upstream LLM API.
type Provider interface {
	Name() string
	GenerateChat(ctx context.Context, messages []models.ChatMessage, opts models.GenerationOptions) (string, error)
}

func NewProvider(name string) (Provider, error) {
	switch name {
	case PROVIDER_PERPLEXITY:
		return NewPerplexityProvider(), nil
	case PROVIDER_HUGGINGFACE:
		return NewHuggingFaceProvider(), nil
	case PROVIDER_OPENAI:
		return NewOpenAIProvider(), nil
	default:
		return nil, fmt.Errorf("[TextGen] unsupported provider: %s", name)
	}
}

// EstimateTokens is a rough token count used for logging and budget checks.
func EstimateTokens(text string) int {
	return len(text)/4 + 1
}
