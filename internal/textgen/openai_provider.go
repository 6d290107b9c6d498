package textgen

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/interviewme/interviewme/config"
	"github.com/interviewme/interviewme/internal/clients"
	"github.com/interviewme/interviewme/internal/models"
)

type OpenAIProvider struct {
	client *clients.OpenAIClient
	model  string
}

func NewOpenAIProvider() *OpenAIProvider {
	return &OpenAIProvider{
		client: clients.GetOpenAIClient(),
		model:  config.GetEnv("OPENAI_MODEL", DEFAULT_OPENAI_MODEL),
	}
}

func (p *OpenAIProvider) Name() string { return PROVIDER_OPENAI }

func (p *OpenAIProvider) GenerateChat(ctx context.Context, messages []models.ChatMessage, opts models.GenerationOptions) (string, error) {
	model := opts.Model
	if model == "" {
		model = p.model
	}

	chatMessages := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		chatMessages = append(chatMessages, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	resp, err := p.client.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    chatMessages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("[OpenAIProvider] chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("[OpenAIProvider] response contained no choices")
	}

	return resp.Choices[0].Message.Content, nil
}
