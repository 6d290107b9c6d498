package textgen

import (
	"context"
	"strings"

	"github.com/interviewme/interviewme/config"
	"github.com/interviewme/interviewme/internal/clients"
	"github.com/interviewme/interviewme/internal/models"
)

type HuggingFaceProvider struct {
	client *clients.HuggingFaceClient
	model  string
}

func NewHuggingFaceProvider() *HuggingFaceProvider {
	return &HuggingFaceProvider{
		client: clients.GetHuggingFaceClient(),
		model:  config.GetEnv("HUGGINGFACE_MODEL", DEFAULT_HUGGINGFACE_MODEL),
	}
}

func (p *HuggingFaceProvider) Name() string { return PROVIDER_HUGGINGFACE }

func (p *HuggingFaceProvider) GenerateChat(ctx context.Context, messages []models.ChatMessage, opts models.GenerationOptions) (string, error) {
	model := opts.Model
	if model == "" {
		model = p.model
	}

	return p.client.GenerateText(model, models.HFTextGenerationRequest{
		Inputs: FlattenChat(messages),
		Parameters: models.HFGenerationParameters{
			Temperature:    opts.Temperature,
			MaxNewTokens:   opts.MaxTokens,
			ReturnFullText: false,
		},
	})
}

// FlattenChat renders chat messages into the instruct-style prompt the
// Inference API expects, ending with an open assistant turn.
func FlattenChat(messages []models.ChatMessage) string {
	var sb strings.Builder
	for _, msg := range messages {
		switch strings.ToLower(msg.Role) {
		case "system":
			sb.WriteString("<|system|>\n" + msg.Content + "\n")
		case "user":
			sb.WriteString("<|user|>\n" + msg.Content + "\n")
		case "assistant":
			sb.WriteString("<|assistant|>\n" + msg.Content + "\n")
		}
	}
	sb.WriteString("<|assistant|>\n")
	return sb.String()
}
