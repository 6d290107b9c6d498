package textgen

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/interviewme/interviewme/config"
	"github.com/interviewme/interviewme/internal/models"
)

// Service routes generation requests to a primary provider with a one-shot
// fallback. The configured primary never changes: a fallback success still
// leaves the next request on the primary.
type Service struct {
	primary  Provider
	fallback Provider
	defaults models.GenerationOptions
}

func NewService(primary, fallback Provider) *Service {
	settings := config.GetSettings()
	return &Service{
		primary:  primary,
		fallback: fallback,
		defaults: models.GenerationOptions{
			Temperature: settings.TextGen.Temperature,
			MaxTokens:   settings.TextGen.MaxTokens,
		},
	}
}

// NewServiceFromSettings builds the provider pair named in settings.yaml.
func NewServiceFromSettings() (*Service, error) {
	settings := config.GetSettings()

	primary, err := NewProvider(settings.TextGen.Provider)
	if err != nil {
		return nil, err
	}

	var fallback Provider
	if settings.TextGen.FallbackProvider != "" && settings.TextGen.FallbackProvider != settings.TextGen.Provider {
		fallback, err = NewProvider(settings.TextGen.FallbackProvider)
		if err != nil {
			return nil, err
		}
	}

	return NewService(primary, fallback), nil
}

func (s *Service) PrimaryProvider() string {
	return s.primary.Name()
}

// GenerateCompletion wraps a bare prompt as a single user message.
func (s *Service) GenerateCompletion(ctx context.Context, prompt string, opts models.GenerationOptions) (string, error) {
	return s.GenerateChat(ctx, []models.ChatMessage{{Role: "user", Content: prompt}}, opts)
}

func (s *Service) GenerateChat(ctx context.Context, messages []models.ChatMessage, opts models.GenerationOptions) (string, error) {
	opts = s.applyDefaults(opts)

	result, err := s.primary.GenerateChat(ctx, messages, opts)
	if err == nil {
		return result, nil
	}

	if s.fallback == nil {
		return "", err
	}

	slog.Warn("[TextGen] Primary provider failed, trying fallback",
		slog.String("primary", s.primary.Name()),
		slog.String("fallback", s.fallback.Name()),
		slog.String("error", err.Error()))

	result, fallbackErr := s.fallback.GenerateChat(ctx, messages, opts)
	if fallbackErr != nil {
		slog.Error("[TextGen] Fallback provider also failed",
			slog.String("fallback", s.fallback.Name()),
			slog.String("error", fallbackErr.Error()))
		return "", fmt.Errorf("[TextGen] all providers failed: %w", err)
	}

	return result, nil
}

func (s *Service) applyDefaults(opts models.GenerationOptions) models.GenerationOptions {
	if opts.Temperature == 0 {
		opts.Temperature = s.defaults.Temperature
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = s.defaults.MaxTokens
	}
	return opts
}
