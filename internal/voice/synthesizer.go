package voice

import (
	"context"
	"fmt"

	"github.com/interviewme/interviewme/internal/clients"
	"github.com/interviewme/interviewme/internal/models"
)

// Synthesizer converts text into MP3 audio with a given voice profile.
type Synthesizer interface {
	Name() string
	Synthesize(ctx context.Context, text string, params models.VoiceParams) ([]byte, error)
	ListVoices(ctx context.Context, languageCode string) ([]models.Voice, error)
}

// StreamingSynthesizer marks backends with a dedicated streaming endpoint
// for audio that is pushed onward over WebSocket.
type StreamingSynthesizer interface {
	SynthesizeForStream(ctx context.Context, text string, params models.VoiceParams) ([]byte, error)
}

type googleSynthesizer struct {
	client *clients.GoogleTTSClient
}

func NewGoogleSynthesizer() Synthesizer {
	return &googleSynthesizer{client: clients.GetGoogleTTSClient()}
}

func (g *googleSynthesizer) Name() string { return "google" }

func (g *googleSynthesizer) Synthesize(ctx context.Context, text string, params models.VoiceParams) ([]byte, error) {
	return g.client.Synthesize(ctx, text, params)
}

func (g *googleSynthesizer) ListVoices(ctx context.Context, languageCode string) ([]models.Voice, error) {
	return g.client.ListVoices(ctx, languageCode)
}

// elevenLabsSynthesizer treats the VoiceName parameter as a persona name
// and maps it onto an ElevenLabs voice ID. Rate and pitch knobs are not
// supported by that API and are ignored.
type elevenLabsSynthesizer struct {
	client *clients.ElevenLabsClient
}

func NewElevenLabsSynthesizer() Synthesizer {
	return &elevenLabsSynthesizer{client: clients.GetElevenLabsClient()}
}

func (e *elevenLabsSynthesizer) Name() string { return "elevenlabs" }

func (e *elevenLabsSynthesizer) Synthesize(ctx context.Context, text string, params models.VoiceParams) ([]byte, error) {
	voiceID := clients.VoiceIDForPersona(params.VoiceName)
	return e.client.Synthesize(ctx, text, voiceID)
}

func (e *elevenLabsSynthesizer) SynthesizeForStream(ctx context.Context, text string, params models.VoiceParams) ([]byte, error) {
	voiceID := clients.VoiceIDForPersona(params.VoiceName)
	return e.client.SynthesizeStream(ctx, text, voiceID)
}

func (e *elevenLabsSynthesizer) ListVoices(ctx context.Context, languageCode string) ([]models.Voice, error) {
	voices := make([]models.Voice, 0, len(clients.ElevenLabsPersonaVoices))
	for persona := range clients.ElevenLabsPersonaVoices {
		voices = append(voices, models.Voice{
			Name:          persona,
			LanguageCodes: []string{"en-US"},
		})
	}
	return voices, nil
}

func NewSynthesizer(provider string) (Synthesizer, error) {
	switch provider {
	case "google":
		return NewGoogleSynthesizer(), nil
	case "elevenlabs":
		return NewElevenLabsSynthesizer(), nil
	default:
		return nil, fmt.Errorf("[Voice] unsupported voice provider: %s", provider)
	}
}
