package voice

import (
	"context"
	"log/slog"

	"github.com/interviewme/interviewme/config"
	"github.com/interviewme/interviewme/internal/clients"
	"github.com/interviewme/interviewme/internal/models"
)

// Service fronts a synthesizer backend with the Valkey audio cache. When
// Valkey is not initialized every request goes straight to the backend.
type Service struct {
	backend  Synthesizer
	defaults models.VoiceParams
}

func NewService(backend Synthesizer) *Service {
	settings := config.GetSettings()
	return &Service{
		backend: backend,
		defaults: models.VoiceParams{
			LanguageCode: settings.Voice.DefaultLanguageCode,
			VoiceName:    settings.Voice.DefaultVoiceName,
			Gender:       "FEMALE",
			SpeakingRate: 1.0,
			Pitch:        0.0,
		},
	}
}

func NewServiceFromSettings() (*Service, error) {
	backend, err := NewSynthesizer(config.GetSettings().Voice.Provider)
	if err != nil {
		return nil, err
	}
	return NewService(backend), nil
}

func (s *Service) Backend() string { return s.backend.Name() }

// Synthesize returns MP3 audio for text, consulting the cache first. The
// second return reports whether the audio came from the cache.
func (s *Service) Synthesize(ctx context.Context, text string, params models.VoiceParams) ([]byte, bool, error) {
	return s.synthesize(ctx, text, params, false)
}

// SynthesizeFresh skips the cache read but still stores the result, so a
// caller can force regeneration without poisoning later lookups.
func (s *Service) SynthesizeFresh(ctx context.Context, text string, params models.VoiceParams) ([]byte, error) {
	audio, _, err := s.synthesize(ctx, text, params, true)
	return audio, err
}

func (s *Service) synthesize(ctx context.Context, text string, params models.VoiceParams, skipCache bool) ([]byte, bool, error) {
	params = s.applyDefaults(params)
	key := CacheKey(text, params)

	if !skipCache && clients.ValkeyInitialized() {
		if audio, ok := clients.GetValkeyClient().GetCachedAudio(ctx, key); ok {
			slog.Debug("[Voice] Cache hit", slog.String("key", key))
			return audio, true, nil
		}
	}

	audio, err := s.backend.Synthesize(ctx, text, params)
	if err != nil {
		return nil, false, err
	}

	if clients.ValkeyInitialized() {
		if err := clients.GetValkeyClient().StoreCachedAudio(ctx, key, audio); err != nil {
			slog.Warn("[Voice] Failed to cache audio",
				slog.String("key", key),
				slog.String("error", err.Error()))
		}
	}

	return audio, false, nil
}

// SynthesizeForStream prefers a backend's streaming endpoint when it has
// one. Streamed audio bypasses the cache; it is produced to be forwarded,
// not replayed.
func (s *Service) SynthesizeForStream(ctx context.Context, text string, params models.VoiceParams) ([]byte, error) {
	params = s.applyDefaults(params)
	if streamer, ok := s.backend.(StreamingSynthesizer); ok {
		return streamer.SynthesizeForStream(ctx, text, params)
	}
	return s.backend.Synthesize(ctx, text, params)
}

// SynthesizeInterviewerResponse applies the persona voice profile, with
// optional thinking sounds for natural pacing.
func (s *Service) SynthesizeInterviewerResponse(ctx context.Context, text, persona string, naturalSounds bool) ([]byte, bool, error) {
	if naturalSounds {
		text = AddThinkingSounds(text)
	}
	return s.Synthesize(ctx, text, PersonaParams(persona))
}

func (s *Service) ListVoices(ctx context.Context, languageCode string) ([]models.Voice, error) {
	return s.backend.ListVoices(ctx, languageCode)
}

func (s *Service) applyDefaults(params models.VoiceParams) models.VoiceParams {
	if params.LanguageCode == "" {
		params.LanguageCode = s.defaults.LanguageCode
	}
	if params.VoiceName == "" {
		params.VoiceName = s.defaults.VoiceName
	}
	if params.Gender == "" {
		params.Gender = s.defaults.Gender
	}
	if params.SpeakingRate == 0 {
		params.SpeakingRate = s.defaults.SpeakingRate
	}
	return params
}
