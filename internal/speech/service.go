package speech

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/interviewme/interviewme/internal/clients"
	"github.com/interviewme/interviewme/internal/models"
)

const DEFAULT_SAMPLE_RATE = 16000

// ErrInvalidAudio marks input-side failures (empty, undecodable or
// unsupported audio) so callers can tell them apart from recognizer errors.
var ErrInvalidAudio = errors.New("[Speech] invalid audio")

type Service struct {
	client *clients.GoogleSpeechClient
}

func NewService() *Service {
	return &Service{client: clients.GetGoogleSpeechClient()}
}

// Transcribe converts recorded audio into text. WAV input is validated and
// its real sample rate used; FLAC passes through at the default rate.
func (s *Service) Transcribe(ctx context.Context, audio []byte, contentType, language string) (*models.Transcript, error) {
	if len(audio) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidAudio)
	}
	if language == "" {
		language = "en-US"
	}

	sampleRate := DEFAULT_SAMPLE_RATE
	var duration float64

	switch {
	case strings.Contains(contentType, "wav"), isWAVMagic(audio):
		info, err := ValidateWAV(audio)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAudio, err)
		}
		sampleRate = info.SampleRate
		duration = info.Duration
	case strings.Contains(contentType, "flac"):
		// FLAC goes to the recognizer as-is.
	default:
		return nil, fmt.Errorf("%w: unsupported content type %s", ErrInvalidAudio, contentType)
	}

	transcript, confidence, err := s.client.Recognize(ctx, audio, sampleRate, language)
	if err != nil {
		return nil, err
	}

	slog.Info("[Speech] Transcription complete",
		slog.Float64("confidence", confidence),
		slog.Int("sample_rate", sampleRate))

	return &models.Transcript{
		Transcript:      transcript,
		Confidence:      confidence,
		Language:        language,
		DurationSeconds: duration,
	}, nil
}

func isWAVMagic(data []byte) bool {
	return len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE"
}
