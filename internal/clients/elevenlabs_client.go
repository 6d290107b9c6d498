package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"
)

const ELEVENLABS_BASE_URL = "https://api.elevenlabs.io/v1"

// Voice IDs from the ElevenLabs prebuilt voice library, keyed by persona.
var ElevenLabsPersonaVoices = map[string]string{
	"conversational_ai": "21m00Tcm4TlvDq8ikWAM",
	"professional":      "EXAVITQu4vr4xnSDxMaL",
	"friendly":          "ThT5KcBeYPX3keUQqHPh",
	"technical":         "VR6AewLTigWG4xSOukaG",
	"narration":         "pNInz6obpgDQGcFmaJgB",
	"custom":            "yoZ06aMxZJJ28mfd3POQ",
}

var (
	elevenLabsInstance *ElevenLabsClient
	elevenLabsOnce     sync.Once
)

type ElevenLabsClient struct {
	Client  *http.Client
	apiKey  string
	baseURL string
}

func GetElevenLabsClient() *ElevenLabsClient {
	elevenLabsOnce.Do(func() {
		apiKey := os.Getenv("ELEVENLABS_API_KEY")
		if apiKey == "" {
			slog.Warn("[ElevenLabsClient] No ELEVENLABS_API_KEY in environment, synthesis will be rejected")
		}

		baseURL := os.Getenv("ELEVENLABS_API_URL")
		if baseURL == "" {
			baseURL = ELEVENLABS_BASE_URL
		}

		slog.Info("[ElevenLabsClient] Initializing Client",
			slog.String("endpoint", baseURL))
		elevenLabsInstance = &ElevenLabsClient{
			Client: &http.Client{
				Timeout: 60 * time.Second,
			},
			apiKey:  apiKey,
			baseURL: baseURL,
		}
	})
	return elevenLabsInstance
}

// VoiceIDForPersona maps a persona name onto an ElevenLabs voice ID,
// defaulting to the conversational voice for unknown personas.
func VoiceIDForPersona(persona string) string {
	if id, ok := ElevenLabsPersonaVoices[persona]; ok {
		return id
	}
	return ElevenLabsPersonaVoices["conversational_ai"]
}

type elevenLabsSynthesizeRequest struct {
	Text          string                 `json:"text"`
	ModelID       string                 `json:"model_id"`
	VoiceSettings map[string]interface{} `json:"voice_settings,omitempty"`
}

// Synthesize converts text to MP3 audio with the given voice ID.
func (e *ElevenLabsClient) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	return e.synthesize(ctx, text, voiceID, "/text-to-speech/"+voiceID)
}

// SynthesizeStream uses the streaming endpoint; the full body is still
// buffered so callers see the same contract as Synthesize.
func (e *ElevenLabsClient) SynthesizeStream(ctx context.Context, text, voiceID string) ([]byte, error) {
	return e.synthesize(ctx, text, voiceID, "/text-to-speech/"+voiceID+"/stream")
}

func (e *ElevenLabsClient) synthesize(ctx context.Context, text, voiceID, path string) ([]byte, error) {
	body, err := json.Marshal(elevenLabsSynthesizeRequest{
		Text:    text,
		ModelID: "eleven_monolingual_v1",
		VoiceSettings: map[string]interface{}{
			"stability":        0.5,
			"similarity_boost": 0.75,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("[ElevenLabsClient] failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("[ElevenLabsClient] failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("xi-api-key", e.apiKey)
	req.Header.Set("User-Agent", USER_AGENT)

	start := time.Now()
	resp, err := e.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("[ElevenLabsClient] request failed: %w", err)
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("[ElevenLabsClient] failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		slog.Error("[ElevenLabsClient] API error",
			slog.Int("status", resp.StatusCode),
			slog.String("voice_id", voiceID),
			getPreview(audio))
		return nil, fmt.Errorf("[ElevenLabsClient] API returned %d: %s", resp.StatusCode, string(audio))
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("[ElevenLabsClient] synthesis returned empty audio")
	}

	slog.Debug("[ElevenLabsClient] Synthesis successful",
		slog.String("voice_id", voiceID),
		slog.Int("bytes", len(audio)),
		slog.Duration("elapsed", time.Since(start)))
	return audio, nil
}
