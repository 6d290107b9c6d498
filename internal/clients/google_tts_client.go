package clients

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/interviewme/interviewme/internal/models"
)

const GOOGLE_TTS_BASE_URL = "https://texttospeech.googleapis.com/v1"

var (
	googleTTSInstance *GoogleTTSClient
	googleTTSOnce     sync.Once
)

type GoogleTTSClient struct {
	Client  *http.Client
	apiKey  string
	baseURL string
}

func GetGoogleTTSClient() *GoogleTTSClient {
	googleTTSOnce.Do(func() {
		apiKey := os.Getenv("GOOGLE_TTS_API_KEY")
		if apiKey == "" {
			slog.Warn("[GoogleTTSClient] No GOOGLE_TTS_API_KEY in environment, synthesis will be rejected")
		}

		baseURL := os.Getenv("GOOGLE_TTS_API_URL")
		if baseURL == "" {
			baseURL = GOOGLE_TTS_BASE_URL
		}

		slog.Info("[GoogleTTSClient] Initializing Client",
			slog.String("endpoint", baseURL))
		googleTTSInstance = &GoogleTTSClient{
			Client: &http.Client{
				Timeout: 30 * time.Second,
			},
			apiKey:  apiKey,
			baseURL: baseURL,
		}
	})
	return googleTTSInstance
}

type googleSynthesizeRequest struct {
	Input struct {
		Text string `json:"text"`
	} `json:"input"`
	Voice struct {
		LanguageCode string `json:"languageCode"`
		Name         string `json:"name"`
		SsmlGender   string `json:"ssmlGender"`
	} `json:"voice"`
	AudioConfig struct {
		AudioEncoding string  `json:"audioEncoding"`
		SpeakingRate  float64 `json:"speakingRate"`
		Pitch         float64 `json:"pitch"`
		VolumeGainDB  float64 `json:"volumeGainDb"`
	} `json:"audioConfig"`
}

type googleSynthesizeResponse struct {
	AudioContent string `json:"audioContent"`
}

type googleVoicesResponse struct {
	Voices []struct {
		Name                   string   `json:"name"`
		SsmlGender             string   `json:"ssmlGender"`
		LanguageCodes          []string `json:"languageCodes"`
		NaturalSampleRateHertz int      `json:"naturalSampleRateHertz"`
	} `json:"voices"`
}

// Synthesize converts text to MP3 audio with the given voice parameters.
func (g *GoogleTTSClient) Synthesize(ctx context.Context, text string, params models.VoiceParams) ([]byte, error) {
	var req googleSynthesizeRequest
	req.Input.Text = text
	req.Voice.LanguageCode = params.LanguageCode
	req.Voice.Name = params.VoiceName
	req.Voice.SsmlGender = params.Gender
	req.AudioConfig.AudioEncoding = "MP3"
	req.AudioConfig.SpeakingRate = params.SpeakingRate
	req.AudioConfig.Pitch = params.Pitch
	req.AudioConfig.VolumeGainDB = params.VolumeGainDB

	var resp googleSynthesizeResponse
	if err := g.postJSON(ctx, "/text:synthesize", req, &resp); err != nil {
		return nil, err
	}

	audio, err := base64.StdEncoding.DecodeString(resp.AudioContent)
	if err != nil {
		return nil, fmt.Errorf("[GoogleTTSClient] failed to decode audio content: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("[GoogleTTSClient] synthesis returned empty audio")
	}

	return audio, nil
}

// ListVoices returns the available voices, optionally filtered by language
// code prefix.
func (g *GoogleTTSClient) ListVoices(ctx context.Context, languageCode string) ([]models.Voice, error) {
	endpoint := g.baseURL + "/voices?key=" + url.QueryEscape(g.apiKey)
	if languageCode != "" {
		endpoint += "&languageCode=" + url.QueryEscape(languageCode)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("[GoogleTTSClient] failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", USER_AGENT)

	resp, err := g.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("[GoogleTTSClient] voices request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("[GoogleTTSClient] failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("[GoogleTTSClient] voices returned %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed googleVoicesResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("[GoogleTTSClient] failed to unmarshal voices: %w", err)
	}

	voices := make([]models.Voice, 0, len(parsed.Voices))
	for _, v := range parsed.Voices {
		voices = append(voices, models.Voice{
			Name:                   v.Name,
			Gender:                 v.SsmlGender,
			LanguageCodes:          v.LanguageCodes,
			NaturalSampleRateHertz: v.NaturalSampleRateHertz,
		})
	}
	return voices, nil
}

func (g *GoogleTTSClient) postJSON(ctx context.Context, path string, input interface{}, output interface{}) error {
	body, err := json.Marshal(input)
	if err != nil {
		return fmt.Errorf("[GoogleTTSClient] failed to marshal input: %w", err)
	}

	endpoint := g.baseURL + path + "?key=" + url.QueryEscape(g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("[GoogleTTSClient] failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", USER_AGENT)

	start := time.Now()
	resp, err := g.Client.Do(req)
	if err != nil {
		return fmt.Errorf("[GoogleTTSClient] request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("[GoogleTTSClient] failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		slog.Error("[GoogleTTSClient] API error",
			slog.Int("status", resp.StatusCode),
			getPreview(respBody))
		return fmt.Errorf("[GoogleTTSClient] API returned %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, output); err != nil {
		return fmt.Errorf("[GoogleTTSClient] failed to unmarshal response: %w", err)
	}

	slog.Debug("[GoogleTTSClient] Request successful",
		slog.String("path", path),
		slog.Duration("elapsed", time.Since(start)))
	return nil
}
