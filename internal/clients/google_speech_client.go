package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"
)

const GOOGLE_SPEECH_BASE_URL = "https://www.google.com/speech-api/v2/recognize"

var (
	googleSpeechInstance *GoogleSpeechClient
	googleSpeechOnce     sync.Once
)

type GoogleSpeechClient struct {
	Client  *http.Client
	apiKey  string
	baseURL string
}

func GetGoogleSpeechClient() *GoogleSpeechClient {
	googleSpeechOnce.Do(func() {
		apiKey := os.Getenv("GOOGLE_SPEECH_API_KEY")
		if apiKey == "" {
			apiKey = os.Getenv("GOOGLE_TTS_API_KEY")
		}
		if apiKey == "" {
			slog.Warn("[GoogleSpeechClient] No GOOGLE_SPEECH_API_KEY in environment, transcription will be rejected")
		}

		baseURL := os.Getenv("GOOGLE_SPEECH_API_URL")
		if baseURL == "" {
			baseURL = GOOGLE_SPEECH_BASE_URL
		}

		slog.Info("[GoogleSpeechClient] Initializing Client",
			slog.String("endpoint", baseURL))
		googleSpeechInstance = &GoogleSpeechClient{
			Client: &http.Client{
				Timeout: 30 * time.Second,
			},
			apiKey:  apiKey,
			baseURL: baseURL,
		}
	})
	return googleSpeechInstance
}

type speechAlternative struct {
	Transcript string  `json:"transcript"`
	Confidence float64 `json:"confidence"`
}

type speechResult struct {
	Alternative []speechAlternative `json:"alternative"`
	Final       bool                `json:"final"`
}

type speechResponse struct {
	Result []speechResult `json:"result"`
}

// Recognize sends PCM WAV audio and returns the highest-confidence
// transcript. The response body is a stream of newline-separated JSON
// objects; the first non-empty result wins.
func (g *GoogleSpeechClient) Recognize(ctx context.Context, audio []byte, sampleRate int, language string) (string, float64, error) {
	params := url.Values{}
	params.Set("client", "chromium")
	params.Set("lang", language)
	params.Set("key", g.apiKey)
	params.Set("pFilter", "0")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.baseURL+"?"+params.Encode(), bytes.NewReader(audio))
	if err != nil {
		return "", 0, fmt.Errorf("[GoogleSpeechClient] failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", fmt.Sprintf("audio/l16; rate=%d", sampleRate))
	req.Header.Set("User-Agent", USER_AGENT)

	start := time.Now()
	resp, err := g.Client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("[GoogleSpeechClient] request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, fmt.Errorf("[GoogleSpeechClient] failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		slog.Error("[GoogleSpeechClient] API error",
			slog.Int("status", resp.StatusCode),
			getPreview(body))
		return "", 0, fmt.Errorf("[GoogleSpeechClient] API returned %d: %s", resp.StatusCode, string(body))
	}

	transcript, confidence, err := parseSpeechResponse(string(body))
	if err != nil {
		return "", 0, err
	}

	slog.Debug("[GoogleSpeechClient] Recognition successful",
		slog.Float64("confidence", confidence),
		slog.Duration("elapsed", time.Since(start)))
	return transcript, confidence, nil
}

func parseSpeechResponse(body string) (string, float64, error) {
	for _, line := range strings.Split(body, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var parsed speechResponse
		if err := json.Unmarshal([]byte(line), &parsed); err != nil {
			return "", 0, fmt.Errorf("[GoogleSpeechClient] failed to unmarshal result line: %w", err)
		}
		if len(parsed.Result) == 0 || len(parsed.Result[0].Alternative) == 0 {
			continue
		}
		best := bestAlternative(parsed.Result[0].Alternative)
		if best.Transcript == "" {
			continue
		}
		// The API omits confidence on some hypotheses.
		if best.Confidence == 0 {
			best.Confidence = 0.5
		}
		return best.Transcript, best.Confidence, nil
	}
	return "", 0, fmt.Errorf("[GoogleSpeechClient] no transcription results in response")
}

func bestAlternative(alternatives []speechAlternative) speechAlternative {
	best := alternatives[0]
	for _, alt := range alternatives[1:] {
		if alt.Confidence > best.Confidence {
			best = alt
		}
	}
	return best
}
