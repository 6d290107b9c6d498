package clients

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/interviewme/interviewme/internal/models"
)

const (
	HF_EMOTION_ANALYSIS_ENDPOINT = "https://interviewme-emotion-analyzer.hf.space/analyze_batch"
	HF_INFERENCE_BASE_URL        = "https://api-inference.huggingface.co/models/"
)

var (
	huggingFaceInstance *HuggingFaceClient
	huggingFaceOnce     sync.Once
)

func analyzerEndpoint() string {
	if url := os.Getenv("HF_ANALYZER_URL"); url != "" {
		return url
	}
	return HF_EMOTION_ANALYSIS_ENDPOINT
}

func inferenceBaseURL() string {
	if url := os.Getenv("HF_INFERENCE_URL"); url != "" {
		return url
	}
	return HF_INFERENCE_BASE_URL
}

type HuggingFaceClient struct {
	Client *http.Client
}

func GetHuggingFaceClient() *HuggingFaceClient {
	var timeout time.Duration
	env := os.Getenv("APP_ENV")
	if env == "production" {
		timeout = 10 * time.Second
	} else {
		timeout = 60 * time.Second
	}
	huggingFaceOnce.Do(func() {
		slog.Info("[HuggingFaceClient] Initializing Client",
			slog.Duration("timeout", timeout),
			slog.String("env", env))
		huggingFaceInstance = &HuggingFaceClient{
			Client: &http.Client{
				Timeout: timeout,
			},
		}
	})
	return huggingFaceInstance
}

func (h *HuggingFaceClient) DoWithRetry(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	var err error
	backoff := INITIAL_BACKOFF

	for attempt := 0; attempt < MAX_RETRIES; attempt++ {
		resp, err = h.Client.Do(req)
		if err == nil && resp.StatusCode < 500 {
			return resp, nil
		}

		if resp != nil {
			resp.Body.Close()
		}

		slog.Warn("[HuggingFaceClient] Request failed, will retry",
			slog.Int("attempt", attempt+1),
			slog.String("error", errMsg(err, resp)))

		time.Sleep(backoff)
		backoff *= 2
	}

	return resp, err
}

// GetBatchedEmotionAnalysis sends a batch of answers to the hosted emotion
// classifier and returns per-answer emotion vectors and sentiment scores.
func (h *HuggingFaceClient) GetBatchedEmotionAnalysis(input models.EmotionAnalysisBatchRequest) (models.EmotionAnalysisBatchResponse, error) {
	var result models.EmotionAnalysisBatchResponse
	slog.Info("[HuggingFaceClient] Requesting emotion analysis from classifier service")
	start := time.Now()

	err := h.postJSON(analyzerEndpoint(), input, &result)
	if err != nil {
		slog.Error("[HuggingFaceClient] Emotion analysis request failed",
			slog.Duration("elapsed", time.Since(start)))
		return result, err
	}

	slog.Info("[HuggingFaceClient] Emotion analysis request successful",
		slog.Duration("elapsed", time.Since(start)))
	return result, nil
}

// GenerateText runs a text-generation model on the Inference API and returns
// the generated continuation.
func (h *HuggingFaceClient) GenerateText(model string, input models.HFTextGenerationRequest) (string, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return "", fmt.Errorf("failed to marshal input: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, inferenceBaseURL()+model, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+os.Getenv("HUGGINGFACE_API_KEY"))
	req.Header.Set("User-Agent", USER_AGENT)

	resp, err := h.DoWithRetry(req)
	if err != nil {
		return "", fmt.Errorf("request failed after retries: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("huggingface inference returned %d: %s", resp.StatusCode, string(respBody))
	}

	// The Inference API answers with a single-element array for text
	// generation models, and a bare object for some hosted endpoints.
	var results []models.HFTextGenerationResponse
	if err := json.Unmarshal(respBody, &results); err == nil && len(results) > 0 {
		return results[0].GeneratedText, nil
	}

	var single models.HFTextGenerationResponse
	if err := json.Unmarshal(respBody, &single); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return single.GeneratedText, nil
}

// AnalyzerHealthCheck pings the emotion classifier. Used by the health
// monitors to flip consumers to the local VADER fallback.
func (h *HuggingFaceClient) AnalyzerHealthCheck() bool {
	req, err := http.NewRequest(http.MethodGet, analyzerEndpoint()+"/health", nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", USER_AGENT)

	resp, err := h.Client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// helper function for posting data to the hosted AI services
func (h *HuggingFaceClient) postJSON(endpoint string, input interface{}, output interface{}) error {
	body, err := json.Marshal(input)
	if err != nil {
		slog.Error("[HuggingFaceClient] Failed to marshal input",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to marshal input: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		slog.Error("[HuggingFaceClient] Failed to build request",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", USER_AGENT)

	resp, err := h.DoWithRetry(req)
	if err != nil {
		slog.Error("[HuggingFaceClient] Failed request after retries",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()))

		return fmt.Errorf("request failed after retries: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Error("[HuggingFaceClient] Failed to read response",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to read response: %w", err)
	}

	if err := json.Unmarshal(respBody, output); err != nil {
		slog.Error("[HuggingFaceClient] Failed to unmarshal response",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()),
			getPreview(respBody),
			slog.Int("raw_response_length", len(string(respBody))))

		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}

func getPreview(respBody []byte) slog.Attr {
	raw := string(respBody)
	if len(raw) > 50 {
		raw = raw[:50]
	}
	return slog.String("raw_response", raw)
}

func errMsg(err error, resp *http.Response) string {
	if err != nil {
		return err.Error()
	}
	if resp != nil {
		return fmt.Sprintf("status code %d", resp.StatusCode)
	}
	return "unknown error"
}
