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

	"github.com/interviewme/interviewme/internal/models"
)

const PERPLEXITY_CHAT_ENDPOINT = "https://api.perplexity.ai/chat/completions"

var (
	perplexityInstance *PerplexityClient
	perplexityOnce     sync.Once
)

type PerplexityClient struct {
	Client  *http.Client
	apiKey  string
	baseURL string
}

func GetPerplexityClient() *PerplexityClient {
	perplexityOnce.Do(func() {
		apiKey := os.Getenv("PERPLEXITY_API_KEY")
		if apiKey == "" {
			slog.Warn("[PerplexityClient] No PERPLEXITY_API_KEY in environment, requests will be rejected")
		}

		baseURL := os.Getenv("PERPLEXITY_API_URL")
		if baseURL == "" {
			baseURL = PERPLEXITY_CHAT_ENDPOINT
		}

		slog.Info("[PerplexityClient] Initializing Client",
			slog.String("endpoint", baseURL))
		perplexityInstance = &PerplexityClient{
			Client: &http.Client{
				Timeout: 60 * time.Second,
			},
			apiKey:  apiKey,
			baseURL: baseURL,
		}
	})
	return perplexityInstance
}

// ChatCompletion sends a chat-completions request and returns the content of
// the first choice.
func (p *PerplexityClient) ChatCompletion(ctx context.Context, req models.PerplexityRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("[PerplexityClient] failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("[PerplexityClient] failed to build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", USER_AGENT)

	start := time.Now()
	resp, err := p.Client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("[PerplexityClient] request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("[PerplexityClient] failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		slog.Error("[PerplexityClient] API error",
			slog.Int("status", resp.StatusCode),
			getPreview(respBody))
		return "", fmt.Errorf("[PerplexityClient] API returned %d: %s", resp.StatusCode, string(respBody))
	}

	var result models.PerplexityResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("[PerplexityClient] failed to unmarshal response: %w", err)
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("[PerplexityClient] response contained no choices")
	}

	slog.Debug("[PerplexityClient] Chat completion successful",
		slog.String("model", req.Model),
		slog.Duration("elapsed", time.Since(start)))

	return result.Choices[0].Message.Content, nil
}
