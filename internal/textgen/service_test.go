package textgen

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/interviewme/interviewme/internal/models"
)

var (
	handlerMu   sync.Mutex
	pplxHandler http.HandlerFunc
	hfHandler   http.HandlerFunc
)

func setPerplexityHandler(fn http.HandlerFunc) {
	handlerMu.Lock()
	defer handlerMu.Unlock()
	pplxHandler = fn
}

func setHuggingFaceHandler(fn http.HandlerFunc) {
	handlerMu.Lock()
	defer handlerMu.Unlock()
	hfHandler = fn
}

func TestMain(m *testing.M) {
	pplx := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerMu.Lock()
		fn := pplxHandler
		handlerMu.Unlock()
		if fn == nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fn(w, r)
	}))
	defer pplx.Close()

	hf := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerMu.Lock()
		fn := hfHandler
		handlerMu.Unlock()
		if fn == nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fn(w, r)
	}))
	defer hf.Close()

	os.Setenv("PERPLEXITY_API_URL", pplx.URL)
	os.Setenv("PERPLEXITY_API_KEY", "test-key")
	os.Setenv("HF_INFERENCE_URL", hf.URL+"/models/")
	os.Setenv("HUGGINGFACE_API_KEY", "test-key")

	os.Exit(m.Run())
}

func perplexityReplies(content string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, _ := json.Marshal(models.ChatMessage{Role: "assistant", Content: content})
		fmt.Fprintf(w, `{"id":"resp-1","model":"pplx-70b-online","choices":[{"index":0,"finish_reason":"stop","message":%s}]}`, body)
	}
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(NewPerplexityProvider(), NewHuggingFaceProvider())
}

func TestGenerateChatUsesPrimary(t *testing.T) {
	var gotReq models.PerplexityRequest
	setPerplexityHandler(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		perplexityReplies("Tell me about goroutines.")(w, r)
	})

	svc := newTestService(t)
	result, err := svc.GenerateChat(context.Background(),
		[]models.ChatMessage{{Role: "user", Content: "hi"}}, models.GenerationOptions{})

	require.NoError(t, err)
	assert.Equal(t, "Tell me about goroutines.", result)
	assert.Equal(t, float32(0.7), gotReq.Temperature)
	assert.Equal(t, 1000, gotReq.MaxTokens)
	assert.Equal(t, "pplx-70b-online", gotReq.Model)
}

func TestGenerateChatFallsBack(t *testing.T) {
	setPerplexityHandler(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadRequest)
	})
	setHuggingFaceHandler(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]models.HFTextGenerationResponse{
			{GeneratedText: "fallback answer"},
		})
	})

	svc := newTestService(t)
	result, err := svc.GenerateChat(context.Background(),
		[]models.ChatMessage{{Role: "user", Content: "hi"}}, models.GenerationOptions{})

	require.NoError(t, err)
	assert.Equal(t, "fallback answer", result)

	// The primary stays configured; the next request goes back to it.
	assert.Equal(t, PROVIDER_PERPLEXITY, svc.PrimaryProvider())
	setPerplexityHandler(perplexityReplies("primary recovered"))

	result, err = svc.GenerateChat(context.Background(),
		[]models.ChatMessage{{Role: "user", Content: "hi again"}}, models.GenerationOptions{})
	require.NoError(t, err)
	assert.Equal(t, "primary recovered", result)
}

func TestGenerateChatAllProvidersFail(t *testing.T) {
	setPerplexityHandler(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	})
	setHuggingFaceHandler(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "also nope", http.StatusBadRequest)
	})

	svc := newTestService(t)
	_, err := svc.GenerateChat(context.Background(),
		[]models.ChatMessage{{Role: "user", Content: "hi"}}, models.GenerationOptions{})

	assert.Error(t, err)
}

func TestGenerateCompletionWrapsPrompt(t *testing.T) {
	var gotReq models.PerplexityRequest
	setPerplexityHandler(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		perplexityReplies("ok")(w, r)
	})

	svc := newTestService(t)
	_, err := svc.GenerateCompletion(context.Background(), "Explain REST.", models.GenerationOptions{})

	require.NoError(t, err)
	require.Len(t, gotReq.Messages, 1)
	assert.Equal(t, "user", gotReq.Messages[0].Role)
	assert.Equal(t, "Explain REST.", gotReq.Messages[0].Content)
}

func TestEvaluateAnswerParsesJSON(t *testing.T) {
	evaluation := `{"score": 8, "feedback": "Solid answer.", "strengths": ["clarity"], "weaknesses": ["depth"]}`
	setPerplexityHandler(perplexityReplies(fmt.Sprintf("```json\n%s\n```", evaluation)))

	svc := newTestService(t)
	result, err := svc.EvaluateAnswer(context.Background(), "What is a mutex?", "A lock.", "Go")

	require.NoError(t, err)
	assert.Equal(t, 8.0, result.Score)
	assert.Equal(t, "Solid answer.", result.Feedback)
	assert.Equal(t, []string{"clarity"}, result.Strengths)
	assert.Equal(t, []string{"depth"}, result.Weaknesses)
}

func TestEvaluateAnswerDegradesOnBadJSON(t *testing.T) {
	setPerplexityHandler(perplexityReplies("The answer was decent overall."))

	svc := newTestService(t)
	result, err := svc.EvaluateAnswer(context.Background(), "Q", "A", "Go")

	require.NoError(t, err)
	assert.Equal(t, 0.0, result.Score)
	assert.Equal(t, "The answer was decent overall.", result.Feedback)
	assert.Empty(t, result.Strengths)
	assert.Empty(t, result.Weaknesses)
}

func TestGenerateInterviewQuestionDefaultsDifficulty(t *testing.T) {
	var gotReq models.PerplexityRequest
	setPerplexityHandler(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		perplexityReplies("What is a channel?")(w, r)
	})

	svc := newTestService(t)
	question, err := svc.GenerateInterviewQuestion(context.Background(), "Go concurrency", "")

	require.NoError(t, err)
	assert.Equal(t, "What is a channel?", question)
	require.Len(t, gotReq.Messages, 2)
	assert.Contains(t, gotReq.Messages[1].Content, "medium difficulty")
}

func TestFlattenChat(t *testing.T) {
	prompt := FlattenChat([]models.ChatMessage{
		{Role: "system", Content: "Be brief."},
		{Role: "user", Content: "Hello"},
		{Role: "assistant", Content: "Hi"},
	})

	assert.Equal(t, "<|system|>\nBe brief.\n<|user|>\nHello\n<|assistant|>\nHi\n<|assistant|>\n", prompt)
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 1, EstimateTokens(""))
	assert.Equal(t, 3, EstimateTokens("12345678"))
	assert.Equal(t, 26, EstimateTokens(string(make([]byte, 100))))
}
