package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/interviewme/interviewme/internal/db"
	"github.com/interviewme/interviewme/internal/models"
	"github.com/interviewme/interviewme/internal/nlp"
	"github.com/interviewme/interviewme/internal/speech"
	"github.com/interviewme/interviewme/internal/textgen"
	"github.com/interviewme/interviewme/internal/voice"
)

var (
	handlerMu       sync.Mutex
	pplxHandler     http.HandlerFunc
	hfHandler       http.HandlerFunc
	analyzerHandler http.HandlerFunc

	ts *httptest.Server
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

func setAnalyzerHandler(fn http.HandlerFunc) {
	handlerMu.Lock()
	defer handlerMu.Unlock()
	analyzerHandler = fn
}

func swappable(fn *http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		handlerMu.Lock()
		current := *fn
		handlerMu.Unlock()
		if current == nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		current(w, r)
	}
}

// dynamoMock is an in-memory stand-in for DynamoDB Local. It understands
// just the operations the server issues: PutItem, GetItem and Scan.
type dynamoMock struct {
	mu    sync.Mutex
	items map[string]json.RawMessage
}

func (d *dynamoMock) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	w.Header().Set("Content-Type", "application/x-amz-json-1.0")

	target := r.Header.Get("X-Amz-Target")
	switch {
	case strings.HasSuffix(target, ".PutItem"):
		var req struct {
			Item map[string]json.RawMessage `json:"Item"`
		}
		_ = json.Unmarshal(body, &req)
		itemJSON, _ := json.Marshal(req.Item)
		d.mu.Lock()
		d.items[attrS(req.Item["session_id"])] = itemJSON
		d.mu.Unlock()
		_, _ = w.Write([]byte("{}"))
	case strings.HasSuffix(target, ".GetItem"):
		var req struct {
			Key map[string]json.RawMessage `json:"Key"`
		}
		_ = json.Unmarshal(body, &req)
		d.mu.Lock()
		item, ok := d.items[attrS(req.Key["session_id"])]
		d.mu.Unlock()
		if !ok {
			_, _ = w.Write([]byte("{}"))
			return
		}
		fmt.Fprintf(w, `{"Item":%s}`, item)
	case strings.HasSuffix(target, ".Scan"):
		_, _ = w.Write([]byte(`{"Items":[],"Count":0,"ScannedCount":0}`))
	default:
		_, _ = w.Write([]byte("{}"))
	}
}

func attrS(raw json.RawMessage) string {
	var attr struct {
		S string `json:"S"`
	}
	_ = json.Unmarshal(raw, &attr)
	return attr.S
}

func defaultAnalyzerHandler(w http.ResponseWriter, r *http.Request) {
	var batch models.EmotionAnalysisBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	resp := make(models.EmotionAnalysisBatchResponse, 0, len(batch))
	for _, item := range batch {
		resp = append(resp, models.EmotionAnalysisResponse{
			AnswerID: item.AnswerID,
			Emotions: map[string]float64{
				"happy": 0.6, "neutral": 0.2, "sad": 0.1, "angry": 0.05, "fearful": 0.05,
			},
			SentimentScore: 0.8,
			SentimentLabel: "positive",
			Confidence:     0.9,
		})
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func TestMain(m *testing.M) {
	pplx := httptest.NewServer(swappable(&pplxHandler))
	defer pplx.Close()

	hf := httptest.NewServer(swappable(&hfHandler))
	defer hf.Close()

	analyzer := httptest.NewServer(swappable(&analyzerHandler))
	defer analyzer.Close()
	setAnalyzerHandler(defaultAnalyzerHandler)

	tts := http.NewServeMux()
	tts.HandleFunc("POST /text:synthesize", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"audioContent":%q}`, base64.StdEncoding.EncodeToString([]byte("MP3DATA")))
	})
	tts.HandleFunc("GET /voices", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"voices":[{"name":"en-US-Neural2-F","ssmlGender":"FEMALE","languageCodes":["en-US"],"naturalSampleRateHertz":24000}]}`))
	})
	ttsSrv := httptest.NewServer(tts)
	defer ttsSrv.Close()

	speechSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"result":[]}`)
		fmt.Fprintln(w, `{"result":[{"alternative":[{"transcript":"hello world","confidence":0.92}],"final":true}],"result_index":0}`)
	}))
	defer speechSrv.Close()

	dynamo := httptest.NewServer(&dynamoMock{items: map[string]json.RawMessage{}})
	defer dynamo.Close()

	os.Setenv("PERPLEXITY_API_URL", pplx.URL)
	os.Setenv("PERPLEXITY_API_KEY", "test-key")
	os.Setenv("HF_INFERENCE_URL", hf.URL+"/models/")
	os.Setenv("HF_ANALYZER_URL", analyzer.URL+"/analyze")
	os.Setenv("HUGGINGFACE_API_KEY", "test-key")
	os.Setenv("GOOGLE_TTS_API_URL", ttsSrv.URL)
	os.Setenv("GOOGLE_TTS_API_KEY", "test-key")
	os.Setenv("GOOGLE_SPEECH_API_URL", speechSrv.URL)
	os.Setenv("GOOGLE_SPEECH_API_KEY", "test-key")
	os.Setenv("AWS_ENDPOINT", dynamo.URL)
	os.Setenv("AWS_REGION", "us-west-2")
	os.Setenv("AWS_ACCESS_KEY_ID", "test")
	os.Setenv("AWS_SECRET_ACCESS_KEY", "test")
	os.Setenv("JWT_SECRET_KEY", "test-signing-key")

	db.InitDynamoDB()

	analyzerHealthy := &atomic.Bool{}
	analyzerHealthy.Store(true)
	ttsHealthy := &atomic.Bool{}
	ttsHealthy.Store(true)

	srv := New(Deps{
		TextGen:         textgen.NewService(textgen.NewPerplexityProvider(), textgen.NewHuggingFaceProvider()),
		Voice:           voice.NewService(voice.NewGoogleSynthesizer()),
		Speech:          speech.NewService(),
		Analyzer:        nlp.NewAnalyzer(),
		AnalyzerHealthy: analyzerHealthy,
		TTSHealthy:      ttsHealthy,
	})
	ts = httptest.NewServer(srv.Handler())
	defer ts.Close()

	os.Exit(m.Run())
}

func perplexityReplies(content string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, _ := json.Marshal(models.ChatMessage{Role: "assistant", Content: content})
		fmt.Fprintf(w, `{"id":"resp-1","model":"pplx-70b-online","choices":[{"index":0,"finish_reason":"stop","message":%s}]}`, body)
	}
}

func getToken(t *testing.T) string {
	t.Helper()
	resp, err := http.PostForm(ts.URL+"/api/auth/token",
		url.Values{"username": {"admin"}, "password": {"password"}})
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body tokenResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotEmpty(t, body.AccessToken)
	return body.AccessToken
}

func doJSON(t *testing.T, method, path, token string, payload any) *http.Response {
	t.Helper()
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ts.URL+path, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestTokenIssuedForDemoUser(t *testing.T) {
	resp, err := http.PostForm(ts.URL+"/api/auth/token",
		url.Values{"username": {"admin"}, "password": {"password"}})
	require.NoError(t, err)

	var body tokenResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "bearer", body.TokenType)
	assert.Equal(t, 3600, body.ExpiresIn)
	assert.NotEmpty(t, body.AccessToken)
}

func TestTokenRejectsBadCredentials(t *testing.T) {
	resp, err := http.PostForm(ts.URL+"/api/auth/token",
		url.Values{"username": {"admin"}, "password": {"nope"}})
	require.NoError(t, err)

	var body errorResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Bearer", resp.Header.Get("WWW-Authenticate"))
	assert.Equal(t, http.StatusUnauthorized, body.Code)
	assert.NotZero(t, body.Timestamp)
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	resp := doJSON(t, http.MethodPost, "/api/generate", "", map[string]string{"prompt": "hi"})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Bearer", resp.Header.Get("WWW-Authenticate"))
}

func TestGenerateEndpoint(t *testing.T) {
	setPerplexityHandler(perplexityReplies("Goroutines are lightweight threads."))
	token := getToken(t)

	resp := doJSON(t, http.MethodPost, "/api/generate", token, map[string]string{"prompt": "Explain goroutines"})

	var body generateResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Goroutines are lightweight threads.", body.Text)
	assert.Equal(t, "perplexity", body.Provider)
	assert.Greater(t, body.EstimatedTokens, 0)

	assert.NotEmpty(t, resp.Header.Get("X-Processing-Time"))
	assert.Equal(t, "60", resp.Header.Get("X-Rate-Limit-Limit"))
	assert.Equal(t, "60", resp.Header.Get("X-Rate-Limit-Remaining"))
	assert.NotEmpty(t, resp.Header.Get("X-Rate-Limit-Reset"))
}

func TestGenerateRequiresPromptOrMessages(t *testing.T) {
	token := getToken(t)
	resp := doJSON(t, http.MethodPost, "/api/generate", token, map[string]string{})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGenerateReturns502WhenAllProvidersFail(t *testing.T) {
	down := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusBadRequest) }
	setPerplexityHandler(down)
	setHuggingFaceHandler(down)
	t.Cleanup(func() { setPerplexityHandler(nil); setHuggingFaceHandler(nil) })

	token := getToken(t)
	resp := doJSON(t, http.MethodPost, "/api/generate", token, map[string]string{"prompt": "hi"})

	var body errorResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, http.StatusBadGateway, body.Code)
}

func TestNLPAnalyzeSentiment(t *testing.T) {
	token := getToken(t)
	resp := doJSON(t, http.MethodPost, "/api/nlp/analyze", token,
		map[string]string{"text": "I love writing Go services", "analysis_type": "sentiment"})

	var body nlpAnalysisResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "huggingface", body.ModelUsed)

	sentiment, ok := body.Analysis["sentiment"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 0.9, sentiment["positive"], 0.0001)
}

func TestNLPAnalyzeFallsBackToVADER(t *testing.T) {
	setAnalyzerHandler(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	t.Cleanup(func() { setAnalyzerHandler(defaultAnalyzerHandler) })

	token := getToken(t)
	resp := doJSON(t, http.MethodPost, "/api/nlp/analyze", token,
		map[string]string{"text": "This is absolutely wonderful!", "analysis_type": "sentiment"})

	var body nlpAnalysisResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "govader", body.ModelUsed)
}

func TestNLPAnalyzeUnknownType(t *testing.T) {
	token := getToken(t)
	resp := doJSON(t, http.MethodPost, "/api/nlp/analyze", token,
		map[string]string{"text": "hello", "analysis_type": "translation"})

	var body errorResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body.Detail, "translation")
}

func TestEmotionAnalyze(t *testing.T) {
	token := getToken(t)
	resp := doJSON(t, http.MethodPost, "/api/emotion/analyze", token,
		map[string]string{"text": "I am thrilled about this opportunity"})

	var body emotionAnalysisResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "huggingface", body.Source)
	assert.Len(t, body.Emotions, len(models.EmotionClasses))

	var sum float64
	for _, v := range body.Emotions {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 0.0001)
}

func TestSynthesizeReturnsAudio(t *testing.T) {
	token := getToken(t)
	resp := doJSON(t, http.MethodPost, "/api/speech/synthesize", token,
		map[string]string{"text": "Welcome to the interview"})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "audio/mpeg", resp.Header.Get("Content-Type"))
	assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))

	audio, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "MP3DATA", string(audio))
}

func TestSynthesizeRequiresText(t *testing.T) {
	token := getToken(t)
	resp := doJSON(t, http.MethodPost, "/api/speech/synthesize", token, map[string]string{})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTranscribeWAV(t *testing.T) {
	token := getToken(t)

	req, err := http.NewRequest(http.MethodPost,
		ts.URL+"/api/speech/transcribe?language=en-US", bytes.NewReader(encodeTestWAV(t)))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "audio/wav")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	var body models.Transcript
	decodeBody(t, resp, &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "hello world", body.Transcript)
	assert.InDelta(t, 0.92, body.Confidence, 0.0001)
	assert.Equal(t, "en-US", body.Language)
}

func TestTranscribeRejectsUnsupportedType(t *testing.T) {
	token := getToken(t)

	req, err := http.NewRequest(http.MethodPost,
		ts.URL+"/api/speech/transcribe", strings.NewReader("not audio at all"))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	var body errorResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListVoices(t *testing.T) {
	token := getToken(t)
	resp := doJSON(t, http.MethodGet, "/api/speech/voices?language_code=en-US", token, nil)

	var body struct {
		Voices []models.Voice `json:"voices"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, body.Voices)
	assert.Equal(t, "en-US-Neural2-F", body.Voices[0].Name)
}

func TestInterviewSessionLifecycle(t *testing.T) {
	setPerplexityHandler(perplexityReplies("Describe a race condition you have debugged."))
	token := getToken(t)

	resp := doJSON(t, http.MethodPost, "/api/interview/sessions", token,
		map[string]string{"topic": "Go concurrency", "difficulty": "hard", "persona": "technical"})

	var session models.InterviewSession
	decodeBody(t, resp, &session)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, session.SessionID)
	assert.Equal(t, "Go concurrency", session.Topic)
	require.Len(t, session.Questions, 1)
	assert.Equal(t, "Describe a race condition you have debugged.", session.Questions[0])

	resp = doJSON(t, http.MethodGet, "/api/interview/sessions/"+session.SessionID, token, nil)
	var fetched models.InterviewSession
	decodeBody(t, resp, &fetched)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, session.SessionID, fetched.SessionID)
	assert.Equal(t, "hard", fetched.Difficulty)

	resp = doJSON(t, http.MethodGet, "/api/interview/sessions/no-such-session", token, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	evaluation := `{"score":8.5,"feedback":"Solid answer.","strengths":["clarity"],"weaknesses":["depth"]}`
	setPerplexityHandler(perplexityReplies(evaluation))

	resp = doJSON(t, http.MethodPost, "/api/interview/sessions/"+session.SessionID+"/answers", token,
		map[string]string{"question": session.Questions[0], "answer": "I used the race detector."})

	var answer submitAnswerResponse
	decodeBody(t, resp, &answer)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, answer.AnswerID)
	require.NotNil(t, answer.Evaluation)
	assert.InDelta(t, 8.5, answer.Evaluation.Score, 0.0001)
	assert.Equal(t, "Solid answer.", answer.Evaluation.Feedback)
	assert.NotEmpty(t, answer.FollowUp)

	resp = doJSON(t, http.MethodGet, "/api/interview/sessions/"+session.SessionID+"/results", token, nil)
	var results struct {
		SessionID string `json:"session_id"`
		Count     int    `json:"count"`
		Results   []any  `json:"results"`
	}
	decodeBody(t, resp, &results)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, session.SessionID, results.SessionID)
	assert.Equal(t, 0, results.Count)
}

func TestSubmitAnswerValidatesBody(t *testing.T) {
	setPerplexityHandler(perplexityReplies("What is a mutex?"))
	token := getToken(t)

	resp := doJSON(t, http.MethodPost, "/api/interview/sessions", token,
		map[string]string{"topic": "Go basics"})
	var session models.InterviewSession
	decodeBody(t, resp, &session)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, "/api/interview/sessions/"+session.SessionID+"/answers", token,
		map[string]string{"question": "What is a mutex?"})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListSessions(t *testing.T) {
	token := getToken(t)
	resp := doJSON(t, http.MethodGet, "/api/interview/sessions", token, nil)

	var body struct {
		Sessions []models.InterviewSession `json:"sessions"`
		Count    int                       `json:"count"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body.Sessions, body.Count)
}

func TestCreateSessionRequiresTopic(t *testing.T) {
	token := getToken(t)
	resp := doJSON(t, http.MethodPost, "/api/interview/sessions", token, map[string]string{})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealthIsOpen(t *testing.T) {
	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)

	var body healthResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body.Status)
	assert.Contains(t, body.Components, "cache")
	assert.True(t, body.Components["analyzer"])
	assert.True(t, body.Components["tts"])
	assert.NotZero(t, body.Timestamp)
}

func TestCORSPreflight(t *testing.T) {
	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/generate", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "POST")
}

func encodeTestWAV(t *testing.T) []byte {
	t.Helper()

	path := filepath.Join(t.TempDir(), "sample.wav")
	f, err := os.Create(path)
	require.NoError(t, err)

	encoder := wav.NewEncoder(f, 16000, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: 16000},
		Data:           make([]int, 1600),
		SourceBitDepth: 16,
	}
	require.NoError(t, encoder.Write(buf))
	require.NoError(t, encoder.Close())
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}
