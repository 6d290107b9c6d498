package consumers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/interviewme/interviewme/internal/models"
)

func TestMain(m *testing.M) {
	analyzer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var batch models.EmotionAnalysisBatchRequest
		if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		// Answer the first item only, forcing the per-item fallback for
		// the rest of the batch.
		resp := models.EmotionAnalysisBatchResponse{{
			AnswerID:       batch[0].AnswerID,
			Emotions:       map[string]float64{"happy": 0.7, "neutral": 0.3},
			SentimentScore: 0.6,
			SentimentLabel: "positive",
			Confidence:     0.85,
		}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer analyzer.Close()

	os.Setenv("HF_ANALYZER_URL", analyzer.URL+"/analyze")
	os.Setenv("HUGGINGFACE_API_KEY", "test-key")

	os.Exit(m.Run())
}

func TestAnalyzeBatchMixesRemoteAndFallback(t *testing.T) {
	batch := []models.AnswerAnalysisInput{
		{AnswerID: "a-1", SessionID: "s-1", Text: "I am excited about this role"},
		{AnswerID: "a-2", SessionID: "s-1", Text: "That question was terrible and unfair"},
	}

	results := analyzeBatch(batch, true)
	require.Len(t, results, 2)

	assert.Equal(t, "huggingface", results[0].AnalysisSource)
	assert.Equal(t, "positive", results[0].SentimentLabel)
	assert.InDelta(t, 0.85, results[0].Confidence, 0.0001)

	assert.Equal(t, "vader", results[1].AnalysisSource)
	assert.Equal(t, "negative", results[1].SentimentLabel)

	for _, result := range results {
		var sum float64
		for _, v := range result.Emotions {
			sum += v
		}
		assert.InDelta(t, 1.0, sum, 0.0001, "emotion vector for %s", result.AnswerID)
	}
}

func TestAnalyzeBatchSkipsRemoteWhenUnhealthy(t *testing.T) {
	batch := []models.AnswerAnalysisInput{
		{AnswerID: "a-3", SessionID: "s-2", Text: "I love solving hard problems"},
	}

	results := analyzeBatch(batch, false)
	require.Len(t, results, 1)
	assert.Equal(t, "vader", results[0].AnalysisSource)
	assert.Equal(t, "positive", results[0].SentimentLabel)
}

func TestVaderResultNeutralConfidence(t *testing.T) {
	result := vaderResult(models.AnswerAnalysisInput{AnswerID: "a-4", Text: "The meeting is at noon."})

	assert.Equal(t, "vader", result.AnalysisSource)
	assert.Equal(t, "neutral", result.SentimentLabel)
	assert.InDelta(t, 1.0, result.Confidence, 0.25)
}
