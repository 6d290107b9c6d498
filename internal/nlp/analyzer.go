package nlp

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/abadojack/whatlanggo"
	"github.com/google/uuid"
	"github.com/interviewme/interviewme/internal/clients"
	"github.com/interviewme/interviewme/internal/models"
)

// Analyzer combines local NLP (language, entities, VADER) with the remote
// emotion/sentiment classifier.
type Analyzer struct {
	hf *clients.HuggingFaceClient
}

func NewAnalyzer() *Analyzer {
	return &Analyzer{hf: clients.GetHuggingFaceClient()}
}

// Analyze produces the full analysis for a text: language, entities and
// sentiment. Remote classifier failures degrade to VADER rather than
// erroring out.
func (a *Analyzer) Analyze(ctx context.Context, text string) (*models.TextAnalysisResult, error) {
	start := time.Now()

	info := whatlanggo.Detect(text)
	language := info.Lang.Iso6391()

	entities := ExtractEntities(text)

	sentiment, modelUsed := a.classifySentiment(text)

	return &models.TextAnalysisResult{
		Text:           text,
		Sentiment:      sentiment,
		Entities:       entities,
		Language:       language,
		ModelUsed:      modelUsed,
		ProcessingTime: time.Since(start).Seconds(),
	}, nil
}

// AnalyzeEmotion returns the five-class emotion vector for a text along
// with the source that produced it ("huggingface" or "vader").
func (a *Analyzer) AnalyzeEmotion(ctx context.Context, text string) (map[string]float64, string) {
	batch := models.EmotionAnalysisBatchRequest{
		{AnswerID: uuid.NewString(), Text: text},
	}

	resp, err := a.hf.GetBatchedEmotionAnalysis(batch)
	if err != nil || len(resp) == 0 {
		slog.Warn("[Analyzer] Emotion classifier unavailable, falling back to VADER",
			slog.String("error", errString(err)))
		return EmotionsFromVADER(text), "vader"
	}

	return NormalizeEmotions(resp[0].Emotions), "huggingface"
}

func (a *Analyzer) classifySentiment(text string) (map[string]float64, string) {
	batch := models.EmotionAnalysisBatchRequest{
		{AnswerID: uuid.NewString(), Text: text},
	}

	resp, err := a.hf.GetBatchedEmotionAnalysis(batch)
	if err == nil && len(resp) > 0 && resp[0].SentimentLabel != "" {
		return map[string]float64{resp[0].SentimentLabel: resp[0].Confidence}, "huggingface"
	}

	if err != nil {
		slog.Warn("[Analyzer] Sentiment classifier unavailable, falling back to VADER",
			slog.String("error", err.Error()))
	}

	score, label := AnalyzeWithVADER(text)
	confidence := math.Abs(score)
	if label == "neutral" {
		confidence = 1 - math.Abs(score)
	}
	return map[string]float64{label: confidence}, "govader"
}

func errString(err error) string {
	if err == nil {
		return "empty response"
	}
	return err.Error()
}
