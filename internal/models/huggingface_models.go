package models

type (
	EmotionAnalysisBatchRequest []EmotionAnalysisRequest
	EmotionAnalysisRequest      struct {
		AnswerID string `json:"answer_id"`
		Text     string `json:"text"`
	}
)

type (
	EmotionAnalysisBatchResponse []EmotionAnalysisResponse
	EmotionAnalysisResponse      struct {
		AnswerID       string             `json:"answer_id"`
		Emotions       map[string]float64 `json:"emotions"`
		SentimentScore float64            `json:"sentiment_score"`
		SentimentLabel string             `json:"sentiment_label"`
		Confidence     float64            `json:"confidence"`
	}
)

// HFTextGenerationRequest is the Inference API payload for text generation.
type HFTextGenerationRequest struct {
	Inputs     string                 `json:"inputs"`
	Parameters HFGenerationParameters `json:"parameters"`
}

type HFGenerationParameters struct {
	Temperature    float32 `json:"temperature"`
	MaxNewTokens   int     `json:"max_new_tokens"`
	ReturnFullText bool    `json:"return_full_text"`
}

type HFTextGenerationResponse struct {
	GeneratedText string `json:"generated_text"`
}
