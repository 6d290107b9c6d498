package models

import "time"

// EmotionClasses is the fixed label set of the emotion classifier. Every
// emotion vector carries exactly these five classes.
var EmotionClasses = []string{"angry", "fearful", "happy", "neutral", "sad"}

type AnswerAnalysisInput struct {
	AnswerID    string    `json:"answer_id"`
	SessionID   string    `json:"session_id"`
	Question    string    `json:"question,omitempty"`
	Text        string    `json:"text"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type AnswerAnalysisResult struct {
	AnswerAnalysisInput
	Emotions       map[string]float64 `json:"emotions"`
	SentimentScore float64            `json:"sentiment_score"`
	SentimentLabel string             `json:"sentiment_label"`
	Confidence     float64            `json:"confidence"`
	AnalysisSource string             `json:"analysis_source"`
}
