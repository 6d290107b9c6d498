package models

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type GenerationOptions struct {
	Model       string  `json:"model,omitempty"`
	Temperature float32 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
}

// AnswerEvaluation is the structured verdict the model returns for a
// candidate answer. When the model response cannot be parsed as JSON the
// evaluation degrades to Score 0 with the raw text in Feedback.
type AnswerEvaluation struct {
	Score      float64  `json:"score"`
	Feedback   string   `json:"feedback"`
	Strengths  []string `json:"strengths"`
	Weaknesses []string `json:"weaknesses"`
}
