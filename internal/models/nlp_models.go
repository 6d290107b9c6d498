package models

type Entity struct {
	Text  string `json:"text"`
	Label string `json:"label"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

type TextAnalysisResult struct {
	Text           string             `json:"text"`
	Sentiment      map[string]float64 `json:"sentiment"`
	Entities       []Entity           `json:"entities"`
	Language       string             `json:"language"`
	ModelUsed      string             `json:"model_used"`
	ProcessingTime float64            `json:"processing_time"`
}
