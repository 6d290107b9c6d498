package models

type Transcript struct {
	Transcript      string  `json:"transcript"`
	Confidence      float64 `json:"confidence"`
	Language        string  `json:"language"`
	DurationSeconds float64 `json:"duration_seconds"`
}
