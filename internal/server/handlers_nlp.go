package server

import (
	"encoding/json"
	"net/http"
	"time"
)

type nlpAnalysisRequest struct {
	Text         string `json:"text" validate:"required"`
	AnalysisType string `json:"analysis_type" validate:"required"`
	Model        string `json:"model"`
}

type nlpAnalysisResponse struct {
	Analysis       map[string]any `json:"analysis"`
	ModelUsed      string         `json:"model_used"`
	ProcessingTime float64        `json:"processing_time"`
}

func (s *Server) handleNLPAnalyze(w http.ResponseWriter, r *http.Request) {
	var req nlpAnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "text and analysis_type are required")
		return
	}

	result, err := s.deps.Analyzer.Analyze(r.Context(), req.Text)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "analysis failed: "+err.Error())
		return
	}

	var analysis map[string]any
	switch req.AnalysisType {
	case "sentiment":
		analysis = map[string]any{"sentiment": result.Sentiment}
	case "entity":
		analysis = map[string]any{"entities": result.Entities}
	case "language":
		analysis = map[string]any{"language": result.Language}
	case "intent":
		analysis = map[string]any{"intent": "not_implemented"}
	case "summarization":
		analysis = map[string]any{"summary": "not_implemented"}
	default:
		writeJSONError(w, http.StatusBadRequest, "unsupported analysis type: "+req.AnalysisType)
		return
	}

	writeJSON(w, http.StatusOK, nlpAnalysisResponse{
		Analysis:       analysis,
		ModelUsed:      result.ModelUsed,
		ProcessingTime: result.ProcessingTime,
	})
}

type emotionAnalysisRequest struct {
	Text string `json:"text" validate:"required"`
}

type emotionAnalysisResponse struct {
	Emotions       map[string]float64 `json:"emotions"`
	Source         string             `json:"source"`
	ProcessingTime float64            `json:"processing_time"`
}

func (s *Server) handleEmotionAnalyze(w http.ResponseWriter, r *http.Request) {
	var req emotionAnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "text is required")
		return
	}

	start := time.Now()
	emotions, source := s.deps.Analyzer.AnalyzeEmotion(r.Context(), req.Text)

	writeJSON(w, http.StatusOK, emotionAnalysisResponse{
		Emotions:       emotions,
		Source:         source,
		ProcessingTime: time.Since(start).Seconds(),
	})
}
