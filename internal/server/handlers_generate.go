package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/interviewme/interviewme/internal/models"
	"github.com/interviewme/interviewme/internal/textgen"
)

type generateRequest struct {
	Prompt      string               `json:"prompt"`
	Messages    []models.ChatMessage `json:"messages"`
	Model       string               `json:"model"`
	Temperature float32              `json:"temperature"`
	MaxTokens   int                  `json:"max_tokens"`
}

type generateResponse struct {
	Text            string  `json:"text"`
	Provider        string  `json:"provider"`
	EstimatedTokens int     `json:"estimated_tokens"`
	ProcessingTime  float64 `json:"processing_time"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.Prompt == "" && len(req.Messages) == 0 {
		writeJSONError(w, http.StatusBadRequest, "prompt or messages is required")
		return
	}

	opts := models.GenerationOptions{
		Model:       req.Model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	start := time.Now()
	var (
		text string
		err  error
	)
	if len(req.Messages) > 0 {
		text, err = s.deps.TextGen.GenerateChat(r.Context(), req.Messages, opts)
	} else {
		text, err = s.deps.TextGen.GenerateCompletion(r.Context(), req.Prompt, opts)
	}
	if err != nil {
		writeJSONError(w, http.StatusBadGateway, "text generation failed: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, generateResponse{
		Text:            text,
		Provider:        s.deps.TextGen.PrimaryProvider(),
		EstimatedTokens: textgen.EstimateTokens(text),
		ProcessingTime:  time.Since(start).Seconds(),
	})
}
