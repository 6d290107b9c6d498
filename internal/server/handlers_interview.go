package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/interviewme/interviewme/internal/clients/kafka_client"
	"github.com/interviewme/interviewme/internal/db"
	"github.com/interviewme/interviewme/internal/models"
	"github.com/interviewme/interviewme/internal/utils"
)

type createSessionRequest struct {
	Topic      string `json:"topic" validate:"required"`
	Difficulty string `json:"difficulty"`
	Persona    string `json:"persona"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "topic is required")
		return
	}
	if req.Difficulty == "" {
		req.Difficulty = "medium"
	}
	if req.Persona == "" {
		req.Persona = "professional"
	}

	question, err := s.deps.TextGen.GenerateInterviewQuestion(r.Context(), req.Topic, req.Difficulty)
	if err != nil {
		writeJSONError(w, http.StatusBadGateway, "failed to generate opening question: "+err.Error())
		return
	}

	session := models.InterviewSession{
		SessionID:  uuid.NewString(),
		Topic:      req.Topic,
		Difficulty: req.Difficulty,
		Persona:    req.Persona,
		Questions:  []string{question},
		CreatedAt:  time.Now().UTC(),
	}

	if err := db.StoreSession(r.Context(), session); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to store session: "+err.Error())
		return
	}

	slog.Info("[Server] Interview session created",
		slog.String("session_id", session.SessionID),
		slog.String("topic", session.Topic))

	writeJSON(w, http.StatusCreated, session)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := db.ListSessions(r.Context())
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to list sessions: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := db.GetSession(r.Context(), r.PathValue("id"))
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to load session: "+err.Error())
		return
	}
	if session == nil {
		writeJSONError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, session)
}

type submitAnswerRequest struct {
	Question string `json:"question" validate:"required"`
	Answer   string `json:"answer" validate:"required"`
}

type submitAnswerResponse struct {
	AnswerID   string                   `json:"answer_id"`
	Evaluation *models.AnswerEvaluation `json:"evaluation"`
	FollowUp   string                   `json:"follow_up_question"`
}

func (s *Server) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")

	session, err := db.GetSession(r.Context(), sessionID)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to load session: "+err.Error())
		return
	}
	if session == nil {
		writeJSONError(w, http.StatusNotFound, "session not found")
		return
	}

	var req submitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "question and answer are required")
		return
	}

	evaluation, err := s.deps.TextGen.EvaluateAnswer(r.Context(), req.Question, req.Answer, session.Topic)
	if err != nil {
		writeJSONError(w, http.StatusBadGateway, "answer evaluation failed: "+err.Error())
		return
	}

	followUp, err := s.deps.TextGen.GenerateFollowUpQuestion(r.Context(), req.Question, req.Answer, session.Topic)
	if err != nil {
		writeJSONError(w, http.StatusBadGateway, "follow-up generation failed: "+err.Error())
		return
	}

	session.Questions = append(session.Questions, followUp)
	if err := db.StoreSession(r.Context(), *session); err != nil {
		slog.Warn("[Server] Failed to persist follow-up question",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()))
	}

	input := utils.AnswerToAnalysisInput(sessionID, req.Question, req.Answer)
	enqueueAnalysis(input)

	writeJSON(w, http.StatusOK, submitAnswerResponse{
		AnswerID:   input.AnswerID,
		Evaluation: evaluation,
		FollowUp:   followUp,
	})
}

// enqueueAnalysis hands the answer to the analysis pipeline. Enqueue
// failures are logged, never surfaced: the interview keeps going even when
// Kafka is down.
func enqueueAnalysis(input models.AnswerAnalysisInput) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := kafka_client.PublishToKafka(ctx,
		kafka_client.KAFKA_TOPIC_ANALYSIS_REQUEST, input.SessionID, input)
	if err != nil {
		slog.Warn("[Server] Failed to enqueue answer for analysis",
			slog.String("answer_id", input.AnswerID),
			slog.String("error", err.Error()))
		return
	}

	slog.Debug("[Server] Answer enqueued for analysis",
		slog.String("answer_id", input.AnswerID))
}

func (s *Server) handleSessionResults(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")

	session, err := db.GetSession(r.Context(), sessionID)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to load session: "+err.Error())
		return
	}
	if session == nil {
		writeJSONError(w, http.StatusNotFound, "session not found")
		return
	}

	results, err := db.GetResultsForSession(r.Context(), sessionID)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to load results: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"results":    results,
		"count":      len(results),
	})
}
