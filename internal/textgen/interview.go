package textgen

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/interviewme/interviewme/internal/models"
)

// GenerateInterviewQuestion asks the model for a question on topic at the
// given difficulty (easy, medium, hard).
func (s *Service) GenerateInterviewQuestion(ctx context.Context, topic, difficulty string) (string, error) {
	if difficulty == "" {
		difficulty = "medium"
	}

	messages := []models.ChatMessage{
		{
			Role:    "system",
			Content: "You are an expert interviewer. Generate a realistic and challenging interview question.",
		},
		{
			Role: "user",
			Content: fmt.Sprintf("Create an interview question about %s at %s difficulty level. "+
				"The question should assess the candidate's knowledge and problem-solving skills.", topic, difficulty),
		},
	}

	return s.GenerateChat(ctx, messages, models.GenerationOptions{})
}

// EvaluateAnswer scores a candidate answer. If the model does not return
// valid JSON the raw text becomes the feedback with a zero score.
func (s *Service) EvaluateAnswer(ctx context.Context, question, answer, topic string) (*models.AnswerEvaluation, error) {
	messages := []models.ChatMessage{
		{
			Role:    "system",
			Content: "You are an expert in evaluating interview responses. Provide a detailed and fair assessment.",
		},
		{
			Role: "user",
			Content: fmt.Sprintf(`Question: %s

Candidate's Answer: %s

Evaluate the candidate's answer to this %s question. Provide:
1. A score from 1-10
2. Specific feedback
3. Key strengths
4. Areas for improvement

Format your response as a JSON object with fields: score, feedback, strengths, weaknesses.`, question, answer, topic),
		},
	}

	response, err := s.GenerateChat(ctx, messages, models.GenerationOptions{})
	if err != nil {
		return nil, err
	}

	var evaluation models.AnswerEvaluation
	if err := json.Unmarshal([]byte(extractJSON(response)), &evaluation); err != nil {
		slog.Warn("[TextGen] Failed to parse JSON evaluation, returning raw text")
		return &models.AnswerEvaluation{
			Score:      0,
			Feedback:   response,
			Strengths:  []string{},
			Weaknesses: []string{},
		}, nil
	}

	return &evaluation, nil
}

// GenerateFollowUpQuestion builds on the candidate's previous answer.
func (s *Service) GenerateFollowUpQuestion(ctx context.Context, originalQuestion, answer, topic string) (string, error) {
	messages := []models.ChatMessage{
		{
			Role:    "system",
			Content: "You are an expert interviewer. Generate a relevant follow-up question based on the candidate's response.",
		},
		{
			Role: "user",
			Content: fmt.Sprintf(`Original Question: %s

Candidate's Answer: %s

Based on this response about %s, what would be a good follow-up question that:
1. Builds on something mentioned in their answer
2. Probes deeper into their understanding
3. Challenges them to think critically about the topic`, originalQuestion, answer, topic),
		},
	}

	return s.GenerateChat(ctx, messages, models.GenerationOptions{})
}

// extractJSON trims code fences and surrounding prose so a JSON object
// embedded in the response still parses.
func extractJSON(response string) string {
	trimmed := strings.TrimSpace(response)

	if start := strings.Index(trimmed, "{"); start >= 0 {
		if end := strings.LastIndex(trimmed, "}"); end > start {
			return trimmed[start : end+1]
		}
	}
	return trimmed
}
