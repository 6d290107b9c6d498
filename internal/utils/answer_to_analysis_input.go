package utils

import (
	"time"

	"github.com/google/uuid"
	"github.com/interviewme/interviewme/internal/models"
)

// AnswerToAnalysisInput builds the pipeline input for a submitted answer.
func AnswerToAnalysisInput(sessionID, question, text string) models.AnswerAnalysisInput {
	return models.AnswerAnalysisInput{
		AnswerID:    uuid.NewString(),
		SessionID:   sessionID,
		Question:    question,
		Text:        text,
		SubmittedAt: time.Now().UTC(),
	}
}
