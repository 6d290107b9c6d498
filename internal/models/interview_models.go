package models

import "time"

type InterviewSession struct {
	SessionID  string    `json:"session_id" dynamodbav:"session_id"`
	Topic      string    `json:"topic" dynamodbav:"topic"`
	Difficulty string    `json:"difficulty" dynamodbav:"difficulty"`
	Persona    string    `json:"persona" dynamodbav:"persona"`
	Questions  []string  `json:"questions" dynamodbav:"questions"`
	CreatedAt  time.Time `json:"created_at" dynamodbav:"created_at,unixtime"`
}
