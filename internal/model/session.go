package model

import "time"

// MessageRole identifies the author of a chat message
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// ChatMessage is one entry of a session's ordered message history
type ChatMessage struct {
	Role    MessageRole `json:"role" bson:"role"`
	Content string      `json:"content" bson:"content"`
}

// Session is one student's attempt at a chatbot deployment
type Session struct {
	ID              string     `json:"id" bson:"_id,omitempty"`
	SurveyID        string     `json:"surveyId" bson:"surveyId"`
	SurveyVersionID string     `json:"surveyVersionId" bson:"surveyVersionId"`
	DeploymentID    string     `json:"deploymentId" bson:"deploymentId"`
	Language        string     `json:"language" bson:"language"`
	StartedAt       time.Time  `json:"startedAt" bson:"startedAt"`
	CompletedAt     *time.Time `json:"completedAt" bson:"completedAt"`
}
