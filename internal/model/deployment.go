package model

import "time"

// DeliveryMode selects how a deployment collects responses
type DeliveryMode string

const (
	DeliveryForm    DeliveryMode = "form"
	DeliveryChatbot DeliveryMode = "chatbot"
)

// DeploymentStatus is the lifecycle state of a deployment link
type DeploymentStatus string

const (
	DeploymentLive   DeploymentStatus = "live"
	DeploymentPaused DeploymentStatus = "paused"
)

// Deployment is a shareable link binding a token to one published survey
// version. Students reach the chatbot through its token.
type Deployment struct {
	ID           string           `json:"id" bson:"_id,omitempty"`
	SurveyID     string           `json:"surveyId" bson:"surveyId"`
	VersionID    string           `json:"versionId" bson:"versionId"`
	Token        string           `json:"token" bson:"token"`
	Label        string           `json:"label" bson:"label"`
	Campus       string           `json:"campus,omitempty" bson:"campus,omitempty"`
	Status       DeploymentStatus `json:"status" bson:"status"`
	DeliveryMode DeliveryMode     `json:"deliveryMode" bson:"deliveryMode"`
	CreatedAt    time.Time        `json:"createdAt" bson:"createdAt"`
}
