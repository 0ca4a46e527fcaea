package model

import "github.com/golang-jwt/jwt/v5"

// SessionClaims are JWT claims for session-scoped chat tokens. The token
// binds a client to the one session it started; there is no user identity.
type SessionClaims struct {
	SessionID    string `json:"sessionId"`
	DeploymentID string `json:"deploymentId"`
	jwt.RegisteredClaims
}

// StartSessionRequest is the request body for starting a chat session
type StartSessionRequest struct {
	Token    string `json:"token"`    // deployment token
	Language string `json:"language"` // ISO code or free-text label, "en" if empty
}

// StartSessionResponse is returned after a session is created
type StartSessionResponse struct {
	SessionID    string `json:"sessionId"`
	SessionToken string `json:"sessionToken"`
}
