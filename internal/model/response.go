package model

import "time"

// ParsedAnswer is an ephemeral extraction from generator output. It is never
// persisted directly; the normalizer turns it into a Response or rejects it.
type ParsedAnswer struct {
	QKey     string `json:"qKey"`
	Type     string `json:"type"` // the generator's declared type, cross-checked against the questionnaire
	RawValue string `json:"value"`
}

// Widget is the interactive control the client should render for the next
// expected answer, extracted from a generator widget directive.
type Widget struct {
	Type      QuestionType `json:"type"` // scale, slider or nps
	Min       int          `json:"min"`
	Max       int          `json:"max"`
	LowLabel  string       `json:"lowLabel,omitempty"`
	HighLabel string       `json:"highLabel,omitempty"`
}

// ResponseData is the type-shaped payload of a validated response
type ResponseData struct {
	Value       interface{} `json:"value,omitempty" bson:"value,omitempty"`             // number for numeric types, option string(s) for choice
	Text        string      `json:"text,omitempty" bson:"text,omitempty"`               // open text, as given
	TextEnglish string      `json:"textEnglish,omitempty" bson:"textEnglish,omitempty"` // best-effort translation for non-English sessions
}

// Response is a validated, durable answer to one question. At most one is
// recorded per (session, qKey); the conversation engine enforces that.
type Response struct {
	ID               string       `json:"id" bson:"_id,omitempty"`
	SessionID        string       `json:"sessionId" bson:"sessionId"`
	QuestionID       string       `json:"questionId" bson:"questionId"`
	QKey             string       `json:"qKey" bson:"qKey"`
	Type             QuestionType `json:"type" bson:"type"`
	Response         ResponseData `json:"response" bson:"response"`
	ResponseText     *string      `json:"responseText" bson:"responseText"` // canonical English free text, nil for non-text types
	Score            *float64     `json:"score" bson:"score"`               // numeric score, nil for non-numeric types
	ResponseOriginal string       `json:"responseOriginal,omitempty" bson:"responseOriginal,omitempty"`
	ResponseLanguage string       `json:"responseLanguage,omitempty" bson:"responseLanguage,omitempty"`
	CreatedAt        time.Time    `json:"createdAt" bson:"createdAt"`
}
