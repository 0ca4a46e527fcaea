package model

import "time"

// QuestionType defines the type of question
type QuestionType string

const (
	QuestionTypeScale    QuestionType = "scale"           // bounded agree/disagree scale
	QuestionTypeSlider   QuestionType = "slider"          // continuous 0-100 slider
	QuestionTypeNPS      QuestionType = "nps"             // net promoter score, 0-10
	QuestionTypeChoice   QuestionType = "multiple_choice" // single or multi select
	QuestionTypeOpenText QuestionType = "open_text"       // free text
)

// ToneProfile selects the register the chatbot speaks in
type ToneProfile string

const (
	ToneFriendly     ToneProfile = "friendly"
	ToneProfessional ToneProfile = "professional"
	ToneSimple       ToneProfile = "simple"
	ToneCustom       ToneProfile = "custom"
)

// SelectMode distinguishes single-pick from multi-pick choice questions
type SelectMode string

const (
	SelectSingle SelectMode = "single"
	SelectMulti  SelectMode = "multi"
)

// TranslatedText maps a language code to a rendering of the same string.
// English ("en") is the canonical copy used for validation and aggregation.
type TranslatedText map[string]string

// Survey is the top-level survey document
type Survey struct {
	ID                       string      `json:"id" bson:"_id,omitempty"`
	Title                    string      `json:"title" bson:"title"`
	Slug                     string      `json:"slug" bson:"slug"`
	Description              string      `json:"description,omitempty" bson:"description,omitempty"`
	ToneProfile              ToneProfile `json:"toneProfile" bson:"toneProfile"`
	ToneCustom               string      `json:"toneCustom,omitempty" bson:"toneCustom,omitempty"`
	LanguageSelectionEnabled bool        `json:"languageSelectionEnabled" bson:"languageSelectionEnabled"`
	Intro                    string      `json:"intro,omitempty" bson:"intro,omitempty"`
	CompletionMessage        string      `json:"completionMessage,omitempty" bson:"completionMessage,omitempty"`
	Status                   string      `json:"status" bson:"status"` // draft, live, archived
	CreatedAt                time.Time   `json:"createdAt" bson:"createdAt"`
	UpdatedAt                time.Time   `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}

// SurveyVersion is a published snapshot of a survey's questions.
// Questions are immutable once the version is published.
type SurveyVersion struct {
	ID            string     `json:"id" bson:"_id,omitempty"`
	SurveyID      string     `json:"surveyId" bson:"surveyId"`
	VersionNumber int        `json:"versionNumber" bson:"versionNumber"`
	Status        string     `json:"status" bson:"status"` // draft, published
	PublishedAt   *time.Time `json:"publishedAt,omitempty" bson:"publishedAt,omitempty"`
}

// QuestionConfig holds type-specific bounds and options
type QuestionConfig struct {
	Min        *int       `json:"min,omitempty" bson:"min,omitempty"`
	Max        *int       `json:"max,omitempty" bson:"max,omitempty"`
	LowLabel   string     `json:"lowLabel,omitempty" bson:"lowLabel,omitempty"`
	HighLabel  string     `json:"highLabel,omitempty" bson:"highLabel,omitempty"`
	Options    []string   `json:"options,omitempty" bson:"options,omitempty"` // canonical English option strings
	SelectMode SelectMode `json:"selectMode,omitempty" bson:"selectMode,omitempty"`
}

// Question is one item of a published survey version. QKey is unique within
// the version and Order gives a total order over the questionnaire.
type Question struct {
	ID           string         `json:"id" bson:"_id,omitempty"`
	SurveyID     string         `json:"surveyId" bson:"surveyId"`
	VersionID    string         `json:"versionId" bson:"versionId"`
	QKey         string         `json:"qKey" bson:"qKey"`
	Type         QuestionType   `json:"type" bson:"type"`
	Prompt       TranslatedText `json:"prompt" bson:"prompt"`
	SectionID    string         `json:"sectionId,omitempty" bson:"sectionId,omitempty"`
	SectionTitle TranslatedText `json:"sectionTitle,omitempty" bson:"sectionTitle,omitempty"`
	Order        int            `json:"order" bson:"order"`
	Required     bool           `json:"required" bson:"required"`
	Config       QuestionConfig `json:"config" bson:"config"`
}

// PromptEN returns the canonical English prompt text
func (q *Question) PromptEN() string {
	return q.Prompt["en"]
}

// Bounds returns the effective numeric range for scale/slider/nps questions,
// falling back to the defaults the chat widgets assume when the survey author
// left the config empty.
func (q *Question) Bounds() (min, max int) {
	switch q.Type {
	case QuestionTypeScale:
		min, max = 0, 3
	case QuestionTypeSlider:
		min, max = 0, 100
	case QuestionTypeNPS:
		min, max = 0, 10
	}
	if q.Config.Min != nil {
		min = *q.Config.Min
	}
	if q.Config.Max != nil {
		max = *q.Config.Max
	}
	return min, max
}

// IsNumeric reports whether the question records a numeric score
func (q *Question) IsNumeric() bool {
	switch q.Type {
	case QuestionTypeScale, QuestionTypeSlider, QuestionTypeNPS:
		return true
	}
	return false
}
