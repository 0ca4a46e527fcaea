package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/richn23/student-voice/internal/model"
	"github.com/richn23/student-voice/internal/repository"
	"github.com/richn23/student-voice/internal/service"
)

// RunnerHandler serves the public deployment entry point: everything a chat
// client needs to render the start screen before a session exists.
type RunnerHandler struct {
	manager *service.ConversationManager
	surveys repository.SurveyRepo
}

// NewRunnerHandler creates a new runner handler
func NewRunnerHandler(manager *service.ConversationManager, surveys repository.SurveyRepo) *RunnerHandler {
	return &RunnerHandler{manager: manager, surveys: surveys}
}

// RunnerInfo is the public view of a deployment
type RunnerInfo struct {
	Token                    string             `json:"token"`
	DeliveryMode             model.DeliveryMode `json:"deliveryMode"`
	SurveyTitle              string             `json:"surveyTitle"`
	Description              string             `json:"description,omitempty"`
	Intro                    string             `json:"intro,omitempty"`
	LanguageSelectionEnabled bool               `json:"languageSelectionEnabled"`
	Languages                []service.Language `json:"languages,omitempty"`
	QuestionCount            int                `json:"questionCount"`
}

// Get handles GET /v1/runner/{token}
func (h *RunnerHandler) Get(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]

	deployment, err := h.manager.ResolveDeployment(r.Context(), token)
	if err != nil {
		writeError(w, http.StatusNotFound, "deployment not found")
		return
	}
	survey, err := h.surveys.GetByID(r.Context(), deployment.SurveyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load survey")
		return
	}
	questions, err := h.surveys.GetQuestions(r.Context(), deployment.SurveyID, deployment.VersionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load questions")
		return
	}

	info := RunnerInfo{
		Token:                    deployment.Token,
		DeliveryMode:             deployment.DeliveryMode,
		SurveyTitle:              survey.Title,
		Description:              survey.Description,
		Intro:                    survey.Intro,
		LanguageSelectionEnabled: survey.LanguageSelectionEnabled,
		QuestionCount:            len(questions),
	}
	if survey.LanguageSelectionEnabled {
		info.Languages = service.Languages
	}
	writeJSON(w, http.StatusOK, info)
}
