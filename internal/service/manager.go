package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/richn23/student-voice/internal/cache"
	"github.com/richn23/student-voice/internal/generator"
	"github.com/richn23/student-voice/internal/model"
	"github.com/richn23/student-voice/internal/repository"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrNotChatbot       = errors.New("deployment does not deliver via chatbot")
	ErrLanguageDisabled = errors.New("language selection is not enabled for this survey")
)

// StartResult is everything the client needs after StartSession
type StartResult struct {
	SessionID    string  `json:"sessionId"`
	SessionToken string  `json:"sessionToken"`
	SurveyTitle  string  `json:"surveyTitle"`
	Language     string  `json:"language"`
	UI           ChatUI  `json:"ui"`
	Opening      *Turn   `json:"opening,omitempty"`
	OpeningError *string `json:"openingError,omitempty"`
}

// ConversationManager owns the live engines. It resolves deployment tokens,
// assembles the per-session pipeline, and routes turns to the right engine.
// Engines for sessions started before a restart are rebuilt lazily from the
// store, minus their chat history.
type ConversationManager struct {
	surveys     repository.SurveyRepo
	deployments repository.DeploymentRepo
	sessions    repository.SessionRepo
	responses   repository.ResponseRepo
	deployCache cache.DeploymentCache // may be nil

	gen        generator.Generator
	translator *Translator
	normalizer *Normalizer
	auth       *AuthService
	compiler   *PromptCompiler

	mu      sync.RWMutex
	engines map[string]*Engine
}

// ManagerDeps bundles the manager's collaborators
type ManagerDeps struct {
	Surveys     repository.SurveyRepo
	Deployments repository.DeploymentRepo
	Sessions    repository.SessionRepo
	Responses   repository.ResponseRepo
	DeployCache cache.DeploymentCache
	Generator   generator.Generator
	Translator  *Translator
	Auth        *AuthService
}

func NewConversationManager(deps ManagerDeps) *ConversationManager {
	return &ConversationManager{
		surveys:     deps.Surveys,
		deployments: deps.Deployments,
		sessions:    deps.Sessions,
		responses:   deps.Responses,
		deployCache: deps.DeployCache,
		gen:         deps.Generator,
		translator:  deps.Translator,
		normalizer:  NewNormalizer(deps.Translator),
		auth:        deps.Auth,
		compiler:    NewPromptCompiler(),
		engines:     make(map[string]*Engine),
	}
}

// ResolveDeployment finds a live deployment by its token, consulting the
// cache first. A paused or unknown token is not found.
func (m *ConversationManager) ResolveDeployment(ctx context.Context, token string) (*model.Deployment, error) {
	if m.deployCache != nil {
		if cached, err := m.deployCache.Get(ctx, token); err != nil {
			log.Printf("manager: deployment cache read failed: %v", err)
		} else if cached != nil {
			return cached, nil
		}
	}
	deployment, err := m.deployments.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if m.deployCache != nil {
		if err := m.deployCache.Set(ctx, deployment); err != nil {
			log.Printf("manager: deployment cache write failed: %v", err)
		}
	}
	return deployment, nil
}

// StartSession creates a session against a deployment token, mints its chat
// token and runs the opening turn. A failed opening turn still returns the
// created session; the client retries by sending any message.
func (m *ConversationManager) StartSession(ctx context.Context, token, lang string) (*StartResult, error) {
	deployment, err := m.ResolveDeployment(ctx, token)
	if err != nil {
		return nil, err
	}
	if deployment.DeliveryMode != model.DeliveryChatbot {
		return nil, ErrNotChatbot
	}

	survey, err := m.surveys.GetByID(ctx, deployment.SurveyID)
	if err != nil {
		return nil, fmt.Errorf("load survey: %w", err)
	}
	if lang != "" && lang != "en" && !survey.LanguageSelectionEnabled {
		return nil, ErrLanguageDisabled
	}
	if lang == "" {
		lang = "en"
	}

	session := &model.Session{
		ID:              uuid.New().String(),
		SurveyID:        deployment.SurveyID,
		SurveyVersionID: deployment.VersionID,
		DeploymentID:    deployment.ID,
		Language:        lang,
	}
	if err := m.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	sessionToken, err := m.auth.GenerateSessionToken(session.ID, deployment.ID)
	if err != nil {
		return nil, fmt.Errorf("mint session token: %w", err)
	}

	engine, err := m.buildEngine(ctx, session, survey, nil)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.engines[session.ID] = engine
	m.mu.Unlock()

	result := &StartResult{
		SessionID:    session.ID,
		SessionToken: sessionToken,
		SurveyTitle:  survey.Title,
		Language:     lang,
		UI:           m.translator.UIStrings(ctx, session.SurveyVersionID, lang),
	}
	opening, err := engine.Start(ctx)
	if err != nil {
		msg := err.Error()
		result.OpeningError = &msg
		log.Printf("manager: opening turn for session %s failed: %v", session.ID, err)
		return result, nil
	}
	result.Opening = opening
	return result, nil
}

// Message routes one turn of student input to the session's engine
func (m *ConversationManager) Message(ctx context.Context, sessionID, text string) (*Turn, error) {
	engine, err := m.engine(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if engine.State() == StateInitializing {
		// The opening turn failed earlier; run it now instead of feeding the
		// student's text into an unprimed conversation.
		if _, err := engine.Start(ctx); err != nil {
			return nil, err
		}
	}
	return engine.Send(ctx, text)
}

func (m *ConversationManager) engine(ctx context.Context, sessionID string) (*Engine, error) {
	m.mu.RLock()
	engine, ok := m.engines[sessionID]
	m.mu.RUnlock()
	if ok {
		return engine, nil
	}

	session, err := m.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, ErrSessionNotFound
	}
	survey, err := m.surveys.GetByID(ctx, session.SurveyID)
	if err != nil {
		return nil, fmt.Errorf("load survey: %w", err)
	}
	stored, err := m.responses.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load responses: %w", err)
	}
	answered := make([]string, 0, len(stored))
	for _, r := range stored {
		answered = append(answered, r.QKey)
	}

	engine, err = m.buildEngine(ctx, session, survey, answered)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if existing, ok := m.engines[sessionID]; ok {
		engine = existing
	} else {
		m.engines[sessionID] = engine
	}
	m.mu.Unlock()
	return engine, nil
}

func (m *ConversationManager) buildEngine(ctx context.Context, session *model.Session, survey *model.Survey, answered []string) (*Engine, error) {
	questions, err := m.surveys.GetQuestions(ctx, session.SurveyID, session.SurveyVersionID)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	questionnaire := NewQuestionnaire(questions)
	systemPrompt := m.compiler.Compile(questionnaire, survey, session.Language)
	return NewEngine(session, survey, questionnaire, systemPrompt, answered, EngineDeps{
		Generator:  m.gen,
		Normalizer: m.normalizer,
		Translator: m.translator,
		Sessions:   m.sessions,
		Responses:  m.responses,
	}), nil
}

// ValidateSessionToken exposes token validation to the transport layer
func (m *ConversationManager) ValidateSessionToken(token string) (*model.SessionClaims, error) {
	return m.auth.ValidateSessionToken(token)
}
