package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/richn23/student-voice/internal/generator"
	"github.com/richn23/student-voice/internal/model"
)

// scriptedGenerator replays canned outputs in order and records every request
// it sees. A nil script entry yields an error for that call.
type scriptedGenerator struct {
	mu       sync.Mutex
	script   []string
	errAt    map[int]error // call index -> forced error
	calls    int
	requests []generator.Request
}

func (g *scriptedGenerator) Generate(_ context.Context, req generator.Request) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	idx := g.calls
	g.calls++
	g.requests = append(g.requests, req)
	if err, ok := g.errAt[idx]; ok {
		return "", err
	}
	if idx >= len(g.script) {
		return "", errors.New("scripted generator exhausted")
	}
	return g.script[idx], nil
}

type memSessionRepo struct {
	mu            sync.Mutex
	sessions      map[string]*model.Session
	completeCalls int
	failComplete  bool
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: make(map[string]*model.Session)}
}

func (r *memSessionRepo) Create(_ context.Context, s *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.StartedAt.IsZero() {
		s.StartedAt = time.Now()
	}
	r.sessions[s.ID] = s
	return nil
}

func (r *memSessionRepo) GetByID(_ context.Context, id string) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, errors.New("session not found")
	}
	return s, nil
}

func (r *memSessionRepo) MarkComplete(_ context.Context, id string, completedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completeCalls++
	if r.failComplete {
		return errors.New("mark complete failed")
	}
	if s, ok := r.sessions[id]; ok {
		s.CompletedAt = &completedAt
	}
	return nil
}

type memResponseRepo struct {
	mu        sync.Mutex
	responses []*model.Response
	failNext  bool
}

func (r *memResponseRepo) Append(_ context.Context, resp *model.Response) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failNext {
		r.failNext = false
		return errors.New("store unavailable")
	}
	r.responses = append(r.responses, resp)
	return nil
}

func (r *memResponseRepo) GetBySessionID(_ context.Context, sessionID string) ([]*model.Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Response
	for _, resp := range r.responses {
		if resp.SessionID == sessionID {
			out = append(out, resp)
		}
	}
	return out, nil
}

type memSurveyRepo struct {
	survey    *model.Survey
	version   *model.SurveyVersion
	questions []model.Question
}

func (r *memSurveyRepo) GetByID(_ context.Context, id string) (*model.Survey, error) {
	if r.survey == nil || r.survey.ID != id {
		return nil, errors.New("survey not found")
	}
	return r.survey, nil
}

func (r *memSurveyRepo) GetVersion(_ context.Context, versionID string) (*model.SurveyVersion, error) {
	if r.version == nil || r.version.ID != versionID {
		return nil, errors.New("version not found")
	}
	return r.version, nil
}

func (r *memSurveyRepo) GetQuestions(_ context.Context, _, _ string) ([]model.Question, error) {
	return r.questions, nil
}

func (r *memSurveyRepo) Create(_ context.Context, s *model.Survey) error         { r.survey = s; return nil }
func (r *memSurveyRepo) CreateVersion(_ context.Context, v *model.SurveyVersion) error {
	r.version = v
	return nil
}
func (r *memSurveyRepo) CreateQuestion(_ context.Context, q *model.Question) error {
	r.questions = append(r.questions, *q)
	return nil
}

type memDeploymentRepo struct {
	deployments map[string]*model.Deployment
}

func (r *memDeploymentRepo) GetByToken(_ context.Context, token string) (*model.Deployment, error) {
	d, ok := r.deployments[token]
	if !ok || d.Status != model.DeploymentLive {
		return nil, errors.New("deployment not found")
	}
	return d, nil
}

func (r *memDeploymentRepo) Create(_ context.Context, d *model.Deployment) error {
	if r.deployments == nil {
		r.deployments = make(map[string]*model.Deployment)
	}
	r.deployments[d.Token] = d
	return nil
}

func intPtr(v int) *int { return &v }

// sampleQuestions is a small questionnaire covering every question type
func sampleQuestions() []model.Question {
	return []model.Question{
		{
			ID: "q1", QKey: "q_0001", Type: model.QuestionTypeScale, Order: 1,
			Prompt: model.TranslatedText{"en": "Is your class comfortable?"},
		},
		{
			ID: "q2", QKey: "q_0002", Type: model.QuestionTypeSlider, Order: 2,
			Prompt: model.TranslatedText{"en": "How much do you enjoy lessons?"},
		},
		{
			ID: "q3", QKey: "q_0003", Type: model.QuestionTypeChoice, Order: 3,
			Prompt: model.TranslatedText{"en": "Which day do you prefer?"},
			Config: model.QuestionConfig{Options: []string{"Monday", "Tuesday", "Friday"}, SelectMode: model.SelectSingle},
		},
		{
			ID: "q4", QKey: "q_0004", Type: model.QuestionTypeChoice, Order: 4,
			Prompt: model.TranslatedText{"en": "Which subjects do you like?"},
			Config: model.QuestionConfig{Options: []string{"Math", "Science", "Art"}, SelectMode: model.SelectMulti},
		},
		{
			ID: "q5", QKey: "q_0005", Type: model.QuestionTypeOpenText, Order: 5,
			Prompt: model.TranslatedText{"en": "What would you improve?"},
		},
	}
}

func sampleSurvey() *model.Survey {
	return &model.Survey{
		ID:                       "s1",
		Title:                    "Student Experience",
		ToneProfile:              model.ToneFriendly,
		LanguageSelectionEnabled: true,
		Status:                   "live",
	}
}
