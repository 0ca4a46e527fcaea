package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/richn23/student-voice/internal/model"
)

func newTestManager(gen *scriptedGenerator) (*ConversationManager, *memSurveyRepo, *memSessionRepo, *memResponseRepo) {
	surveys := &memSurveyRepo{
		survey:    sampleSurvey(),
		version:   &model.SurveyVersion{ID: "v1", SurveyID: "s1", VersionNumber: 1, Status: "published"},
		questions: sampleQuestions(),
	}
	deployments := &memDeploymentRepo{deployments: map[string]*model.Deployment{
		"abc23456": {
			ID: "dep1", SurveyID: "s1", VersionID: "v1", Token: "abc23456",
			Status: model.DeploymentLive, DeliveryMode: model.DeliveryChatbot,
			CreatedAt: time.Now(),
		},
		"form2345": {
			ID: "dep2", SurveyID: "s1", VersionID: "v1", Token: "form2345",
			Status: model.DeploymentLive, DeliveryMode: model.DeliveryForm,
		},
	}}
	sessions := newMemSessionRepo()
	responses := &memResponseRepo{}
	mgr := NewConversationManager(ManagerDeps{
		Surveys:     surveys,
		Deployments: deployments,
		Sessions:    sessions,
		Responses:   responses,
		Generator:   gen,
		Translator:  NewTranslator(gen, nil),
		Auth:        NewAuthService("test-secret"),
	})
	return mgr, surveys, sessions, responses
}

func TestStartSession(t *testing.T) {
	gen := &scriptedGenerator{script: []string{"Hi! 😊 Is your class comfortable?\n<widget type=\"scale\" min=\"0\" max=\"3\" />"}}
	mgr, _, sessions, _ := newTestManager(gen)

	result, err := mgr.StartSession(context.Background(), "abc23456", "en")
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	if result.SessionID == "" || result.SessionToken == "" {
		t.Fatalf("missing session identifiers: %+v", result)
	}
	if result.Opening == nil || result.Opening.Widget == nil {
		t.Errorf("opening turn missing: %+v", result.Opening)
	}
	if result.UI.ThankYou != "Thank you!" {
		t.Errorf("unexpected UI pack: %+v", result.UI)
	}
	if _, err := sessions.GetByID(context.Background(), result.SessionID); err != nil {
		t.Errorf("session not persisted: %v", err)
	}
	claims, err := mgr.ValidateSessionToken(result.SessionToken)
	if err != nil {
		t.Fatalf("minted token invalid: %v", err)
	}
	if claims.SessionID != result.SessionID || claims.DeploymentID != "dep1" {
		t.Errorf("token claims wrong: %+v", claims)
	}
}

func TestStartSessionUnknownToken(t *testing.T) {
	mgr, _, _, _ := newTestManager(&scriptedGenerator{})
	if _, err := mgr.StartSession(context.Background(), "nope1234", "en"); err == nil {
		t.Error("expected error for unknown token")
	}
}

func TestStartSessionFormDeploymentRefused(t *testing.T) {
	mgr, _, _, _ := newTestManager(&scriptedGenerator{})
	if _, err := mgr.StartSession(context.Background(), "form2345", "en"); !errors.Is(err, ErrNotChatbot) {
		t.Errorf("expected ErrNotChatbot, got %v", err)
	}
}

func TestStartSessionLanguageDisabled(t *testing.T) {
	gen := &scriptedGenerator{script: []string{"Hi!"}}
	mgr, surveys, _, _ := newTestManager(gen)
	surveys.survey.LanguageSelectionEnabled = false
	if _, err := mgr.StartSession(context.Background(), "abc23456", "fr"); !errors.Is(err, ErrLanguageDisabled) {
		t.Errorf("expected ErrLanguageDisabled, got %v", err)
	}
	// English always works
	if _, err := mgr.StartSession(context.Background(), "abc23456", ""); err != nil {
		t.Errorf("English session refused: %v", err)
	}
}

func TestStartSessionOpeningFailureStillCreatesSession(t *testing.T) {
	gen := &scriptedGenerator{errAt: map[int]error{0: errors.New("upstream down")}}
	mgr, _, sessions, _ := newTestManager(gen)

	result, err := mgr.StartSession(context.Background(), "abc23456", "en")
	if err != nil {
		t.Fatalf("session creation must survive opening failure: %v", err)
	}
	if result.Opening != nil {
		t.Error("opening turn should be absent")
	}
	if result.OpeningError == nil {
		t.Error("opening error not reported")
	}
	if _, err := sessions.GetByID(context.Background(), result.SessionID); err != nil {
		t.Errorf("session not persisted: %v", err)
	}
}

func TestMessageRoutesToEngine(t *testing.T) {
	gen := &scriptedGenerator{script: []string{
		"Hi! Is your class comfortable?",
		"Thanks! Next one?\n<response qKey=\"q_0001\" type=\"scale\" value=\"3\" />",
	}}
	mgr, _, _, responses := newTestManager(gen)

	result, err := mgr.StartSession(context.Background(), "abc23456", "en")
	if err != nil {
		t.Fatal(err)
	}
	turn, err := mgr.Message(context.Background(), result.SessionID, "3")
	if err != nil {
		t.Fatalf("message: %v", err)
	}
	if turn.Answered != 1 {
		t.Errorf("answered = %d, want 1", turn.Answered)
	}
	if len(responses.responses) != 1 {
		t.Errorf("persisted %d responses", len(responses.responses))
	}
}

func TestMessageUnknownSession(t *testing.T) {
	mgr, _, _, _ := newTestManager(&scriptedGenerator{})
	if _, err := mgr.Message(context.Background(), "missing", "hi"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestMessageRebuildsEngineAfterRestart(t *testing.T) {
	gen := &scriptedGenerator{script: []string{
		"Hi!",
		"Thanks!\n<response qKey=\"q_0001\" type=\"scale\" value=\"2\" />",
	}}
	mgr, surveys, sessions, responses := newTestManager(gen)
	result, err := mgr.StartSession(context.Background(), "abc23456", "en")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := mgr.Message(context.Background(), result.SessionID, "2"); err != nil {
		t.Fatal(err)
	}

	// a fresh manager sharing the same store stands in for a restarted server
	gen2 := &scriptedGenerator{script: []string{
		"Welcome back!",
		"Noted! 😊\n<response qKey=\"q_0001\" type=\"scale\" value=\"0\" />",
	}}
	mgr2 := NewConversationManager(ManagerDeps{
		Surveys:     surveys,
		Deployments: &memDeploymentRepo{},
		Sessions:    sessions,
		Responses:   responses,
		Generator:   gen2,
		Translator:  NewTranslator(gen2, nil),
		Auth:        NewAuthService("test-secret"),
	})
	turn, err := mgr2.Message(context.Background(), result.SessionID, "0")
	if err != nil {
		t.Fatalf("rebuilt engine: %v", err)
	}
	if len(responses.responses) != 1 {
		t.Errorf("rebuilt engine re-persisted an answered key: %d responses", len(responses.responses))
	}
	if turn.Answered != 1 {
		t.Errorf("answered = %d, want 1 from loaded state", turn.Answered)
	}
}
