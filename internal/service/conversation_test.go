package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/richn23/student-voice/internal/model"
)

func newTestEngine(t *testing.T, gen *scriptedGenerator, sessions *memSessionRepo, responses *memResponseRepo) *Engine {
	t.Helper()
	session := &model.Session{ID: "sess1", SurveyID: "s1", SurveyVersionID: "v1", Language: "en"}
	if err := sessions.Create(context.Background(), session); err != nil {
		t.Fatalf("seed session: %v", err)
	}
	survey := sampleSurvey()
	questionnaire := NewQuestionnaire(sampleQuestions())
	prompt := NewPromptCompiler().Compile(questionnaire, survey, "en")
	return NewEngine(session, survey, questionnaire, prompt, nil, EngineDeps{
		Generator:  gen,
		Normalizer: NewNormalizer(nil),
		Sessions:   sessions,
		Responses:  responses,
	})
}

func TestEngineStartGreets(t *testing.T) {
	gen := &scriptedGenerator{script: []string{
		"Hi! 😊 Is your class comfortable?\n<widget type=\"scale\" min=\"0\" max=\"3\" />",
	}}
	engine := newTestEngine(t, gen, newMemSessionRepo(), &memResponseRepo{})

	turn, err := engine.Start(context.Background())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if turn.Widget == nil || turn.Widget.Type != model.QuestionTypeScale {
		t.Errorf("expected scale widget, got %+v", turn.Widget)
	}
	if turn.Done || turn.Answered != 0 || turn.Total != 5 {
		t.Errorf("unexpected progress: %+v", turn)
	}
	if !gen.requests[0].Fast {
		t.Error("opening turn should use the fast model")
	}
	if _, err := engine.Send(context.Background(), "2"); err == nil {
		// scripted generator is exhausted, only the request record matters
		t.Log("unexpected second reply")
	}
	if !gen.requests[1].Fast {
		t.Error("chat turns should use the fast model")
	}
	if !strings.Contains(gen.requests[0].Messages[0].Content, "[System:") {
		t.Errorf("greeting instruction not sent: %q", gen.requests[0].Messages[0].Content)
	}
	if engine.State() != StateAwaitingInput {
		t.Errorf("state = %s, want awaiting_input", engine.State())
	}
}

func TestEnginePersistsValidatedAnswer(t *testing.T) {
	gen := &scriptedGenerator{script: []string{
		"Hi! Is your class comfortable?",
		"Thanks! 😊 How much do you enjoy lessons?\n<response qKey=\"q_0001\" type=\"scale\" value=\"2\" />\n<widget type=\"slider\" min=\"0\" max=\"100\" />",
	}}
	responses := &memResponseRepo{}
	engine := newTestEngine(t, gen, newMemSessionRepo(), responses)

	if _, err := engine.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	turn, err := engine.SendValue(context.Background(), 2)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if turn.Answered != 1 {
		t.Errorf("answered = %d, want 1", turn.Answered)
	}
	if len(responses.responses) != 1 {
		t.Fatalf("persisted %d responses, want 1", len(responses.responses))
	}
	stored := responses.responses[0]
	if stored.QKey != "q_0001" || stored.SessionID != "sess1" || stored.QuestionID != "q1" {
		t.Errorf("unexpected stored response: %+v", stored)
	}
	if stored.Score == nil || *stored.Score != 2 {
		t.Errorf("score = %v, want 2", stored.Score)
	}
}

func TestEngineIdempotentPerKey(t *testing.T) {
	gen := &scriptedGenerator{script: []string{
		"Hi! Is your class comfortable?",
		"Thanks! Next?\n<response qKey=\"q_0001\" type=\"scale\" value=\"2\" />",
		"You already told me! 😊\n<response qKey=\"q_0001\" type=\"scale\" value=\"3\" />",
	}}
	responses := &memResponseRepo{}
	engine := newTestEngine(t, gen, newMemSessionRepo(), responses)

	ctx := context.Background()
	if _, err := engine.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := engine.SendValue(ctx, 2); err != nil {
		t.Fatal(err)
	}
	turn, err := engine.SendValue(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(responses.responses) != 1 {
		t.Fatalf("duplicate key persisted: %d responses", len(responses.responses))
	}
	if *responses.responses[0].Score != 2 {
		t.Errorf("first answer must win, got %v", *responses.responses[0].Score)
	}
	if turn.Answered != 1 {
		t.Errorf("answered = %d, want 1", turn.Answered)
	}
}

func TestEngineDiscardsUnknownKey(t *testing.T) {
	gen := &scriptedGenerator{script: []string{
		"Hi!",
		"Thanks!\n<response qKey=\"q_9999\" type=\"scale\" value=\"2\" />",
	}}
	responses := &memResponseRepo{}
	engine := newTestEngine(t, gen, newMemSessionRepo(), responses)

	ctx := context.Background()
	if _, err := engine.Start(ctx); err != nil {
		t.Fatal(err)
	}
	turn, err := engine.Send(ctx, "2")
	if err != nil {
		t.Fatalf("unknown key must not fail the turn: %v", err)
	}
	if len(responses.responses) != 0 {
		t.Errorf("unknown key persisted: %+v", responses.responses)
	}
	if turn.Answered != 0 {
		t.Errorf("answered = %d, want 0", turn.Answered)
	}
}

func TestEngineRejectsOutOfRangeWithoutFailingTurn(t *testing.T) {
	gen := &scriptedGenerator{script: []string{
		"Hi!",
		"Hmm, between 0 and 3 please!\n<response qKey=\"q_0001\" type=\"scale\" value=\"9\" />",
	}}
	responses := &memResponseRepo{}
	engine := newTestEngine(t, gen, newMemSessionRepo(), responses)

	ctx := context.Background()
	if _, err := engine.Start(ctx); err != nil {
		t.Fatal(err)
	}
	turn, err := engine.Send(ctx, "9")
	if err != nil {
		t.Fatalf("invalid value must not fail the turn: %v", err)
	}
	if len(responses.responses) != 0 {
		t.Errorf("out-of-range value persisted")
	}
	if turn.Done {
		t.Error("turn must not complete")
	}
}

func TestEngineGeneratorFailureRollsBackHistory(t *testing.T) {
	gen := &scriptedGenerator{
		script: []string{"Hi! First question?", "", "Thanks! Next?"},
		errAt:  map[int]error{1: errors.New("upstream 529")},
	}
	engine := newTestEngine(t, gen, newMemSessionRepo(), &memResponseRepo{})

	ctx := context.Background()
	if _, err := engine.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := engine.Send(ctx, "2"); err == nil {
		t.Fatal("expected generator error to surface")
	}
	if engine.State() != StateAwaitingInput {
		t.Errorf("state = %s, want awaiting_input for retry", engine.State())
	}

	// retry: the failed attempt must not have left a dangling user turn
	if _, err := engine.Send(ctx, "2"); err != nil {
		t.Fatalf("retry: %v", err)
	}
	last := gen.requests[len(gen.requests)-1]
	userTurns := 0
	for _, msg := range last.Messages {
		if msg.Role == "user" {
			userTurns++
		}
	}
	if userTurns != 2 { // greeting instruction + the retried input, not three
		t.Errorf("history has %d user turns, want 2", userTurns)
	}
}

func TestEngineStoreFailureFailsTurnKeepsHistory(t *testing.T) {
	gen := &scriptedGenerator{script: []string{
		"Hi!",
		"Thanks!\n<response qKey=\"q_0001\" type=\"scale\" value=\"2\" />",
		"Still there? 😊",
	}}
	responses := &memResponseRepo{failNext: true}
	engine := newTestEngine(t, gen, newMemSessionRepo(), responses)

	ctx := context.Background()
	if _, err := engine.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := engine.Send(ctx, "2"); err == nil {
		t.Fatal("expected store failure to surface")
	}
	if len(responses.responses) != 0 {
		t.Fatalf("response persisted despite failure")
	}

	// the exchange stays in history so the student does not repeat themselves
	if _, err := engine.Send(ctx, "hello?"); err != nil {
		t.Fatalf("follow-up: %v", err)
	}
	last := gen.requests[len(gen.requests)-1]
	// greeting, first reply, "2", the reply of the failed turn, "hello?"
	if len(last.Messages) != 5 {
		t.Errorf("history length = %d, want 5 with the failed exchange retained", len(last.Messages))
	}
}

func TestEngineCompletion(t *testing.T) {
	gen := &scriptedGenerator{script: []string{
		"Hi!",
		"Thank you so much! 🎉\n<response qKey=\"q_0005\" type=\"open_text\" value=\"More books\" />\n<survey_complete />",
	}}
	sessions := newMemSessionRepo()
	responses := &memResponseRepo{}
	engine := newTestEngine(t, gen, sessions, responses)

	ctx := context.Background()
	if _, err := engine.Start(ctx); err != nil {
		t.Fatal(err)
	}
	turn, err := engine.Send(ctx, "More books")
	if err != nil {
		t.Fatal(err)
	}
	if !turn.Done {
		t.Fatal("expected completion")
	}
	if sessions.completeCalls != 1 {
		t.Errorf("MarkComplete called %d times, want 1", sessions.completeCalls)
	}
	if engine.State() != StateCompleted {
		t.Errorf("state = %s, want completed", engine.State())
	}

	// terminal: further input is refused without calling the generator
	if _, err := engine.Send(ctx, "one more thing"); !errors.Is(err, ErrSessionCompleted) {
		t.Errorf("expected ErrSessionCompleted, got %v", err)
	}
	if gen.calls != 2 {
		t.Errorf("generator called after completion")
	}
}

func TestEngineMarkCompleteFailureFailsTurn(t *testing.T) {
	gen := &scriptedGenerator{script: []string{
		"Hi!",
		"All done, thank you! <survey_complete />",
		"Thanks again, bye! <survey_complete />",
	}}
	sessions := newMemSessionRepo()
	sessions.failComplete = true
	engine := newTestEngine(t, gen, sessions, &memResponseRepo{})

	ctx := context.Background()
	if _, err := engine.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := engine.Send(ctx, "ok"); err == nil {
		t.Fatal("expected completion store failure to surface")
	}
	if engine.State() != StateAwaitingInput {
		t.Errorf("state = %s, want awaiting_input for retry", engine.State())
	}
	stored, _ := sessions.GetByID(ctx, "sess1")
	if stored.CompletedAt != nil {
		t.Error("session durably marked complete despite store failure")
	}

	// resend repairs it once the store recovers
	sessions.failComplete = false
	turn, err := engine.Send(ctx, "ok")
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if !turn.Done {
		t.Error("retry did not complete the session")
	}
	if engine.State() != StateCompleted {
		t.Errorf("state = %s, want completed", engine.State())
	}
}

func TestEnginePrematureCompletionHonored(t *testing.T) {
	gen := &scriptedGenerator{script: []string{
		"Hi!",
		"Thanks, bye! <survey_complete />",
	}}
	sessions := newMemSessionRepo()
	engine := newTestEngine(t, gen, sessions, &memResponseRepo{})

	ctx := context.Background()
	if _, err := engine.Start(ctx); err != nil {
		t.Fatal(err)
	}
	turn, err := engine.Send(ctx, "ok")
	if err != nil {
		t.Fatal(err)
	}
	if !turn.Done {
		t.Error("premature marker must still complete the session")
	}
	if turn.Answered != 0 || turn.Total != 5 {
		t.Errorf("progress counts wrong: %+v", turn)
	}
	if sessions.completeCalls != 1 {
		t.Errorf("MarkComplete calls = %d", sessions.completeCalls)
	}
}

func TestEngineResumeSkipsAnsweredKeys(t *testing.T) {
	gen := &scriptedGenerator{script: []string{
		"Welcome back! Next question?\n<response qKey=\"q_0001\" type=\"scale\" value=\"1\" />",
	}}
	sessions := newMemSessionRepo()
	responses := &memResponseRepo{}
	session := &model.Session{ID: "sess2", SurveyID: "s1", SurveyVersionID: "v1", Language: "en"}
	if err := sessions.Create(context.Background(), session); err != nil {
		t.Fatal(err)
	}
	questionnaire := NewQuestionnaire(sampleQuestions())
	engine := NewEngine(session, sampleSurvey(), questionnaire, "prompt", []string{"q_0001"}, EngineDeps{
		Generator:  gen,
		Normalizer: NewNormalizer(nil),
		Sessions:   sessions,
		Responses:  responses,
	})

	turn, err := engine.Send(context.Background(), "1")
	if err != nil {
		t.Fatal(err)
	}
	if len(responses.responses) != 0 {
		t.Errorf("already-answered key persisted again")
	}
	if turn.Answered != 1 {
		t.Errorf("answered = %d, want the preloaded 1", turn.Answered)
	}
}

func TestEngineCompletedSessionRefusesStart(t *testing.T) {
	session := &model.Session{ID: "sess3", SurveyID: "s1", SurveyVersionID: "v1", Language: "en"}
	done := session.StartedAt
	session.CompletedAt = &done
	engine := NewEngine(session, sampleSurvey(), NewQuestionnaire(sampleQuestions()), "prompt", nil, EngineDeps{
		Generator:  &scriptedGenerator{},
		Normalizer: NewNormalizer(nil),
		Sessions:   newMemSessionRepo(),
		Responses:  &memResponseRepo{},
	})
	if _, err := engine.Start(context.Background()); !errors.Is(err, ErrSessionCompleted) {
		t.Errorf("expected ErrSessionCompleted, got %v", err)
	}
}
