package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/richn23/student-voice/internal/generator"
	"github.com/richn23/student-voice/internal/model"
	"github.com/richn23/student-voice/internal/repository"
)

// State is the lifecycle phase of one conversation
type State string

const (
	StateInitializing  State = "initializing"
	StateAwaitingInput State = "awaiting_input"
	StateProcessing    State = "processing"
	StateCompleted     State = "completed"
)

var ErrSessionCompleted = errors.New("session already completed")

// Turn is what one round of conversation hands back to the client
type Turn struct {
	Reply        string        `json:"reply"`
	Widget       *model.Widget `json:"widget,omitempty"`
	Choices      []string      `json:"choices,omitempty"`
	MultiChoices []string      `json:"multiChoices,omitempty"`
	Done         bool          `json:"done"`
	Answered     int           `json:"answered"`
	Total        int           `json:"total"`
}

// Engine drives one session's conversation: it feeds the message history to
// the generator, extracts hidden tags from the output, validates and persists
// answers, and decides when the survey is complete. All methods on one engine
// are serialized; concurrent sessions each get their own engine.
type Engine struct {
	mu sync.Mutex

	session       *model.Session
	survey        *model.Survey
	questionnaire *Questionnaire
	systemPrompt  string

	gen        generator.Generator
	normalizer *Normalizer
	translator *Translator
	sessions   repository.SessionRepo
	responses  repository.ResponseRepo

	history  []generator.Message
	answered map[string]bool
	state    State
}

// EngineDeps bundles the collaborators an engine needs
type EngineDeps struct {
	Generator  generator.Generator
	Normalizer *Normalizer
	Translator *Translator
	Sessions   repository.SessionRepo
	Responses  repository.ResponseRepo
}

// NewEngine builds an engine for a session. answeredKeys carries keys already
// persisted in earlier turns, so a rebuilt engine never double-records.
func NewEngine(session *model.Session, survey *model.Survey, questionnaire *Questionnaire, systemPrompt string, answeredKeys []string, deps EngineDeps) *Engine {
	answered := make(map[string]bool, len(answeredKeys))
	for _, k := range answeredKeys {
		answered[k] = true
	}
	state := StateInitializing
	if session.CompletedAt != nil {
		state = StateCompleted
	}
	return &Engine{
		session:       session,
		survey:        survey,
		questionnaire: questionnaire,
		systemPrompt:  systemPrompt,
		gen:           deps.Generator,
		normalizer:    deps.Normalizer,
		translator:    deps.Translator,
		sessions:      deps.Sessions,
		responses:     deps.Responses,
		answered:      answered,
		state:         state,
	}
}

// Session returns the session this engine drives
func (e *Engine) Session() *model.Session {
	return e.session
}

// State returns the current lifecycle phase
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Start runs the opening turn: the generator greets the student and asks the
// first question. The instruction that elicits the greeting stays in the
// generator-facing history but is never shown to the student.
func (e *Engine) Start(ctx context.Context) (*Turn, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateCompleted {
		return nil, ErrSessionCompleted
	}
	compiler := NewPromptCompiler()
	instruction := compiler.GreetingInstruction(e.survey.Title, e.session.Language)
	return e.turn(ctx, instruction, true)
}

// Send runs one conversational turn with free-text student input
func (e *Engine) Send(ctx context.Context, text string) (*Turn, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateCompleted {
		return nil, ErrSessionCompleted
	}
	return e.turn(ctx, text, false)
}

// SendValue runs one turn with a numeric widget selection
func (e *Engine) SendValue(ctx context.Context, value int) (*Turn, error) {
	return e.Send(ctx, strconv.Itoa(value))
}

// SendChoices runs one turn with one or more picked options
func (e *Engine) SendChoices(ctx context.Context, picked []string) (*Turn, error) {
	return e.Send(ctx, strings.Join(picked, ", "))
}

// turn is the single-turn algorithm. Caller holds the mutex. A generator
// failure leaves the history exactly as it was before the turn; a store
// failure keeps the exchanged messages so the student can retry without
// repeating themselves.
func (e *Engine) turn(ctx context.Context, input string, opening bool) (*Turn, error) {
	e.state = StateProcessing

	e.history = append(e.history, generator.Message{Role: generator.RoleUser, Content: input})
	// Chat turns always take the low-latency tier; the student is waiting.
	raw, err := e.gen.Generate(ctx, generator.Request{
		System:   e.systemPrompt,
		Messages: e.history,
		Fast:     true,
	})
	if err != nil {
		e.history = e.history[:len(e.history)-1]
		if opening {
			e.state = StateInitializing
		} else {
			e.state = StateAwaitingInput
		}
		return nil, fmt.Errorf("generate turn: %w", err)
	}
	// The raw output, tags included, stays in the history so the generator
	// keeps sight of which keys it already emitted.
	e.history = append(e.history, generator.Message{Role: generator.RoleAssistant, Content: raw})

	reply := ParseReply(raw)

	var storeErr error
	for _, ans := range reply.Answers {
		question, ok := e.questionnaire.ByKey(ans.QKey)
		if !ok {
			log.Printf("conversation %s: discarding answer for unknown key %q", e.session.ID, ans.QKey)
			continue
		}
		if e.answered[ans.QKey] {
			continue
		}
		resp, err := e.normalizer.Normalize(ctx, ans, question, e.session.Language)
		if err != nil {
			log.Printf("conversation %s: rejecting answer: %v", e.session.ID, err)
			continue
		}
		resp.ID = uuid.New().String()
		resp.SessionID = e.session.ID
		if err := e.responses.Append(ctx, resp); err != nil {
			storeErr = fmt.Errorf("persist answer for %s: %w", ans.QKey, err)
			break
		}
		e.answered[ans.QKey] = true
	}
	if storeErr != nil {
		e.state = StateAwaitingInput
		return nil, storeErr
	}

	turn := &Turn{
		Reply:        reply.Text,
		Widget:       reply.Widget,
		Choices:      reply.Choices,
		MultiChoices: reply.MultiChoices,
		Answered:     len(e.answered),
		Total:        e.questionnaire.Len(),
	}

	if reply.Complete {
		if turn.Answered < turn.Total {
			log.Printf("conversation %s: completion marker with %d of %d answered", e.session.ID, turn.Answered, turn.Total)
		}
		now := time.Now().UTC()
		if err := e.sessions.MarkComplete(ctx, e.session.ID, now); err != nil {
			// Completion is a durable write like any other; the student can
			// resend and the generator will re-emit the marker.
			e.state = StateAwaitingInput
			return nil, fmt.Errorf("mark session complete: %w", err)
		}
		e.session.CompletedAt = &now
		e.state = StateCompleted
		turn.Done = true
		if turn.Reply == "" {
			turn.Reply = e.completionMessage(ctx)
		}
		return turn, nil
	}

	e.state = StateAwaitingInput
	return turn, nil
}

// completionMessage yields the survey's configured closing text, or the
// default, in the session language.
func (e *Engine) completionMessage(ctx context.Context) string {
	msg := e.survey.CompletionMessage
	if msg == "" {
		msg = defaultChatUI().DefaultCompletion
	}
	if e.translator != nil {
		msg = e.translator.TranslateText(ctx, msg, e.session.Language)
	}
	return msg
}
