// Package generator abstracts the external text-generation backend. The
// conversation engine only sees the Generator interface so tests can swap in
// a deterministic stub.
package generator

import "context"

// Role identifies the author of a request message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of the conversation passed to the backend
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request describes one generation call
type Request struct {
	System    string    // system instructions
	Messages  []Message // ordered history, oldest first
	MaxTokens int       // 0 means the default cap
	Fast      bool      // prefer the low-latency model tier
}

// Generator produces one text reply for a request. Any non-nil error is a
// recoverable per-turn failure for callers; nothing durable depends on a
// single call succeeding.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}
