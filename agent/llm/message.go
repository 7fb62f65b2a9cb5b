// Package llm wraps chat-completion providers behind a small neutral
// interface so the orchestrator is independent of any one vendor. Providers
// are tried in order with first-success semantics.
package llm

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one turn of provider-neutral chat history. Assistant messages
// may carry tool calls; tool messages answer one by ToolCallID.
type Message struct {
	Role       Role
	Content    string
	ToolCalls  []RawToolCall
	ToolCallID string
}

// RawToolCall is a tool invocation exactly as the model emitted it, with the
// argument payload still as JSON.
type RawToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// Completion is one model response: free text, tool calls, or both.
type Completion struct {
	Content   string
	ToolCalls []RawToolCall
}

type Request struct {
	System    string
	Messages  []Message
	Tools     []*schema.ToolInfo
	MaxTokens int
}

// Provider produces one completion. Implementations must be safe for
// concurrent use.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (*Completion, error)
}
