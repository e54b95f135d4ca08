// Package session holds the per-session domain model: session metadata,
// messages and their content blocks, the outgoing message queue, and the
// on-disk store.
package session

import (
	"time"
)

// Status is the run state of a session. Transitions are driven by the
// coordinator; at most one turn is in flight per session.
type Status string

const (
	StatusIdle          Status = "idle"
	StatusRunning       Status = "running"
	StatusAwaitingInput Status = "awaiting_input"
	StatusError         Status = "error"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// BlockType classifies a content block within a message.
type BlockType string

const (
	BlockText       BlockType = "text"
	BlockThinking   BlockType = "thinking"
	BlockToolUse    BlockType = "tool_use"
	BlockToolResult BlockType = "tool_result"
)

// ContentBlock is one unit of assistant or user output. Text and thinking
// blocks accumulate streamed deltas; tool_use blocks are paired with a
// tool_result block via ToolUseID.
type ContentBlock struct {
	Type      BlockType `json:"type"`
	Text      string    `json:"text,omitempty"`
	ToolUseID string    `json:"tool_use_id,omitempty"`
	ToolName  string    `json:"tool_name,omitempty"`
	ToolInput string    `json:"tool_input,omitempty"`
	Payload   string    `json:"payload,omitempty"`
	IsError   bool      `json:"is_error,omitempty"`
	Pruned    bool      `json:"pruned,omitempty"`
}

// Message is a finalized or in-progress conversation entry.
type Message struct {
	ID        string         `json:"id"`
	SessionID string         `json:"session_id"`
	Role      Role           `json:"role"`
	Blocks    []ContentBlock `json:"blocks"`
	Timestamp time.Time      `json:"timestamp"`
	// Synthetic marks messages the client injected itself, such as
	// mitigation continuation prompts and abort notices.
	Synthetic bool `json:"synthetic,omitempty"`
	// Final is set once the turn that produced the message ended.
	Final bool `json:"final,omitempty"`
}

// Usage is cumulative token consumption for a session.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Session is the persisted metadata for one conversation.
type Session struct {
	ID               string    `json:"id"`
	Title            string    `json:"title,omitempty"`
	ProjectID        string    `json:"project_id,omitempty"`
	Model            string    `json:"model,omitempty"`
	BackendSessionID string    `json:"backend_session_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
	Archived         bool      `json:"archived,omitempty"`
	ArchivedAt       time.Time `json:"archived_at,omitempty"`
	// Draft is unsent input preserved across client restarts.
	Draft string `json:"draft,omitempty"`
	// ForkedFrom names the session this one was forked off, if any.
	ForkedFrom string  `json:"forked_from,omitempty"`
	Usage      Usage   `json:"usage"`
	CostUSD    float64 `json:"cost_usd"`
	// ContextTokens is the backend's latest estimate of context usage,
	// reset by compaction.
	ContextTokens int `json:"context_tokens,omitempty"`
	// Compacting is true between compaction_start and compaction_end.
	Compacting bool `json:"-"`
}

// Touch updates the modification timestamp.
func (s *Session) Touch() {
	s.UpdatedAt = time.Now().UTC()
}
