// Package protocol defines the wire types exchanged with the agent backend
// over the duplex event channel: a closed set of inbound events and the
// outbound operations the client can send.
//
// Frames for different sessions may interleave on the channel; per-session
// ordering is FIFO by assumption of the transport.
package protocol

import (
	"encoding/json"
	"fmt"
)

// EventType identifies an inbound event kind.
type EventType string

const (
	EventSessionInit       EventType = "session_init"
	EventContentDelta      EventType = "content_delta"
	EventToolUse           EventType = "tool_use"
	EventToolResult        EventType = "tool_result"
	EventUsage             EventType = "usage"
	EventCost              EventType = "cost"
	EventTurnEnd           EventType = "turn_end"
	EventPermissionRequest EventType = "permission_request"
	EventQuestion          EventType = "question"
	EventCompactionStart   EventType = "compaction_start"
	EventCompactionEnd     EventType = "compaction_end"
	EventContextOverflow   EventType = "context_overflow"
	EventUntilDoneContinue EventType = "until_done_continue"
	EventUntilDoneComplete EventType = "until_done_complete"
	EventSubagent          EventType = "subagent_event"
)

// Block type names carried by content_delta frames.
const (
	BlockTypeText     = "text"
	BlockTypeThinking = "thinking"
)

// TurnEndReason classifies how a turn finished.
type TurnEndReason string

const (
	TurnDone    TurnEndReason = "done"
	TurnAborted TurnEndReason = "aborted"
	TurnError   TurnEndReason = "error"
)

// SubagentEventKind classifies subagent lifecycle events.
type SubagentEventKind string

const (
	SubagentSpawned   SubagentEventKind = "spawned"
	SubagentEscalated SubagentEventKind = "escalated"
	SubagentDelivered SubagentEventKind = "delivered"
)

// Event is an inbound frame. The set of implementations is closed; consumers
// dispatch with a type switch.
type Event interface {
	Kind() EventType
	// Session returns the client-side session id the event belongs to.
	Session() string
}

// SessionInit announces the backend conversation created for a session.
type SessionInit struct {
	SessionID        string `json:"session_id"`
	BackendSessionID string `json:"backend_session_id"`
	Model            string `json:"model,omitempty"`
}

func (e *SessionInit) Kind() EventType { return EventSessionInit }
func (e *SessionInit) Session() string { return e.SessionID }

// ContentDelta streams a fragment of a text or thinking block.
type ContentDelta struct {
	SessionID string `json:"session_id"`
	BlockType string `json:"block_type"`
	Delta     string `json:"delta"`
}

func (e *ContentDelta) Kind() EventType { return EventContentDelta }
func (e *ContentDelta) Session() string { return e.SessionID }

// ToolUse announces a tool invocation started by the agent.
type ToolUse struct {
	SessionID string          `json:"session_id"`
	ToolUseID string          `json:"tool_use_id"`
	Name      string          `json:"name"`
	Input     json.RawMessage `json:"input,omitempty"`
}

func (e *ToolUse) Kind() EventType { return EventToolUse }
func (e *ToolUse) Session() string { return e.SessionID }

// ToolResult carries the outcome of a previously announced tool use.
type ToolResult struct {
	SessionID string          `json:"session_id"`
	ToolUseID string          `json:"tool_use_id"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`
}

func (e *ToolResult) Kind() EventType { return EventToolResult }
func (e *ToolResult) Session() string { return e.SessionID }

// Usage reports token consumption for a turn. TurnID lets the client
// deduplicate redelivered frames.
type Usage struct {
	SessionID    string `json:"session_id"`
	TurnID       string `json:"turn_id,omitempty"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
}

func (e *Usage) Kind() EventType { return EventUsage }
func (e *Usage) Session() string { return e.SessionID }

// Cost reports the monetary cost of a turn.
type Cost struct {
	SessionID string  `json:"session_id"`
	TurnID    string  `json:"turn_id,omitempty"`
	CostUSD   float64 `json:"cost_usd"`
}

func (e *Cost) Kind() EventType { return EventCost }
func (e *Cost) Session() string { return e.SessionID }

// TurnEnd terminates the running turn for a session.
type TurnEnd struct {
	SessionID string        `json:"session_id"`
	TurnID    string        `json:"turn_id,omitempty"`
	Reason    TurnEndReason `json:"reason"`
}

func (e *TurnEnd) Kind() EventType { return EventTurnEnd }
func (e *TurnEnd) Session() string { return e.SessionID }

// PermissionRequest asks the user to approve a tool invocation.
type PermissionRequest struct {
	SessionID string          `json:"session_id"`
	RequestID string          `json:"request_id"`
	Tools     []string        `json:"tools,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	Message   string          `json:"message,omitempty"`
}

func (e *PermissionRequest) Kind() EventType { return EventPermissionRequest }
func (e *PermissionRequest) Session() string { return e.SessionID }

// Question asks the user one or more clarifying questions.
type Question struct {
	SessionID string   `json:"session_id"`
	RequestID string   `json:"request_id"`
	Questions []string `json:"questions"`
}

func (e *Question) Kind() EventType { return EventQuestion }
func (e *Question) Session() string { return e.SessionID }

// CompactionStart marks the beginning of backend-side history compaction.
type CompactionStart struct {
	SessionID string `json:"session_id"`
	PreTokens int    `json:"pre_tokens,omitempty"`
}

func (e *CompactionStart) Kind() EventType { return EventCompactionStart }
func (e *CompactionStart) Session() string { return e.SessionID }

// CompactionEnd marks compaction completion. PostTokens is the backend's
// estimate of context usage after compaction.
type CompactionEnd struct {
	SessionID  string `json:"session_id"`
	PreTokens  int    `json:"pre_tokens,omitempty"`
	PostTokens int    `json:"post_tokens,omitempty"`
}

func (e *CompactionEnd) Kind() EventType { return EventCompactionEnd }
func (e *CompactionEnd) Session() string { return e.SessionID }

// ContextOverflow signals the conversation exceeded the model's context
// window. AutoRetry indicates the client may mitigate without asking.
type ContextOverflow struct {
	SessionID string `json:"session_id"`
	AutoRetry bool   `json:"auto_retry"`
}

func (e *ContextOverflow) Kind() EventType { return EventContextOverflow }
func (e *ContextOverflow) Session() string { return e.SessionID }

// UntilDoneContinue mirrors the backend's view of the autonomous loop.
type UntilDoneContinue struct {
	SessionID     string  `json:"session_id"`
	Iteration     int     `json:"iteration"`
	MaxIterations int     `json:"max_iterations"`
	TotalCost     float64 `json:"total_cost,omitempty"`
}

func (e *UntilDoneContinue) Kind() EventType { return EventUntilDoneContinue }
func (e *UntilDoneContinue) Session() string { return e.SessionID }

// UntilDoneComplete is the backend's explicit completion signal; it disables
// the loop regardless of the iteration cap.
type UntilDoneComplete struct {
	SessionID string  `json:"session_id"`
	Iteration int     `json:"iteration"`
	TotalCost float64 `json:"total_cost,omitempty"`
	Reason    string  `json:"reason,omitempty"`
}

func (e *UntilDoneComplete) Kind() EventType { return EventUntilDoneComplete }
func (e *UntilDoneComplete) Session() string { return e.SessionID }

// Subagent reports lifecycle events of subagents spawned during a turn.
// These never alter the parent session's run state.
type Subagent struct {
	SessionID string            `json:"session_id"`
	EventKind SubagentEventKind `json:"kind"`
	ToolUseID string            `json:"tool_use_id"`
	Detail    string            `json:"detail,omitempty"`
}

func (e *Subagent) Kind() EventType { return EventSubagent }
func (e *Subagent) Session() string { return e.SessionID }

// ParseEvent decodes an inbound frame. The "type" field selects the concrete
// event; unknown types are an error so the caller can drop the frame.
func ParseEvent(data []byte) (Event, error) {
	var env struct {
		Type EventType `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("malformed event frame: %w", err)
	}

	var ev Event
	switch env.Type {
	case EventSessionInit:
		ev = &SessionInit{}
	case EventContentDelta:
		ev = &ContentDelta{}
	case EventToolUse:
		ev = &ToolUse{}
	case EventToolResult:
		ev = &ToolResult{}
	case EventUsage:
		ev = &Usage{}
	case EventCost:
		ev = &Cost{}
	case EventTurnEnd:
		ev = &TurnEnd{}
	case EventPermissionRequest:
		ev = &PermissionRequest{}
	case EventQuestion:
		ev = &Question{}
	case EventCompactionStart:
		ev = &CompactionStart{}
	case EventCompactionEnd:
		ev = &CompactionEnd{}
	case EventContextOverflow:
		ev = &ContextOverflow{}
	case EventUntilDoneContinue:
		ev = &UntilDoneContinue{}
	case EventUntilDoneComplete:
		ev = &UntilDoneComplete{}
	case EventSubagent:
		ev = &Subagent{}
	default:
		return nil, fmt.Errorf("unknown event type %q", env.Type)
	}

	if err := json.Unmarshal(data, ev); err != nil {
		return nil, fmt.Errorf("malformed %s event: %w", env.Type, err)
	}
	return ev, nil
}
