package protocol

import (
	"encoding/json"
	"fmt"
)

// Op is an outbound operation sent to the agent backend.
type Op interface {
	OpName() string
}

// Query starts (or continues) a turn in a session. HistoryContext, when set,
// carries prior conversation text for sessions resumed after the backend
// forgot them.
type Query struct {
	SessionID        string   `json:"session_id"`
	Prompt           string   `json:"prompt"`
	ProjectID        string   `json:"project_id,omitempty"`
	BackendSessionID string   `json:"backend_session_id,omitempty"`
	Model            string   `json:"model,omitempty"`
	Attachments      []string `json:"attachments,omitempty"`
	HistoryContext   string   `json:"history_context,omitempty"`
}

func (Query) OpName() string { return "query" }

// Abort requests cancellation of the session's running turn.
type Abort struct {
	SessionID string `json:"session_id"`
}

func (Abort) OpName() string { return "abort" }

// RespondPermission answers a pending permission request.
type RespondPermission struct {
	SessionID  string `json:"session_id"`
	RequestID  string `json:"request_id"`
	Approved   bool   `json:"approved"`
	ApproveAll bool   `json:"approve_all,omitempty"`
}

func (RespondPermission) OpName() string { return "respond_permission" }

// RespondQuestion answers a pending question request.
type RespondQuestion struct {
	SessionID string   `json:"session_id"`
	RequestID string   `json:"request_id"`
	Answers   []string `json:"answers"`
}

func (RespondQuestion) OpName() string { return "respond_question" }

// Attach subscribes the client to an existing backend session's events.
type Attach struct {
	SessionID        string `json:"session_id"`
	BackendSessionID string `json:"backend_session_id,omitempty"`
}

func (Attach) OpName() string { return "attach" }

// EncodeOp serializes an operation with its "op" discriminator injected into
// the top-level object.
func EncodeOp(op Op) ([]byte, error) {
	body, err := json.Marshal(op)
	if err != nil {
		return nil, fmt.Errorf("encode %s op: %w", op.OpName(), err)
	}
	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("encode %s op: %w", op.OpName(), err)
	}
	fields["op"] = op.OpName()
	return json.Marshal(fields)
}
