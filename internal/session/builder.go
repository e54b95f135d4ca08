package session

import (
	"time"

	"github.com/google/uuid"
)

// MessageBuilder assembles assistant messages from streamed events. One
// builder exists per session; it is reset by Finalize at turn end.
//
// Streaming rules: consecutive deltas of the same block type append to the
// open block; a type change or a tool_use event closes the open block. Tool
// results attach to the tool_use block with the matching id; results with no
// matching open tool use are reported unmatched so the caller can drop them.
type MessageBuilder struct {
	sessionID string
	blocks    []ContentBlock
	openType  BlockType
	// pendingTools maps tool_use_id to the index of its tool_use block,
	// cleared as results arrive or the turn ends.
	pendingTools map[string]int
	started      time.Time
}

// NewMessageBuilder returns an empty builder for the given session.
func NewMessageBuilder(sessionID string) *MessageBuilder {
	return &MessageBuilder{
		sessionID:    sessionID,
		pendingTools: make(map[string]int),
	}
}

// Empty reports whether the builder holds no content.
func (b *MessageBuilder) Empty() bool { return len(b.blocks) == 0 }

// AppendDelta folds a streamed fragment into the current message.
func (b *MessageBuilder) AppendDelta(blockType BlockType, delta string) {
	if b.Empty() {
		b.started = time.Now().UTC()
	}
	if b.openType == blockType && len(b.blocks) > 0 {
		last := &b.blocks[len(b.blocks)-1]
		if last.Type == blockType {
			last.Text += delta
			return
		}
	}
	b.blocks = append(b.blocks, ContentBlock{Type: blockType, Text: delta})
	b.openType = blockType
}

// StartToolUse records a tool invocation block and closes any open
// streaming block.
func (b *MessageBuilder) StartToolUse(toolUseID, name, input string) {
	if b.Empty() {
		b.started = time.Now().UTC()
	}
	b.openType = ""
	b.blocks = append(b.blocks, ContentBlock{
		Type:      BlockToolUse,
		ToolUseID: toolUseID,
		ToolName:  name,
		ToolInput: input,
	})
	b.pendingTools[toolUseID] = len(b.blocks) - 1
}

// CloseToolUse attaches a result to its tool_use block. It returns false when
// no matching tool use exists in the current message; such results must be
// dropped by the caller.
func (b *MessageBuilder) CloseToolUse(toolUseID, payload string, isError bool) bool {
	idx, ok := b.pendingTools[toolUseID]
	if !ok {
		return false
	}
	delete(b.pendingTools, toolUseID)
	b.openType = ""
	b.blocks = append(b.blocks, ContentBlock{
		Type:      BlockToolResult,
		ToolUseID: toolUseID,
		ToolName:  b.blocks[idx].ToolName,
		Payload:   payload,
		IsError:   isError,
	})
	return true
}

// PendingToolUses returns the ids of tool uses still awaiting a result.
func (b *MessageBuilder) PendingToolUses() []string {
	ids := make([]string, 0, len(b.pendingTools))
	for id := range b.pendingTools {
		ids = append(ids, id)
	}
	return ids
}

// Snapshot returns the message as built so far without resetting the
// builder. Used to render in-progress turns.
func (b *MessageBuilder) Snapshot() *Message {
	if b.Empty() {
		return nil
	}
	blocks := make([]ContentBlock, len(b.blocks))
	copy(blocks, b.blocks)
	return &Message{
		SessionID: b.sessionID,
		Role:      RoleAssistant,
		Blocks:    blocks,
		Timestamp: b.started,
	}
}

// Finalize closes the message and resets the builder. It returns nil when
// the turn produced no content.
func (b *MessageBuilder) Finalize() *Message {
	if b.Empty() {
		b.reset()
		return nil
	}
	msg := &Message{
		ID:        uuid.NewString(),
		SessionID: b.sessionID,
		Role:      RoleAssistant,
		Blocks:    b.blocks,
		Timestamp: b.started,
		Final:     true,
	}
	b.reset()
	return msg
}

func (b *MessageBuilder) reset() {
	b.blocks = nil
	b.openType = ""
	b.pendingTools = make(map[string]int)
	b.started = time.Time{}
}

// Rebuild replays persisted assistant messages through a builder so
// rehydrated transcripts carry the same block structure the live path
// produces. Stray tool results are dropped here the same way the dispatcher
// drops them. User and synthetic messages pass through untouched.
func Rebuild(msgs []*Message) []*Message {
	out := make([]*Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Role != RoleAssistant || m.Synthetic {
			out = append(out, m)
			continue
		}
		b := NewMessageBuilder(m.SessionID)
		pruned := make(map[string]bool)
		for _, blk := range m.Blocks {
			switch blk.Type {
			case BlockToolUse:
				b.StartToolUse(blk.ToolUseID, blk.ToolName, blk.ToolInput)
			case BlockToolResult:
				b.CloseToolUse(blk.ToolUseID, blk.Payload, blk.IsError)
				if blk.Pruned {
					pruned[blk.ToolUseID] = true
				}
			default:
				b.AppendDelta(blk.Type, blk.Text)
			}
		}
		r := b.Finalize()
		if r == nil {
			out = append(out, m)
			continue
		}
		r.ID = m.ID
		r.Timestamp = m.Timestamp
		r.Final = m.Final
		for i := range r.Blocks {
			if r.Blocks[i].Type == BlockToolResult && pruned[r.Blocks[i].ToolUseID] {
				r.Blocks[i].Pruned = true
			}
		}
		out = append(out, r)
	}
	return out
}
