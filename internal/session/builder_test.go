package session

import (
	"testing"
)

func TestBuilderAppendsConsecutiveDeltas(t *testing.T) {
	b := NewMessageBuilder("s1")
	b.AppendDelta(BlockText, "Hello ")
	b.AppendDelta(BlockText, "world")

	msg := b.Finalize()
	if msg == nil {
		t.Fatal("Finalize() = nil, want message")
	}
	if len(msg.Blocks) != 1 {
		t.Fatalf("len(Blocks) = %d, want 1", len(msg.Blocks))
	}
	if got := msg.Blocks[0].Text; got != "Hello world" {
		t.Errorf("Text = %q, want %q", got, "Hello world")
	}
	if msg.Role != RoleAssistant {
		t.Errorf("Role = %q, want %q", msg.Role, RoleAssistant)
	}
	if !msg.Final {
		t.Error("Final = false, want true")
	}
}

func TestBuilderTypeChangeOpensNewBlock(t *testing.T) {
	b := NewMessageBuilder("s1")
	b.AppendDelta(BlockThinking, "hmm")
	b.AppendDelta(BlockText, "answer")
	b.AppendDelta(BlockText, " more")

	msg := b.Finalize()
	if len(msg.Blocks) != 2 {
		t.Fatalf("len(Blocks) = %d, want 2", len(msg.Blocks))
	}
	if msg.Blocks[0].Type != BlockThinking || msg.Blocks[0].Text != "hmm" {
		t.Errorf("block 0 = %+v, want thinking %q", msg.Blocks[0], "hmm")
	}
	if msg.Blocks[1].Type != BlockText || msg.Blocks[1].Text != "answer more" {
		t.Errorf("block 1 = %+v, want text %q", msg.Blocks[1], "answer more")
	}
}

func TestBuilderToolUseClosesOpenBlock(t *testing.T) {
	b := NewMessageBuilder("s1")
	b.AppendDelta(BlockText, "let me check")
	b.StartToolUse("t1", "read_file", `{"path":"a.go"}`)
	b.AppendDelta(BlockText, "done")

	msg := b.Finalize()
	if len(msg.Blocks) != 3 {
		t.Fatalf("len(Blocks) = %d, want 3", len(msg.Blocks))
	}
	if msg.Blocks[1].Type != BlockToolUse || msg.Blocks[1].ToolUseID != "t1" {
		t.Errorf("block 1 = %+v, want tool_use t1", msg.Blocks[1])
	}
	// The delta after the tool use must not merge into the first text block.
	if msg.Blocks[2].Text != "done" {
		t.Errorf("block 2 Text = %q, want %q", msg.Blocks[2].Text, "done")
	}
}

func TestBuilderToolResultPairing(t *testing.T) {
	b := NewMessageBuilder("s1")
	b.StartToolUse("t1", "bash", `{"cmd":"ls"}`)

	if ok := b.CloseToolUse("t1", "file.go", false); !ok {
		t.Fatal("CloseToolUse(t1) = false, want true")
	}
	msg := b.Finalize()
	if len(msg.Blocks) != 2 {
		t.Fatalf("len(Blocks) = %d, want 2", len(msg.Blocks))
	}
	res := msg.Blocks[1]
	if res.Type != BlockToolResult {
		t.Fatalf("block 1 Type = %q, want %q", res.Type, BlockToolResult)
	}
	if res.ToolUseID != "t1" || res.ToolName != "bash" || res.Payload != "file.go" {
		t.Errorf("result block = %+v", res)
	}
}

func TestBuilderUnmatchedToolResultDropped(t *testing.T) {
	b := NewMessageBuilder("s1")
	b.StartToolUse("t1", "bash", "")

	if ok := b.CloseToolUse("t99", "stray", false); ok {
		t.Error("CloseToolUse(t99) = true, want false for unmatched result")
	}
	msg := b.Finalize()
	if len(msg.Blocks) != 1 {
		t.Errorf("len(Blocks) = %d, want 1 (stray result must not append)", len(msg.Blocks))
	}
}

func TestBuilderDuplicateToolResultDropped(t *testing.T) {
	b := NewMessageBuilder("s1")
	b.StartToolUse("t1", "bash", "")
	if ok := b.CloseToolUse("t1", "first", false); !ok {
		t.Fatal("first CloseToolUse = false, want true")
	}
	if ok := b.CloseToolUse("t1", "second", false); ok {
		t.Error("second CloseToolUse = true, want false")
	}
}

func TestBuilderPendingToolUses(t *testing.T) {
	b := NewMessageBuilder("s1")
	b.StartToolUse("t1", "bash", "")
	b.StartToolUse("t2", "read_file", "")
	b.CloseToolUse("t1", "ok", false)

	pending := b.PendingToolUses()
	if len(pending) != 1 || pending[0] != "t2" {
		t.Errorf("PendingToolUses() = %v, want [t2]", pending)
	}
}

func TestBuilderFinalizeEmptyReturnsNil(t *testing.T) {
	b := NewMessageBuilder("s1")
	if msg := b.Finalize(); msg != nil {
		t.Errorf("Finalize() = %+v, want nil for empty builder", msg)
	}
}

func TestBuilderSnapshotDoesNotReset(t *testing.T) {
	b := NewMessageBuilder("s1")
	b.AppendDelta(BlockText, "partial")

	snap := b.Snapshot()
	if snap == nil || len(snap.Blocks) != 1 {
		t.Fatalf("Snapshot() = %+v, want one block", snap)
	}
	if snap.Final {
		t.Error("Snapshot().Final = true, want false")
	}

	b.AppendDelta(BlockText, " text")
	msg := b.Finalize()
	if got := msg.Blocks[0].Text; got != "partial text" {
		t.Errorf("Text after snapshot = %q, want %q", got, "partial text")
	}
	if snap.Blocks[0].Text != "partial" {
		t.Errorf("snapshot mutated to %q", snap.Blocks[0].Text)
	}
}

func TestBuilderResetsAfterFinalize(t *testing.T) {
	b := NewMessageBuilder("s1")
	b.AppendDelta(BlockText, "turn one")
	first := b.Finalize()

	b.AppendDelta(BlockText, "turn two")
	second := b.Finalize()

	if first.ID == second.ID {
		t.Error("consecutive messages share an id")
	}
	if len(second.Blocks) != 1 || second.Blocks[0].Text != "turn two" {
		t.Errorf("second message = %+v, want single %q block", second.Blocks, "turn two")
	}
}

func TestRebuildNormalizesPersistedMessages(t *testing.T) {
	msgs := []*Message{
		{ID: "u1", Role: RoleUser, Blocks: []ContentBlock{{Type: BlockText, Text: "hi"}}},
		{ID: "a1", Role: RoleAssistant, Blocks: []ContentBlock{
			// Split text blocks from an older writer merge on rebuild.
			{Type: BlockText, Text: "hel"},
			{Type: BlockText, Text: "lo"},
			{Type: BlockToolUse, ToolUseID: "t1", ToolName: "bash"},
			{Type: BlockToolResult, ToolUseID: "t1", Payload: "[tool output removed]", Pruned: true},
			// Stray result with no matching tool use in this message.
			{Type: BlockToolResult, ToolUseID: "orphan", Payload: "x"},
		}},
		{ID: "s1", Role: RoleAssistant, Synthetic: true, Blocks: []ContentBlock{{Type: BlockText, Text: "note"}}},
	}

	out := Rebuild(msgs)
	if len(out) != 3 {
		t.Fatalf("messages = %d, want 3", len(out))
	}
	if out[0] != msgs[0] || out[2] != msgs[2] {
		t.Error("user and synthetic messages should pass through untouched")
	}

	a := out[1]
	if a.ID != "a1" {
		t.Errorf("ID = %q, want preserved", a.ID)
	}
	if len(a.Blocks) != 3 {
		t.Fatalf("blocks = %d, want 3 (merged text, tool use, tool result)", len(a.Blocks))
	}
	if a.Blocks[0].Text != "hello" {
		t.Errorf("text block = %q, want merged %q", a.Blocks[0].Text, "hello")
	}
	if !a.Blocks[2].Pruned {
		t.Error("pruned flag lost on rebuild")
	}
}

func TestRebuildCanonicalMessageIsIdentity(t *testing.T) {
	b := NewMessageBuilder("s1")
	b.AppendDelta(BlockThinking, "plan")
	b.AppendDelta(BlockText, "doing it")
	b.StartToolUse("t1", "bash", `{"cmd":"ls"}`)
	b.CloseToolUse("t1", "out", false)
	msg := b.Finalize()

	out := Rebuild([]*Message{msg})
	if len(out) != 1 {
		t.Fatalf("messages = %d, want 1", len(out))
	}
	got := out[0]
	if len(got.Blocks) != len(msg.Blocks) {
		t.Fatalf("blocks = %d, want %d", len(got.Blocks), len(msg.Blocks))
	}
	for i := range msg.Blocks {
		if got.Blocks[i] != msg.Blocks[i] {
			t.Errorf("block %d = %+v, want %+v", i, got.Blocks[i], msg.Blocks[i])
		}
	}
}
