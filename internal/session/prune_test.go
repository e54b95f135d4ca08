package session

import "testing"

func toolResult(id, payload string) ContentBlock {
	return ContentBlock{Type: BlockToolResult, ToolUseID: id, Payload: payload}
}

func TestPruneToolResultsKeepsRecent(t *testing.T) {
	msgs := []*Message{
		{Blocks: []ContentBlock{toolResult("t1", "one"), toolResult("t2", "two")}},
		{Blocks: []ContentBlock{{Type: BlockText, Text: "hi"}, toolResult("t3", "three")}},
		{Blocks: []ContentBlock{toolResult("t4", "four")}},
	}

	pruned := PruneToolResults(msgs, 2)
	if pruned != 2 {
		t.Fatalf("PruneToolResults() = %d, want 2", pruned)
	}

	// The two most recent results survive untouched.
	if msgs[2].Blocks[0].Pruned || msgs[2].Blocks[0].Payload != "four" {
		t.Errorf("t4 was pruned: %+v", msgs[2].Blocks[0])
	}
	if msgs[1].Blocks[1].Pruned || msgs[1].Blocks[1].Payload != "three" {
		t.Errorf("t3 was pruned: %+v", msgs[1].Blocks[1])
	}
	// Older results are blanked.
	for _, b := range msgs[0].Blocks {
		if !b.Pruned {
			t.Errorf("%s not pruned", b.ToolUseID)
		}
		if b.Payload == "one" || b.Payload == "two" {
			t.Errorf("%s payload still present", b.ToolUseID)
		}
	}
	// Non-result blocks are untouched.
	if msgs[1].Blocks[0].Text != "hi" {
		t.Errorf("text block modified: %+v", msgs[1].Blocks[0])
	}
}

func TestPruneToolResultsIdempotent(t *testing.T) {
	msgs := []*Message{
		{Blocks: []ContentBlock{toolResult("t1", "one"), toolResult("t2", "two")}},
	}
	if got := PruneToolResults(msgs, 0); got != 2 {
		t.Fatalf("first prune = %d, want 2", got)
	}
	if got := PruneToolResults(msgs, 0); got != 0 {
		t.Errorf("second prune = %d, want 0", got)
	}
}

func TestPruneToolResultsNothingToDo(t *testing.T) {
	msgs := []*Message{
		{Blocks: []ContentBlock{{Type: BlockText, Text: "hello"}}},
	}
	if got := PruneToolResults(msgs, 3); got != 0 {
		t.Errorf("PruneToolResults() = %d, want 0", got)
	}
}
