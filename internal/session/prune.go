package session

// prunedPlaceholder replaces tool result payloads removed to free context.
const prunedPlaceholder = "[tool output removed]"

// PruneToolResults blanks the payloads of tool_result blocks in older
// messages, keeping the most recent keepRecent results intact. It returns
// the number of blocks pruned. Already-pruned blocks are not counted again.
func PruneToolResults(msgs []*Message, keepRecent int) int {
	// Walk backwards so the most recent results are spared.
	remaining := keepRecent
	pruned := 0
	for i := len(msgs) - 1; i >= 0; i-- {
		for j := len(msgs[i].Blocks) - 1; j >= 0; j-- {
			b := &msgs[i].Blocks[j]
			if b.Type != BlockToolResult {
				continue
			}
			if remaining > 0 {
				remaining--
				continue
			}
			if b.Pruned {
				continue
			}
			b.Payload = prunedPlaceholder
			b.Pruned = true
			pruned++
		}
	}
	return pruned
}
