package coordinator

import (
	"github.com/navihq/navi/internal/session"
)

// Pruner frees context space by trimming a session's persisted history.
type Pruner interface {
	PruneToolResults(sessionID string) (int, error)
}

// storePruner is the default Pruner. It blanks older tool result payloads in
// the store, sparing the most recent ones.
type storePruner struct {
	store session.Store
	keep  int
}

func (p storePruner) PruneToolResults(sessionID string) (int, error) {
	msgs, err := p.store.ReadMessages(sessionID)
	if err != nil {
		return 0, err
	}
	pruned := session.PruneToolResults(msgs, p.keep)
	if pruned > 0 {
		if err := p.store.RewriteMessages(sessionID, msgs); err != nil {
			return 0, err
		}
	}
	return pruned, nil
}

// SetPruner replaces the history pruner used for overflow mitigation.
func (c *Coordinator) SetPruner(p Pruner) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pruner = p
}

// mitigateOverflow prunes older tool output from the persisted history and
// resubmits a continuation prompt. It runs on its own goroutine because the
// prune touches disk; gen is the turn generation the overflow belonged to,
// and the continuation is skipped when that turn has been superseded or has
// settled in the meantime. The continuation bypasses the queue so queued
// user messages stay queued behind the recovered turn.
func (c *Coordinator) mitigateOverflow(sessionID string, gen uint64) {
	pruned, err := c.pruner.PruneToolResults(sessionID)
	if err != nil {
		c.log.Error("overflow mitigation: prune failed", "session_id", sessionID, "error", err)
		c.failMitigation(sessionID, gen)
		return
	}
	c.log.Info("overflow mitigation: pruned tool output", "session_id", sessionID, "blocks", pruned)

	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[sessionID]
	if !ok {
		return
	}
	if e.turnGen != gen || !e.busy() {
		c.log.Info("overflow mitigation: turn superseded, continuation skipped", "session_id", sessionID)
		return
	}
	e.status = session.StatusIdle
	if err := c.startTurnLocked(e, c.cfg.Mitigation.ContinuationPrompt, nil, true); err != nil {
		c.log.Error("overflow mitigation: continuation failed", "session_id", sessionID, "error", err)
		return
	}
	// Keep the single-shot guard armed for the retried turn; a second
	// overflow surfaces a user choice instead of looping.
	e.overflowMitigated = true
}

func (c *Coordinator) failMitigation(sessionID string, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[sessionID]
	if !ok {
		return
	}
	if e.turnGen != gen || !e.busy() {
		return
	}
	e.status = session.StatusError
	e.lastError = "context overflow mitigation failed"
	c.notifier.Notify(Notification{
		Kind:      NotifyTurnFailed,
		SessionID: sessionID,
		Message:   e.lastError,
	})
}
