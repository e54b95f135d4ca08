// Package coordinator drives the per-session state machines. It owns the
// registry of live sessions, routes inbound events to them, serializes user
// operations against the event stream, and persists conversation state.
package coordinator

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/navihq/navi/internal/config"
	"github.com/navihq/navi/internal/conn"
	"github.com/navihq/navi/internal/logging"
	"github.com/navihq/navi/internal/protocol"
	"github.com/navihq/navi/internal/session"
)

// Sender is the outbound half of the connection, satisfied by conn.Manager.
type Sender interface {
	Send(op protocol.Op) error
	Attach(sessionID, backendSessionID string)
}

// OverflowAction is the user's choice for a surfaced context overflow.
type OverflowAction string

const (
	// OverflowPrune trims older tool output and retries.
	OverflowPrune OverflowAction = "prune"
	// OverflowCompact asks the backend to compact the conversation.
	OverflowCompact OverflowAction = "compact"
	// OverflowNewChat abandons the turn; the user starts over elsewhere.
	OverflowNewChat OverflowAction = "new_chat"
)

// keepRecentToolResults is how many trailing tool results pruning spares.
const keepRecentToolResults = 3

// Coordinator multiplexes all sessions over one connection. A single mutex
// serializes user operations and inbound dispatch; the connection manager
// delivers events one at a time, so per-session ordering holds end to end.
type Coordinator struct {
	mu       sync.Mutex
	cfg      *config.Config
	sender   Sender
	store    session.Store
	pruner   Pruner
	notifier Notifier
	log      *slog.Logger
	// anomalies throttles logs for malformed or out-of-order traffic so a
	// misbehaving backend cannot flood the log.
	anomalies *logging.Throttle

	entries map[string]*entry
}

// New wires a coordinator. notifier may be nil.
func New(cfg *config.Config, sender Sender, store session.Store, notifier Notifier) *Coordinator {
	log := logging.Coordinator()
	if notifier == nil {
		notifier = NotifierFunc(func(Notification) {})
	}
	return &Coordinator{
		cfg:       cfg,
		sender:    sender,
		store:     store,
		pruner:    storePruner{store: store, keep: keepRecentToolResults},
		notifier:  notifier,
		log:       log,
		anomalies: logging.NewThrottle(log, 1, 5),
		entries:   make(map[string]*entry),
	}
}

// SetConfig swaps the active configuration, used by hot reload. In-flight
// turns keep the parameters they started with.
func (c *Coordinator) SetConfig(cfg *config.Config) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg = cfg
	c.log.Info("configuration reloaded")
}

// Hydrate loads persisted sessions into the registry. Sessions bound to a
// backend session are marked for re-attachment.
func (c *Coordinator) Hydrate() error {
	sessions, err := c.store.List()
	if err != nil {
		return fmt.Errorf("hydrate sessions: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range sessions {
		if _, ok := c.entries[s.ID]; ok {
			continue
		}
		e := newEntry(s)
		e.attached = s.BackendSessionID != ""
		c.entries[s.ID] = e
	}
	c.log.Info("sessions hydrated", "count", len(sessions))
	return nil
}

// Submit sends user input to a session, creating the session when sessionID
// is empty. If a turn is already in flight the input is queued and sent when
// the turn ends. The session id is returned.
func (c *Coordinator) Submit(sessionID, text string, attachments []string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("empty prompt")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	var e *entry
	if sessionID == "" {
		s := &session.Session{Title: deriveTitle(text), Model: c.cfg.Agent.DefaultModel, ProjectID: c.cfg.Agent.DefaultProject}
		if err := c.store.Create(s); err != nil {
			return "", err
		}
		e = newEntry(s)
		c.entries[s.ID] = e
		sessionID = s.ID
	} else {
		var err error
		e, err = c.entryLocked(sessionID)
		if err != nil {
			return "", err
		}
	}

	if e.busy() {
		e.queue.Enqueue(session.QueuedMessage{Text: text, Attachments: attachments})
		c.log.Debug("message queued", "session_id", sessionID, "queue_len", e.queue.Len())
		return sessionID, nil
	}
	if err := c.startTurnLocked(e, text, attachments, false); err != nil {
		return sessionID, err
	}
	return sessionID, nil
}

// Abort cancels the session's running turn. When the abort cannot be
// delivered the session is forced idle locally so the user is never stuck.
func (c *Coordinator) Abort(sessionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, err := c.entryLocked(sessionID)
	if err != nil {
		return err
	}
	if !e.busy() {
		return nil
	}
	if err := c.sender.Send(protocol.Abort{SessionID: sessionID}); err != nil {
		c.log.Warn("abort send failed, forcing idle", "session_id", sessionID, "error", err)
		c.finalizeTurnLocked(e)
		c.appendSyntheticLocked(e, "Request stopped.")
		e.status = session.StatusIdle
		e.broker.clear()
		clear(e.subagents)
		return nil
	}
	return nil
}

// RespondPermission answers the pending permission request. Responses whose
// request id no longer matches the pending one are ignored.
func (c *Coordinator) RespondPermission(sessionID, requestID string, approved, approveAll bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, err := c.entryLocked(sessionID)
	if err != nil {
		return err
	}
	if _, ok := e.broker.takePermission(requestID); !ok {
		c.anomalies.Warn("stale permission response ignored",
			"session_id", sessionID, "request_id", requestID)
		return nil
	}
	if err := c.sender.Send(protocol.RespondPermission{
		SessionID:  sessionID,
		RequestID:  requestID,
		Approved:   approved,
		ApproveAll: approveAll,
	}); err != nil {
		return err
	}
	if !e.broker.pending() {
		e.status = session.StatusRunning
	}
	return nil
}

// RespondQuestion answers the pending question. Stale responses are ignored.
func (c *Coordinator) RespondQuestion(sessionID, requestID string, answers []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, err := c.entryLocked(sessionID)
	if err != nil {
		return err
	}
	if _, ok := e.broker.takeQuestion(requestID); !ok {
		c.anomalies.Warn("stale question response ignored",
			"session_id", sessionID, "request_id", requestID)
		return nil
	}
	if err := c.sender.Send(protocol.RespondQuestion{
		SessionID: sessionID,
		RequestID: requestID,
		Answers:   answers,
	}); err != nil {
		return err
	}
	if !e.broker.pending() {
		e.status = session.StatusRunning
	}
	return nil
}

// EnableUntilDone arms the auto-continuation loop. maxIterations <= 0 uses
// the configured default.
func (c *Coordinator) EnableUntilDone(sessionID string, maxIterations int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, err := c.entryLocked(sessionID)
	if err != nil {
		return err
	}
	if maxIterations <= 0 {
		maxIterations = c.cfg.UntilDone.MaxIterations
	}
	e.loop.enable(maxIterations)
	c.log.Info("until-done enabled", "session_id", sessionID, "max_iterations", maxIterations)
	return nil
}

// DisableUntilDone disarms the auto-continuation loop. If a turn is in
// flight its abort is requested as well.
func (c *Coordinator) DisableUntilDone(sessionID string) error {
	c.mu.Lock()
	e, err := c.entryLocked(sessionID)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	wasEnabled := e.loop.enabled
	e.loop.disable()
	busy := e.busy()
	c.mu.Unlock()

	c.log.Info("until-done disabled", "session_id", sessionID)
	if wasEnabled && busy {
		return c.Abort(sessionID)
	}
	return nil
}

// AttachSession subscribes to a session's live event stream. Attaching an
// already attached session is a no-op.
func (c *Coordinator) AttachSession(sessionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, err := c.entryLocked(sessionID)
	if err != nil {
		return err
	}
	if e.attached {
		return nil
	}
	c.sender.Attach(sessionID, e.sess.BackendSessionID)
	e.attached = true
	return nil
}

// ResolveOverflow applies the user's choice after a surfaced context
// overflow.
func (c *Coordinator) ResolveOverflow(sessionID string, action OverflowAction) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, err := c.entryLocked(sessionID)
	if err != nil {
		return err
	}
	switch action {
	case OverflowPrune:
		e.status = session.StatusRunning
		go c.mitigateOverflow(sessionID, e.turnGen)
		return nil
	case OverflowCompact:
		e.status = session.StatusIdle
		return c.startTurnLocked(e, c.cfg.Mitigation.CompactPrompt, nil, true)
	case OverflowNewChat:
		c.finalizeTurnLocked(e)
		e.loop.disable()
		e.status = session.StatusIdle
		return nil
	default:
		return fmt.Errorf("unknown overflow action %q", action)
	}
}

// Rollback discards every message after the given one. The backend binding
// is dropped too, since the backend's conversation no longer matches; the
// next submit replays the remaining history.
func (c *Coordinator) Rollback(sessionID, messageID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, err := c.entryLocked(sessionID)
	if err != nil {
		return err
	}
	if e.busy() {
		return fmt.Errorf("session %s has a turn in flight", sessionID)
	}
	msgs, err := c.store.ReadMessages(sessionID)
	if err != nil {
		return err
	}
	idx := -1
	for i, m := range msgs {
		if m.ID == messageID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("unknown message %s in session %s", messageID, sessionID)
	}
	if err := c.store.RewriteMessages(sessionID, msgs[:idx+1]); err != nil {
		return err
	}
	e.sess.BackendSessionID = ""
	e.attached = false
	c.persistSessionLocked(e)
	return nil
}

// EditMessage rewrites a prior user message: it and everything after it are
// discarded, then the new text is submitted as a fresh turn.
func (c *Coordinator) EditMessage(sessionID, messageID, text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("empty prompt")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e, err := c.entryLocked(sessionID)
	if err != nil {
		return err
	}
	if e.busy() {
		return fmt.Errorf("session %s has a turn in flight", sessionID)
	}
	msgs, err := c.store.ReadMessages(sessionID)
	if err != nil {
		return err
	}
	idx := -1
	for i, m := range msgs {
		if m.ID == messageID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("unknown message %s in session %s", messageID, sessionID)
	}
	if msgs[idx].Role != session.RoleUser {
		return fmt.Errorf("message %s is not a user message", messageID)
	}
	if err := c.store.RewriteMessages(sessionID, msgs[:idx]); err != nil {
		return err
	}
	e.sess.BackendSessionID = ""
	e.attached = false
	return c.startTurnLocked(e, text, nil, false)
}

// HandleEvent is the single inbound dispatcher, invoked inline from the
// connection read loop.
func (c *Coordinator) HandleEvent(ev protocol.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[ev.Session()]
	if !ok {
		c.anomalies.Warn("event for unknown session dropped",
			"session_id", ev.Session(), "type", string(ev.Kind()))
		return
	}

	switch ev := ev.(type) {
	case *protocol.SessionInit:
		e.sess.BackendSessionID = ev.BackendSessionID
		if ev.Model != "" {
			e.sess.Model = ev.Model
		}
		c.persistSessionLocked(e)
	case *protocol.ContentDelta:
		e.builder.AppendDelta(session.BlockType(ev.BlockType), ev.Delta)
	case *protocol.ToolUse:
		e.builder.StartToolUse(ev.ToolUseID, ev.Name, string(ev.Input))
	case *protocol.ToolResult:
		if !e.builder.CloseToolUse(ev.ToolUseID, string(ev.Payload), ev.IsError) {
			c.anomalies.Warn("unmatched tool result dropped",
				"session_id", ev.SessionID, "tool_use_id", ev.ToolUseID)
		}
	case *protocol.Usage:
		c.handleUsageLocked(e, ev)
	case *protocol.Cost:
		c.handleCostLocked(e, ev)
	case *protocol.TurnEnd:
		c.handleTurnEndLocked(e, ev)
	case *protocol.PermissionRequest:
		c.handlePermissionLocked(e, ev)
	case *protocol.Question:
		c.handleQuestionLocked(e, ev)
	case *protocol.CompactionStart:
		e.sess.Compacting = true
		c.appendSyntheticLocked(e, "Compacting conversation to free context.")
		c.log.Info("compaction started", "session_id", ev.SessionID, "pre_tokens", ev.PreTokens)
	case *protocol.CompactionEnd:
		e.sess.Compacting = false
		e.sess.ContextTokens = ev.PostTokens
		c.appendSyntheticLocked(e, fmt.Sprintf("Conversation compacted (%d -> %d tokens).", ev.PreTokens, ev.PostTokens))
		c.persistSessionLocked(e)
	case *protocol.ContextOverflow:
		c.handleOverflowLocked(e, ev)
	case *protocol.UntilDoneContinue:
		c.log.Info("until-done continuing",
			"session_id", ev.SessionID, "iteration", ev.Iteration, "max_iterations", ev.MaxIterations)
	case *protocol.UntilDoneComplete:
		e.loop.disable()
		reason := ev.Reason
		if reason == "" {
			reason = "task complete"
		}
		c.notifier.Notify(Notification{
			Kind:      NotifyUntilDoneComplete,
			SessionID: ev.SessionID,
			Message:   fmt.Sprintf("%s after %d iterations ($%.4f total).", reason, ev.Iteration, ev.TotalCost),
		})
	case *protocol.Subagent:
		c.handleSubagentLocked(e, ev)
	}
}

func (c *Coordinator) handleUsageLocked(e *entry, ev *protocol.Usage) {
	if ev.TurnID != "" {
		if _, seen := e.usageTurns[ev.TurnID]; seen {
			c.anomalies.Warn("duplicate usage frame ignored",
				"session_id", ev.SessionID, "turn_id", ev.TurnID)
			return
		}
		e.usageTurns[ev.TurnID] = struct{}{}
	}
	e.sess.Usage.InputTokens += ev.InputTokens
	e.sess.Usage.OutputTokens += ev.OutputTokens
	e.sess.ContextTokens = ev.InputTokens + ev.OutputTokens
}

func (c *Coordinator) handleCostLocked(e *entry, ev *protocol.Cost) {
	if ev.TurnID != "" {
		if _, seen := e.costTurns[ev.TurnID]; seen {
			c.anomalies.Warn("duplicate cost frame ignored",
				"session_id", ev.SessionID, "turn_id", ev.TurnID)
			return
		}
		e.costTurns[ev.TurnID] = struct{}{}
	}
	e.sess.CostUSD += ev.CostUSD
}

func (c *Coordinator) handlePermissionLocked(e *entry, ev *protocol.PermissionRequest) {
	if old := e.broker.setPermission(ev); old != nil {
		c.log.Warn("pending permission replaced",
			"session_id", ev.SessionID, "old_request_id", old.RequestID, "request_id", ev.RequestID)
	}
	e.status = session.StatusAwaitingInput
	c.notifier.Notify(Notification{
		Kind:      NotifyPermissionRequested,
		SessionID: ev.SessionID,
		RequestID: ev.RequestID,
		Message:   ev.Message,
	})
}

func (c *Coordinator) handleQuestionLocked(e *entry, ev *protocol.Question) {
	if old := e.broker.setQuestion(ev); old != nil {
		c.log.Warn("pending question replaced",
			"session_id", ev.SessionID, "old_request_id", old.RequestID, "request_id", ev.RequestID)
	}
	e.status = session.StatusAwaitingInput
	c.notifier.Notify(Notification{
		Kind:      NotifyQuestionAsked,
		SessionID: ev.SessionID,
		RequestID: ev.RequestID,
		Message:   strings.Join(ev.Questions, "\n"),
	})
}

func (c *Coordinator) handleTurnEndLocked(e *entry, ev *protocol.TurnEnd) {
	if !e.busy() {
		c.anomalies.Warn("turn_end for idle session ignored",
			"session_id", ev.SessionID, "turn_id", ev.TurnID)
		return
	}
	c.finalizeTurnLocked(e)
	e.broker.clear()
	clear(e.subagents)
	c.persistSessionLocked(e)

	switch ev.Reason {
	case protocol.TurnError:
		e.status = session.StatusError
		e.lastError = "turn failed"
		c.notifier.Notify(Notification{Kind: NotifyTurnFailed, SessionID: ev.SessionID})
		return
	case protocol.TurnAborted:
		e.status = session.StatusIdle
		return
	}
	e.status = session.StatusIdle

	// Auto-continuation takes priority over the queue; a queued message
	// would change the task the loop is grinding on.
	proceed, capped := e.loop.next()
	if capped {
		c.notifier.Notify(Notification{
			Kind:      NotifyUntilDoneCapped,
			SessionID: e.sess.ID,
			Message:   fmt.Sprintf("Stopped after %d completed turns.", e.loop.iterations),
		})
	}
	if proceed {
		if err := c.startTurnLocked(e, c.cfg.UntilDone.ContinuePrompt, nil, true); err != nil {
			c.log.Error("until-done continuation failed", "session_id", e.sess.ID, "error", err)
		}
		return
	}

	if queued, ok := e.queue.Pop(); ok {
		if err := c.startTurnLocked(e, queued.Text, queued.Attachments, false); err != nil {
			c.log.Error("queued submit failed", "session_id", e.sess.ID, "error", err)
		}
	}
}

func (c *Coordinator) handleOverflowLocked(e *entry, ev *protocol.ContextOverflow) {
	// Overflow only makes sense mid-turn; a stray event for a settled
	// session must not start a turn the user never asked for.
	if !e.busy() {
		c.anomalies.Warn("overflow for idle session ignored", "session_id", ev.SessionID)
		return
	}
	// Compaction is already freeing context; acting on overflow now would
	// race it.
	if e.sess.Compacting {
		c.log.Info("overflow during compaction ignored", "session_id", ev.SessionID)
		return
	}
	if ev.AutoRetry && !e.overflowMitigated {
		e.overflowMitigated = true
		c.log.Info("context overflow, mitigating automatically", "session_id", ev.SessionID)
		go c.mitigateOverflow(ev.SessionID, e.turnGen)
		return
	}
	// Mitigation already spent for this turn, or the backend asked for an
	// explicit decision.
	e.status = session.StatusAwaitingInput
	c.notifier.Notify(Notification{
		Kind:      NotifyOverflowChoice,
		SessionID: ev.SessionID,
		Message:   "Context window exceeded. Prune tool output or compact the conversation.",
	})
}

func (c *Coordinator) handleSubagentLocked(e *entry, ev *protocol.Subagent) {
	switch ev.EventKind {
	case protocol.SubagentSpawned, protocol.SubagentEscalated:
		e.subagents[ev.ToolUseID] = ev.Detail
	case protocol.SubagentDelivered:
		delete(e.subagents, ev.ToolUseID)
	}
	c.notifier.Notify(Notification{
		Kind:      NotifySubagent,
		SessionID: ev.SessionID,
		RequestID: ev.ToolUseID,
		Message:   fmt.Sprintf("%s: %s", ev.EventKind, ev.Detail),
	})
}

// HandleConnectivityLost marks every in-flight session as failed. Queued
// user input is kept so nothing typed is lost.
func (c *Coordinator) HandleConnectivityLost(cerr *conn.ConnectivityError) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, e := range c.entries {
		if !e.busy() {
			continue
		}
		c.finalizeTurnLocked(e)
		e.broker.clear()
		clear(e.subagents)
		e.status = session.StatusError
		e.lastError = cerr.Error()
		c.notifier.Notify(Notification{
			Kind:      NotifyConnectivityLost,
			SessionID: id,
			Message:   cerr.Error(),
		})
	}
	c.log.Error("connectivity lost", "attempts", cerr.Attempts, "error", cerr.Err)
}

// HandleConnected re-attaches known backend sessions after a (re)connect.
func (c *Coordinator) HandleConnected() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, e := range c.entries {
		if e.attached && e.sess.BackendSessionID != "" {
			c.sender.Attach(id, e.sess.BackendSessionID)
		}
	}
}

// startTurnLocked persists the user message, sends the query, and moves the
// session into the running state. Callers hold c.mu.
func (c *Coordinator) startTurnLocked(e *entry, text string, attachments []string, synthetic bool) error {
	// A session without a backend binding is new, forked, or one the
	// backend has forgotten; prior conversation travels with the query.
	var history string
	if e.sess.BackendSessionID == "" {
		if msgs, err := c.store.ReadMessages(e.sess.ID); err == nil && len(msgs) > 0 {
			history = renderHistory(msgs)
		}
	}
	msg := &session.Message{
		ID:        uuid.NewString(),
		SessionID: e.sess.ID,
		Role:      session.RoleUser,
		Blocks:    []session.ContentBlock{{Type: session.BlockText, Text: text}},
		Timestamp: time.Now().UTC(),
		Synthetic: synthetic,
		Final:     true,
	}
	if err := c.store.AppendMessage(e.sess.ID, msg); err != nil {
		c.log.Error("persist user message failed", "session_id", e.sess.ID, "error", err)
	}
	q := protocol.Query{
		SessionID:        e.sess.ID,
		Prompt:           text,
		ProjectID:        e.sess.ProjectID,
		BackendSessionID: e.sess.BackendSessionID,
		Model:            e.sess.Model,
		Attachments:      attachments,
		HistoryContext:   history,
	}
	if err := c.sender.Send(q); err != nil {
		e.status = session.StatusError
		e.lastError = err.Error()
		return fmt.Errorf("submit to session %s: %w", e.sess.ID, err)
	}
	e.beginTurn()
	e.attached = true
	e.sess.Draft = ""
	return nil
}

// historyContextLimit caps how much prior conversation is replayed to a
// backend that lost the session. The most recent text wins.
const historyContextLimit = 32 * 1024

// renderHistory flattens persisted messages into a plain-text transcript of
// their text blocks. Tool payloads and synthetic notices are omitted.
func renderHistory(msgs []*session.Message) string {
	var b strings.Builder
	for _, m := range msgs {
		if m.Synthetic {
			continue
		}
		for _, blk := range m.Blocks {
			if blk.Type != session.BlockText {
				continue
			}
			b.WriteString(string(m.Role))
			b.WriteString(": ")
			b.WriteString(blk.Text)
			b.WriteString("\n")
		}
	}
	out := b.String()
	if len(out) > historyContextLimit {
		out = out[len(out)-historyContextLimit:]
	}
	return out
}

// finalizeTurnLocked closes the builder and persists whatever the turn
// produced, partial or not.
func (c *Coordinator) finalizeTurnLocked(e *entry) {
	msg := e.builder.Finalize()
	if msg == nil {
		return
	}
	if err := c.store.AppendMessage(e.sess.ID, msg); err != nil {
		c.log.Error("persist assistant message failed", "session_id", e.sess.ID, "error", err)
	}
}

func (c *Coordinator) appendSyntheticLocked(e *entry, text string) {
	msg := &session.Message{
		ID:        uuid.NewString(),
		SessionID: e.sess.ID,
		Role:      session.RoleAssistant,
		Blocks:    []session.ContentBlock{{Type: session.BlockText, Text: text}},
		Timestamp: time.Now().UTC(),
		Synthetic: true,
		Final:     true,
	}
	if err := c.store.AppendMessage(e.sess.ID, msg); err != nil {
		c.log.Error("persist synthetic message failed", "session_id", e.sess.ID, "error", err)
	}
}

func (c *Coordinator) persistSessionLocked(e *entry) {
	if err := c.store.Update(e.sess); err != nil {
		c.log.Error("persist session failed", "session_id", e.sess.ID, "error", err)
	}
}

func (c *Coordinator) entryLocked(sessionID string) (*entry, error) {
	e, ok := c.entries[sessionID]
	if !ok {
		return nil, fmt.Errorf("unknown session %s", sessionID)
	}
	return e, nil
}

// deriveTitle produces an initial session title from the first prompt.
func deriveTitle(text string) string {
	const max = 60
	title := strings.TrimSpace(text)
	if i := strings.IndexByte(title, '\n'); i >= 0 {
		title = title[:i]
	}
	if len(title) > max {
		title = title[:max] + "..."
	}
	return title
}
