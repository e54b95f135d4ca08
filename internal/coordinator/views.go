package coordinator

import (
	"fmt"
	"time"

	"github.com/navihq/navi/internal/protocol"
	"github.com/navihq/navi/internal/session"
)

// SessionView is a point-in-time snapshot of one session for rendering.
type SessionView struct {
	Session session.Session
	Status  session.Status
	// Messages is the persisted history plus the in-progress assistant
	// message, if any.
	Messages          []*session.Message
	Queued            []session.QueuedMessage
	PendingPermission *protocol.PermissionRequest
	PendingQuestion   *protocol.Question
	Subagents         map[string]string
	LastError         string
}

// Snapshot returns the renderable state of a session.
func (c *Coordinator) Snapshot(sessionID string) (*SessionView, error) {
	c.mu.Lock()
	e, err := c.entryLocked(sessionID)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	view := &SessionView{
		Session:           *e.sess,
		Status:            e.status,
		Queued:            e.queue.Snapshot(),
		PendingPermission: e.broker.permission,
		PendingQuestion:   e.broker.question,
		LastError:         e.lastError,
	}
	view.Subagents = make(map[string]string, len(e.subagents))
	for k, v := range e.subagents {
		view.Subagents[k] = v
	}
	partial := e.builder.Snapshot()
	c.mu.Unlock()

	msgs, err := c.store.ReadMessages(sessionID)
	if err != nil {
		return nil, err
	}
	view.Messages = session.Rebuild(msgs)
	if partial != nil {
		view.Messages = append(view.Messages, partial)
	}
	return view, nil
}

// Sessions lists all known sessions with their live status.
func (c *Coordinator) Sessions() []*SessionView {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*SessionView, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, &SessionView{
			Session:   *e.sess,
			Status:    e.status,
			LastError: e.lastError,
		})
	}
	return out
}

// SaveDraft persists unsent input so it survives a restart.
func (c *Coordinator) SaveDraft(sessionID, draft string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, err := c.entryLocked(sessionID)
	if err != nil {
		return err
	}
	e.sess.Draft = draft
	return c.store.Update(e.sess)
}

// Archive hides a session from the default listing and starts its retention
// clock. Archiving a busy session aborts it first.
func (c *Coordinator) Archive(sessionID string) error {
	c.mu.Lock()
	e, err := c.entryLocked(sessionID)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	busy := e.busy()
	c.mu.Unlock()
	if busy {
		if err := c.Abort(sessionID); err != nil {
			return err
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e.sess.Archived = true
	e.sess.ArchivedAt = time.Now().UTC()
	return c.store.Update(e.sess)
}

// Unarchive restores an archived session.
func (c *Coordinator) Unarchive(sessionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, err := c.entryLocked(sessionID)
	if err != nil {
		return err
	}
	e.sess.Archived = false
	e.sess.ArchivedAt = time.Time{}
	return c.store.Update(e.sess)
}

// Delete removes a session permanently. Busy sessions cannot be deleted.
func (c *Coordinator) Delete(sessionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, err := c.entryLocked(sessionID)
	if err != nil {
		return err
	}
	if e.busy() {
		return fmt.Errorf("session %s has a turn in flight", sessionID)
	}
	if err := c.store.Delete(sessionID); err != nil {
		return err
	}
	delete(c.entries, sessionID)
	return nil
}

// Fork copies a session's history into a fresh session. The fork starts
// idle with no backend binding; the next submit creates one.
func (c *Coordinator) Fork(sessionID, title string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.entryLocked(sessionID); err != nil {
		return "", err
	}
	forked, err := c.store.Fork(sessionID, title)
	if err != nil {
		return "", err
	}
	c.entries[forked.ID] = newEntry(forked)
	return forked.ID, nil
}

// CleanupArchived deletes archived sessions past the configured retention
// and evicts them from the registry.
func (c *Coordinator) CleanupArchived() (int, error) {
	c.mu.Lock()
	retention := c.cfg.Storage.ArchivedRetention
	c.mu.Unlock()

	removed, err := c.store.CleanupArchived(retention)
	if err != nil {
		return removed, err
	}
	if removed == 0 {
		return 0, nil
	}
	live, err := c.store.List()
	if err != nil {
		return removed, err
	}
	alive := make(map[string]struct{}, len(live))
	for _, s := range live {
		alive[s.ID] = struct{}{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for id := range c.entries {
		if _, ok := alive[id]; !ok {
			delete(c.entries, id)
		}
	}
	return removed, nil
}
