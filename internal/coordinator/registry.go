package coordinator

import (
	"github.com/navihq/navi/internal/session"
)

// entry is the in-memory state for one session. All fields are guarded by
// the coordinator mutex.
type entry struct {
	sess    *session.Session
	status  session.Status
	builder *session.MessageBuilder
	queue   *session.Queue
	broker  broker
	loop    untilDone

	// attached is set for sessions bound to a pre-existing backend
	// session; they are re-attached after every reconnect.
	attached bool

	// overflowMitigated limits automatic overflow mitigation to one shot
	// per turn. Reset when a new turn starts.
	overflowMitigated bool

	// turnGen increments on every turn start. Async work captured during a
	// turn checks it before acting so a superseded turn cannot resubmit.
	turnGen uint64

	// usageTurns and costTurns record turn ids already accumulated, so
	// redelivered frames do not double count.
	usageTurns map[string]struct{}
	costTurns  map[string]struct{}

	// subagents maps tool_use ids of live subagents to their last
	// reported detail.
	subagents map[string]string

	lastError string
}

func newEntry(s *session.Session) *entry {
	return &entry{
		sess:       s,
		status:     session.StatusIdle,
		builder:    session.NewMessageBuilder(s.ID),
		queue:      session.NewQueue(),
		usageTurns: make(map[string]struct{}),
		costTurns:  make(map[string]struct{}),
		subagents:  make(map[string]string),
	}
}

// busy reports whether the session cannot accept a direct submit.
func (e *entry) busy() bool {
	return e.status == session.StatusRunning || e.status == session.StatusAwaitingInput
}

// beginTurn moves the session into the running state and resets per-turn
// bookkeeping.
func (e *entry) beginTurn() {
	e.status = session.StatusRunning
	e.overflowMitigated = false
	e.lastError = ""
	e.turnGen++
}
