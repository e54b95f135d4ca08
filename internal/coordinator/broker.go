package coordinator

import "github.com/navihq/navi/internal/protocol"

// broker holds the pending interactive requests for one session. A session
// can have at most one pending permission and one pending question at a
// time; a new request of the same kind replaces the old one.
type broker struct {
	permission *protocol.PermissionRequest
	question   *protocol.Question
}

// setPermission stores a pending permission request. It returns the request
// it replaced, or nil.
func (b *broker) setPermission(req *protocol.PermissionRequest) *protocol.PermissionRequest {
	old := b.permission
	b.permission = req
	return old
}

// takePermission resolves the pending permission if the id matches. A
// mismatched id means the response is stale and must be ignored.
func (b *broker) takePermission(requestID string) (*protocol.PermissionRequest, bool) {
	if b.permission == nil || b.permission.RequestID != requestID {
		return nil, false
	}
	req := b.permission
	b.permission = nil
	return req, true
}

// setQuestion stores a pending question, returning any replaced one.
func (b *broker) setQuestion(q *protocol.Question) *protocol.Question {
	old := b.question
	b.question = q
	return old
}

// takeQuestion resolves the pending question if the id matches.
func (b *broker) takeQuestion(requestID string) (*protocol.Question, bool) {
	if b.question == nil || b.question.RequestID != requestID {
		return nil, false
	}
	q := b.question
	b.question = nil
	return q, true
}

// pending reports whether any interactive request is outstanding.
func (b *broker) pending() bool {
	return b.permission != nil || b.question != nil
}

// clear drops both pending slots, used when a turn ends or fails.
func (b *broker) clear() {
	b.permission = nil
	b.question = nil
}
