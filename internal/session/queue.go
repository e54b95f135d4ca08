package session

import (
	"sync"
	"time"
)

// QueuedMessage is user input held while a turn is in flight.
type QueuedMessage struct {
	Text        string    `json:"text"`
	Attachments []string  `json:"attachments,omitempty"`
	QueuedAt    time.Time `json:"queued_at"`
}

// Queue is a FIFO of messages submitted while the session was busy. The
// coordinator drains exactly one entry when a turn ends.
type Queue struct {
	mu    sync.Mutex
	items []QueuedMessage
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Enqueue appends a message to the tail, stamping its queue time.
func (q *Queue) Enqueue(m QueuedMessage) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if m.QueuedAt.IsZero() {
		m.QueuedAt = time.Now().UTC()
	}
	q.items = append(q.items, m)
}

// Pop removes and returns the head of the queue. The second return is false
// when the queue is empty.
func (q *Queue) Pop() (QueuedMessage, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return QueuedMessage{}, false
	}
	m := q.items[0]
	q.items = q.items[1:]
	return m, true
}

// Len returns the number of queued messages.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Snapshot returns a copy of the queued messages in order.
func (q *Queue) Snapshot() []QueuedMessage {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]QueuedMessage, len(q.items))
	copy(out, q.items)
	return out
}

// Clear discards all queued messages and returns how many were dropped.
func (q *Queue) Clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.items)
	q.items = nil
	return n
}
