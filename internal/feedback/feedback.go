// Package feedback holds a small in-memory notification channel: the web
// UI polls GET /feedback to learn how its last submission went. Entries
// are popped newest-first and the queue is bounded, dropping the oldest
// entry when full.
package feedback

import "sync"

// Entry is one feedback notification. Code mirrors the HTTP status of the
// submission it reports on; 0 means "nothing to report".
type Entry struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Empty is returned by Pop when no feedback is pending.
var Empty = Entry{Code: 0, Message: "Sem novos feedbacks"}

const DefaultCapacity = 64

// Queue is a mutex-guarded, bounded LIFO of feedback entries.
type Queue struct {
	mu      sync.Mutex
	entries []Entry
	cap     int
}

// NewQueue creates a queue holding at most capacity entries. A capacity
// of zero or less falls back to DefaultCapacity.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue{cap: capacity}
}

// Push appends an entry, evicting the oldest one if the queue is full.
func (q *Queue) Push(e Entry) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) == q.cap {
		copy(q.entries, q.entries[1:])
		q.entries = q.entries[:len(q.entries)-1]
	}
	q.entries = append(q.entries, e)
}

// Pop removes and returns the most recently pushed entry, or Empty when
// there is nothing pending.
func (q *Queue) Pop() Entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) == 0 {
		return Empty
	}
	e := q.entries[len(q.entries)-1]
	q.entries = q.entries[:len(q.entries)-1]
	return e
}

// Len reports the number of pending entries.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}
