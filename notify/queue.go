// Package notify provides the in-memory queue of pending change
// notifications. Registries enqueue a record per mutation; the transport
// drains the queue and frames each record as a JSON-RPC notification.
package notify

import (
	"sync"

	"github.com/mcpkit/mcp-core-go/mcp"
)

// Notification is a single pending announcement: the notification method
// plus an optional params payload.
type Notification struct {
	Method mcp.Method `json:"method"`
	Params any        `json:"params,omitempty"`
}

// Queue is an unbounded FIFO of pending notifications. It performs no
// deduplication: N mutations enqueue N records even for the same entity.
// Consumers that want coalescing implement it at drain time.
//
// Queue is safe for concurrent use so that hosts dispatching across workers
// can share one server instance.
type Queue struct {
	mu      sync.Mutex
	pending []Notification
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Enqueue appends a notification record.
func (q *Queue) Enqueue(method mcp.Method, params any) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, Notification{Method: method, Params: params})
}

// Drain returns all pending notifications in FIFO order and empties the
// queue. It returns nil when nothing is pending.
func (q *Queue) Drain() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.pending
	q.pending = nil
	return out
}

// Size returns the number of pending notifications.
func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
