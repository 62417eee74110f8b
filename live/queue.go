package live

import (
	"context"
	"sync"
	"time"
)

// PendingQueue tracks scoreboard mutations made while the writer is
// offline. The individual actions are kept only for the pending badge;
// on reconnect the writer pushes its current coalesced state in a
// single reconciling write and the queue is cleared. This is safe
// because a game has exactly one authoritative writer.
type PendingQueue struct {
	mu      sync.Mutex
	actions []PendingAction
}

type PendingAction struct {
	Kind string
	At   time.Time
}

func NewPendingQueue() *PendingQueue {
	return &PendingQueue{}
}

// Add records one offline mutation.
func (q *PendingQueue) Add(kind string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.actions = append(q.actions, PendingAction{Kind: kind, At: time.Now()})
}

// Len is the number of unflushed actions, surfaced as the pending
// change counter.
func (q *PendingQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.actions)
}

// Flush performs one reconciling persist for the whole backlog and
// clears it on success. The persist callback receives no per-action
// deltas: it writes whatever the local state ended up being. A failed
// persist keeps the backlog for the next flush.
func (q *PendingQueue) Flush(ctx context.Context, persist func(ctx context.Context) error) error {
	q.mu.Lock()
	pending := len(q.actions)
	q.mu.Unlock()
	if pending == 0 {
		return nil
	}
	if err := persist(ctx); err != nil {
		return err
	}
	q.mu.Lock()
	q.actions = q.actions[:0]
	q.mu.Unlock()
	return nil
}
