package game

import (
	"context"
	"time"
)

// Queue is the matching queue's narrow contract over the gateway's matching
// entries. It imposes no ordering at rest; the scheduler sorts per tick.
type Queue struct {
	store MatchStore
}

func NewQueue(store MatchStore) *Queue {
	return &Queue{store: store}
}

// Enqueue adds the agent, replacing any prior entry (the timestamp and score
// are refreshed).
func (q *Queue) Enqueue(ctx context.Context, agentID string, score float64, synthetic bool) error {
	return q.store.InsertMatchingEntry(ctx, QueueEntry{
		AgentID:    agentID,
		Score:      score,
		EnqueuedAt: time.Now().UTC(),
		Synthetic:  synthetic,
	})
}

func (q *Queue) Dequeue(ctx context.Context, agentID string) error {
	return q.store.DeleteMatchingEntry(ctx, agentID)
}

func (q *Queue) Snapshot(ctx context.Context) ([]QueueEntry, error) {
	return q.store.ListMatchingEntries(ctx)
}
