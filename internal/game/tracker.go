package game

import (
	"fmt"
	"sync"
	"time"
)

// legal successor statuses; anything else is ErrIllegalTransition
var transitions = map[AgentStatus][]AgentStatus{
	StatusIdle:   {StatusQueued},
	StatusQueued: {StatusIdle, StatusInGame},
	StatusInGame: {StatusIdle},
}

// Tracker is the single source of truth for each agent's phase. Records are
// created lazily as idle and never deleted. All reads return copies; the
// queue and rooms never touch records directly.
type Tracker struct {
	mu      sync.Mutex
	records map[string]*StatusRecord
}

func NewTracker() *Tracker {
	return &Tracker{records: make(map[string]*StatusRecord)}
}

func (t *Tracker) get(agentID string) *StatusRecord {
	rec := t.records[agentID]
	if rec == nil {
		rec = &StatusRecord{AgentID: agentID, Status: StatusIdle, LastUpdate: time.Now().UTC()}
		t.records[agentID] = rec
	}
	return rec
}

// Get returns a copy of the agent's record, initializing it to idle if absent.
func (t *Tracker) Get(agentID string) StatusRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	return *t.get(agentID)
}

// Transition atomically validates the edge and applies it. roomID is recorded
// for transitions into in_game and cleared otherwise. On failure the record
// is left untouched.
func (t *Tracker) Transition(agentID string, to AgentStatus, roomID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec := t.get(agentID)
	allowed := false
	for _, next := range transitions[rec.Status] {
		if next == to {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("%w: agent %s: %s -> %s", ErrIllegalTransition, agentID, rec.Status, to)
	}
	rec.Status = to
	if to == StatusInGame {
		rec.RoomID = roomID
	} else {
		rec.RoomID = ""
	}
	rec.LastUpdate = time.Now().UTC()
	return nil
}

// TransitionIf applies the edge only when the agent currently holds from.
// The check and the write happen under one lock, which is what the rollback
// paths need to avoid stealing agents another flow already owns.
func (t *Tracker) TransitionIf(agentID string, from, to AgentStatus, roomID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec := t.get(agentID)
	if rec.Status != from {
		return false
	}
	rec.Status = to
	if to == StatusInGame {
		rec.RoomID = roomID
	} else {
		rec.RoomID = ""
	}
	rec.LastUpdate = time.Now().UTC()
	return true
}
