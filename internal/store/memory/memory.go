// Package memory implements the persistence gateway in process memory. It
// backs tests and single-node runs without a database.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/deceit-arena/backend/internal/game"
)

type Store struct {
	mu      sync.RWMutex
	agents  map[string]*game.AgentProfile
	rooms   map[string][]byte
	entries map[string]game.QueueEntry
}

func New() *Store {
	return &Store{
		agents:  make(map[string]*game.AgentProfile),
		rooms:   make(map[string][]byte),
		entries: make(map[string]game.QueueEntry),
	}
}

func (s *Store) LoadAgent(_ context.Context, agentID string) (*game.AgentProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a := s.agents[agentID]
	if a == nil {
		return nil, fmt.Errorf("%w: %s", game.ErrAgentNotFound, agentID)
	}
	cp := *a
	return &cp, nil
}

func (s *Store) SaveAgent(_ context.Context, agent *game.AgentProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *agent
	s.agents[agent.AgentID] = &cp
	return nil
}

func (s *Store) ListAgents(_ context.Context) ([]game.AgentProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]game.AgentProfile, 0, len(s.agents))
	for _, a := range s.agents {
		out = append(out, *a)
	}
	return out, nil
}

// Rooms are stored as JSON snapshots so callers can never alias the stored
// state through a returned pointer.
func (s *Store) LoadRoom(_ context.Context, roomID string) (*game.RoomState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.rooms[roomID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", game.ErrRoomNotFound, roomID)
	}
	var state game.RoomState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *Store) SaveRoom(_ context.Context, room *game.RoomState) error {
	raw, err := json.Marshal(room)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[room.RoomID] = raw
	return nil
}

func (s *Store) ListMatchingEntries(_ context.Context) ([]game.QueueEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]game.QueueEntry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	return out, nil
}

func (s *Store) InsertMatchingEntry(_ context.Context, entry game.QueueEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.AgentID] = entry
	return nil
}

func (s *Store) DeleteMatchingEntry(_ context.Context, agentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, agentID)
	return nil
}
