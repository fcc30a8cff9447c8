package game

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// fakeStore is an in-package gateway double with injectable failures.
type fakeStore struct {
	mu      sync.Mutex
	agents  map[string]AgentProfile
	rooms   map[string]RoomState
	entries map[string]QueueEntry

	insertErr   error
	deleteErr   error
	saveRoomErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		agents:  make(map[string]AgentProfile),
		rooms:   make(map[string]RoomState),
		entries: make(map[string]QueueEntry),
	}
}

func (s *fakeStore) LoadAgent(_ context.Context, agentID string) (*AgentProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.agents[agentID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAgentNotFound, agentID)
	}
	return &a, nil
}

func (s *fakeStore) SaveAgent(_ context.Context, agent *AgentProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agents[agent.AgentID] = *agent
	return nil
}

func (s *fakeStore) ListAgents(_ context.Context) ([]AgentProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]AgentProfile, 0, len(s.agents))
	for _, a := range s.agents {
		out = append(out, a)
	}
	return out, nil
}

func (s *fakeStore) LoadRoom(_ context.Context, roomID string) (*RoomState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[roomID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRoomNotFound, roomID)
	}
	return &r, nil
}

func (s *fakeStore) SaveRoom(_ context.Context, room *RoomState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveRoomErr != nil {
		return s.saveRoomErr
	}
	s.rooms[room.RoomID] = *room
	return nil
}

func (s *fakeStore) ListMatchingEntries(_ context.Context) ([]QueueEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]QueueEntry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	return out, nil
}

func (s *fakeStore) InsertMatchingEntry(_ context.Context, entry QueueEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	s.entries[entry.AgentID] = entry
	return nil
}

func (s *fakeStore) DeleteMatchingEntry(_ context.Context, agentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.entries, agentID)
	return nil
}

// harness wires tracker, queue, rooms, reporter and service around one
// fakeStore, the way main does for real stores.
type harness struct {
	store   *fakeStore
	tracker *Tracker
	queue   *Queue
	rooms   *Rooms
	svc     *Service
}

func newHarness(cfg Config) *harness {
	store := newFakeStore()
	tracker := NewTracker()
	queue := NewQueue(store)
	reporter := NewReporter(store, tracker, zerolog.Nop())
	rooms := NewRooms(store, reporter, zerolog.Nop())
	svc := NewService(cfg, store, tracker, queue, rooms, zerolog.Nop())
	return &harness{store: store, tracker: tracker, queue: queue, rooms: rooms, svc: svc}
}

func (h *harness) addAgent(agentID, name string, score float64) {
	h.store.agents[agentID] = AgentProfile{AgentID: agentID, Name: name, Score: score, Prompts: defaultPrompts}
}
