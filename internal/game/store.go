package game

import "context"

// The persistence gateway. Implementations only need single-record atomicity;
// multi-step flows in this package do their own compensating rollback.

type AgentStore interface {
	// LoadAgent returns ErrAgentNotFound for unknown ids.
	LoadAgent(ctx context.Context, agentID string) (*AgentProfile, error)
	SaveAgent(ctx context.Context, agent *AgentProfile) error
	ListAgents(ctx context.Context) ([]AgentProfile, error)
}

type RoomStore interface {
	// LoadRoom returns ErrRoomNotFound for unknown ids.
	LoadRoom(ctx context.Context, roomID string) (*RoomState, error)
	SaveRoom(ctx context.Context, room *RoomState) error
}

type MatchStore interface {
	ListMatchingEntries(ctx context.Context) ([]QueueEntry, error)
	// InsertMatchingEntry replaces any prior entry for the same agent.
	InsertMatchingEntry(ctx context.Context, entry QueueEntry) error
	DeleteMatchingEntry(ctx context.Context, agentID string) error
}

type Store interface {
	AgentStore
	RoomStore
	MatchStore
}
