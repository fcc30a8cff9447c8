package game

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Service ties the tracker, queue, rooms and gateway together. It owns the
// multi-step flows whose partial failures need compensating rollback.
type Service struct {
	cfg     Config
	store   Store
	tracker *Tracker
	queue   *Queue
	rooms   *Rooms
	log     zerolog.Logger
}

func NewService(cfg Config, store Store, tracker *Tracker, queue *Queue, rooms *Rooms, log zerolog.Logger) *Service {
	return &Service{
		cfg:     cfg,
		store:   store,
		tracker: tracker,
		queue:   queue,
		rooms:   rooms,
		log:     log,
	}
}

func (s *Service) Tracker() *Tracker { return s.tracker }
func (s *Service) Queue() *Queue     { return s.queue }
func (s *Service) Rooms() *Rooms     { return s.rooms }

// StartMatching validates the agent, marks it queued and inserts a queue
// entry. A failed insert rolls the status back to idle.
func (s *Service) StartMatching(ctx context.Context, agentID string) error {
	agent, err := s.store.LoadAgent(ctx, agentID)
	if err != nil {
		return err
	}
	if err := s.tracker.Transition(agentID, StatusQueued, ""); err != nil {
		return err
	}
	if err := s.queue.Enqueue(ctx, agentID, agent.Score, false); err != nil {
		s.tracker.TransitionIf(agentID, StatusQueued, StatusIdle, "")
		if derr := s.queue.Dequeue(ctx, agentID); derr != nil {
			s.log.Error().Err(derr).Str("agentId", agentID).Msg("rollback dequeue failed")
		}
		return fmt.Errorf("enqueue agent %s: %w", agentID, err)
	}
	s.log.Info().Str("agentId", agentID).Float64("score", agent.Score).Msg("matching started")
	return nil
}

// CancelMatching is only valid while the agent is queued. Losing the race to
// the scheduler surfaces as ErrIllegalTransition; callers should treat that
// as an expected outcome, not a crash.
func (s *Service) CancelMatching(ctx context.Context, agentID string) error {
	rec := s.tracker.Get(agentID)
	if rec.Status != StatusQueued {
		return fmt.Errorf("%w: cancel while %s", ErrIllegalTransition, rec.Status)
	}
	if err := s.queue.Dequeue(ctx, agentID); err != nil {
		return fmt.Errorf("dequeue agent %s: %w", agentID, err)
	}
	if !s.tracker.TransitionIf(agentID, StatusQueued, StatusIdle, "") {
		return fmt.Errorf("%w: agent %s advanced to %s during cancel",
			ErrIllegalTransition, agentID, s.tracker.Get(agentID).Status)
	}
	s.log.Info().Str("agentId", agentID).Msg("matching cancelled")
	return nil
}

func (s *Service) CheckMatchStatus(agentID string) StatusRecord {
	return s.tracker.Get(agentID)
}

// CreateRoom is the transactional handoff from the scheduler: it re-validates
// every member, builds and persists the room, then flips each member to
// in_game and out of the queue. Any failure rolls every member this
// transaction touched back to idle before the error is returned.
func (s *Service) CreateRoom(ctx context.Context, members []QueueEntry) (string, error) {
	n := len(members)
	if n < s.cfg.MinPlayersToStart || n > s.cfg.PlayersPerRoom {
		return "", fmt.Errorf("group size %d outside [%d, %d]", n, s.cfg.MinPlayersToStart, s.cfg.PlayersPerRoom)
	}

	// abort the whole group before touching anything if anyone drifted
	for _, m := range members {
		if rec := s.tracker.Get(m.AgentID); rec.Status != StatusQueued {
			return "", fmt.Errorf("%w: agent %s is %s, expected queued", ErrIllegalTransition, m.AgentID, rec.Status)
		}
	}

	roomID := uuid.NewString()
	names, err := drawDisplayNames(n)
	if err != nil {
		return "", err
	}
	word, spyWord, err := pickWordPair()
	if err != nil {
		return "", err
	}

	state := &RoomState{
		RoomID:       roomID,
		Status:       RoomWaiting,
		Word:         word,
		SpyWord:      spyWord,
		CurrentRound: 1,
	}
	for i, m := range members {
		profile, err := s.store.LoadAgent(ctx, m.AgentID)
		if err != nil {
			return "", err
		}
		state.Players = append(state.Players, Player{
			AgentID:      profile.AgentID,
			DisplayName:  names[i],
			AgentName:    profile.Name,
			Role:         RoleInnocent,
			PlayerStatus: PlayerAlive,
			Avatar:       profile.Avatar,
			Score:        profile.Score,
			GameCount:    profile.GameCount,
		})
	}

	spyCount := int(math.Floor(float64(n) * s.cfg.SpyRatio))
	spyIdx, err := drawSpyIndices(n, spyCount)
	if err != nil {
		return "", err
	}
	for i := range state.Players {
		if spyIdx[i] {
			state.Players[i].Role = RoleSpy
		}
	}

	appendEvent(state, GameEvent{Type: EventStart})
	if err := s.store.SaveRoom(ctx, state); err != nil {
		return "", fmt.Errorf("persist room %s: %w", roomID, err)
	}

	var entered []string
	fail := func(err error) (string, error) {
		s.rollback(entered)
		return "", err
	}
	for _, m := range members {
		if err := s.tracker.Transition(m.AgentID, StatusInGame, roomID); err != nil {
			return fail(err)
		}
		entered = append(entered, m.AgentID)
		if err := s.queue.Dequeue(ctx, m.AgentID); err != nil {
			return fail(fmt.Errorf("dequeue agent %s: %w", m.AgentID, err))
		}
	}

	state.Status = RoomPlaying
	if err := s.store.SaveRoom(ctx, state); err != nil {
		return fail(fmt.Errorf("persist room %s: %w", roomID, err))
	}
	s.rooms.Add(state)

	s.log.Info().
		Str("roomId", roomID).
		Int("players", n).
		Int("spies", spyCount).
		Msg("room created")
	return roomID, nil
}

// rollback returns the members this transaction already moved to in_game back
// to idle. Members another flow owns by now are skipped.
func (s *Service) rollback(entered []string) {
	for _, agentID := range entered {
		if s.tracker.TransitionIf(agentID, StatusInGame, StatusIdle, "") {
			s.log.Warn().Str("agentId", agentID).Msg("room creation rolled back to idle")
		}
	}
}
