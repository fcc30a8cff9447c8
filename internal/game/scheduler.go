package game

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RoomCreator is the scheduler's handoff point, implemented by Service.
type RoomCreator interface {
	CreateRoom(ctx context.Context, members []QueueEntry) (string, error)
}

// BackfillPolicy picks synthetic participants once a group has waited past
// the deadline. exclude holds agent ids already in the queue.
type BackfillPolicy interface {
	Pick(ctx context.Context, need int, exclude map[string]struct{}) ([]QueueEntry, error)
}

// Scheduler pools the queue on a fixed interval, groups agents by score
// proximity and hands groups to room creation. A single in-memory guard with
// a staleness timeout keeps overlapping ticks out without letting a crashed
// tick wedge matching forever.
type Scheduler struct {
	cfg      Config
	queue    *Queue
	tracker  *Tracker
	creator  RoomCreator
	backfill BackfillPolicy
	log      zerolog.Logger

	mu        sync.Mutex
	running   bool
	startedAt time.Time
}

func NewScheduler(cfg Config, queue *Queue, tracker *Tracker, creator RoomCreator, backfill BackfillPolicy, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cfg:      cfg,
		queue:    queue,
		tracker:  tracker,
		creator:  creator,
		backfill: backfill,
		log:      log,
	}
}

// Run drives ticks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.MatchInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce executes one tick. Errors are logged with the tick context and
// swallowed; the next tick retries from a clean queue snapshot.
func (s *Scheduler) RunOnce(ctx context.Context) {
	if !s.begin() {
		return
	}
	defer s.end()

	tickID := uuid.NewString()
	start := time.Now()
	if err := s.tick(ctx); err != nil {
		s.log.Error().
			Err(err).
			Str("op", "match_tick").
			Str("tickId", tickID).
			Time("startedAt", start).
			Bool("midFlight", true).
			Msg("scheduler tick failed")
	}
}

func (s *Scheduler) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		if time.Since(s.startedAt) <= s.cfg.GuardTimeout {
			return false
		}
		// a crashed tick must not block matching forever
		s.log.Warn().
			Str("op", "match_tick").
			Time("staleSince", s.startedAt).
			Msg("force-clearing stale cycle guard")
	}
	s.running = true
	s.startedAt = time.Now()
	return true
}

func (s *Scheduler) end() {
	s.mu.Lock()
	s.running = false
	s.startedAt = time.Time{}
	s.mu.Unlock()
}

func (s *Scheduler) tick(ctx context.Context) error {
	pool, err := s.queue.Snapshot(ctx)
	if err != nil {
		return err
	}
	sort.Slice(pool, func(i, j int) bool { return pool[i].Score < pool[j].Score })

	if len(pool) >= s.cfg.MinPlayersToStart {
		pool, err = s.groupAndCreate(ctx, pool)
		if err != nil {
			return err
		}
	}
	return s.backfillAndCreate(ctx, pool)
}

// groupAndCreate runs the greedy score-window scan. After every successful
// match the scan restarts, since removal changes adjacency in the sorted set.
func (s *Scheduler) groupAndCreate(ctx context.Context, pool []QueueEntry) ([]QueueEntry, error) {
	for i := 0; i < len(pool); i++ {
		group := []QueueEntry{pool[i]}
		for j := 0; j < len(pool) && len(group) < s.cfg.PlayersPerRoom; j++ {
			if j == i {
				continue
			}
			if math.Abs(pool[i].Score-pool[j].Score) <= s.cfg.ScoreRange {
				group = append(group, pool[j])
			}
		}
		if len(group) < s.cfg.MinPlayersToStart {
			continue
		}
		if _, err := s.creator.CreateRoom(ctx, group); err != nil {
			return pool, err
		}
		pool = removeEntries(pool, group)
		i = -1
	}
	return pool, nil
}

// backfillAndCreate applies the wait-deadline policy to whatever the greedy
// scan left behind: once the earliest human entrant has waited past MaxWait,
// the group is topped up with synthetic agents and started even if the score
// window was never satisfied.
func (s *Scheduler) backfillAndCreate(ctx context.Context, pool []QueueEntry) error {
	if len(pool) == 0 || s.backfill == nil {
		return nil
	}
	var earliest time.Time
	for _, e := range pool {
		if e.Synthetic {
			continue
		}
		if earliest.IsZero() || e.EnqueuedAt.Before(earliest) {
			earliest = e.EnqueuedAt
		}
	}
	if earliest.IsZero() || time.Since(earliest) < s.cfg.MaxWait {
		return nil
	}

	group := pool
	if len(group) > s.cfg.PlayersPerRoom {
		group = group[:s.cfg.PlayersPerRoom]
	}
	if need := s.cfg.PlayersPerRoom - len(group); need > 0 {
		exclude := make(map[string]struct{}, len(pool))
		for _, e := range pool {
			exclude[e.AgentID] = struct{}{}
		}
		picks, err := s.backfill.Pick(ctx, need, exclude)
		if err != nil {
			return err
		}
		for _, p := range picks {
			if err := s.tracker.Transition(p.AgentID, StatusQueued, ""); err != nil {
				continue
			}
			if err := s.queue.Enqueue(ctx, p.AgentID, p.Score, true); err != nil {
				s.tracker.TransitionIf(p.AgentID, StatusQueued, StatusIdle, "")
				continue
			}
			group = append(group, QueueEntry{
				AgentID:    p.AgentID,
				Score:      p.Score,
				EnqueuedAt: time.Now().UTC(),
				Synthetic:  true,
			})
		}
	}
	if len(group) < s.cfg.MinPlayersToStart {
		return nil
	}
	_, err := s.creator.CreateRoom(ctx, group)
	return err
}

func removeEntries(pool, group []QueueEntry) []QueueEntry {
	taken := make(map[string]struct{}, len(group))
	for _, g := range group {
		taken[g.AgentID] = struct{}{}
	}
	out := pool[:0]
	for _, e := range pool {
		if _, ok := taken[e.AgentID]; !ok {
			out = append(out, e)
		}
	}
	return out
}

// StoreBackfill is the default backfill policy: idle agents from the agent
// pool, in listing order. Selection is policy, not safety; swap the interface
// implementation to change it.
type StoreBackfill struct {
	agents  AgentStore
	tracker *Tracker
}

func NewStoreBackfill(agents AgentStore, tracker *Tracker) *StoreBackfill {
	return &StoreBackfill{agents: agents, tracker: tracker}
}

func (b *StoreBackfill) Pick(ctx context.Context, need int, exclude map[string]struct{}) ([]QueueEntry, error) {
	agents, err := b.agents.ListAgents(ctx)
	if err != nil {
		return nil, err
	}
	var picks []QueueEntry
	for _, a := range agents {
		if len(picks) == need {
			break
		}
		if _, ok := exclude[a.AgentID]; ok {
			continue
		}
		if b.tracker.Get(a.AgentID).Status != StatusIdle {
			continue
		}
		picks = append(picks, QueueEntry{AgentID: a.AgentID, Score: a.Score, Synthetic: true})
	}
	return picks, nil
}
