package game

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Rooms owns every live room's state machine. All mutations to one room are
// serialized through its roomCtx lock; different rooms proceed independently.
type Rooms struct {
	mu    sync.RWMutex
	rooms map[string]*roomCtx

	store    RoomStore
	reporter *Reporter
	log      zerolog.Logger
}

type roomCtx struct {
	mu    sync.Mutex
	state *RoomState
}

func NewRooms(store RoomStore, reporter *Reporter, log zerolog.Logger) *Rooms {
	return &Rooms{
		rooms:    make(map[string]*roomCtx),
		store:    store,
		reporter: reporter,
		log:      log,
	}
}

// Add registers a freshly created room.
func (r *Rooms) Add(state *RoomState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rooms[state.RoomID] = &roomCtx{state: state}
}

func (r *Rooms) lookup(ctx context.Context, roomID string) (*roomCtx, error) {
	r.mu.RLock()
	rc := r.rooms[roomID]
	r.mu.RUnlock()
	if rc != nil {
		return rc, nil
	}
	// fall back to the gateway so rooms survive a process restart
	state, err := r.store.LoadRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing := r.rooms[roomID]; existing != nil {
		return existing, nil
	}
	rc = &roomCtx{state: state}
	r.rooms[roomID] = rc
	return rc, nil
}

// ProcessAction validates and applies one player action. Validation failures
// surface before anything is written; a successful action appends its event
// and persists the room, resolving the round and ending the game when the
// vote count triggers it.
func (r *Rooms) ProcessAction(ctx context.Context, roomID string, act Action) error {
	rc, err := r.lookup(ctx, roomID)
	if err != nil {
		return err
	}
	rc.mu.Lock()
	defer rc.mu.Unlock()
	state := rc.state

	if state.Status == RoomFinished {
		return fmt.Errorf("%w: room %s", ErrRoomFinished, roomID)
	}

	switch act.Type {
	case ActionSpeech:
		err = r.applySpeech(state, act)
	case ActionVote:
		if act.VoteTarget == "" {
			return fmt.Errorf("%w: room %s agent %s", ErrEmptyVoteTarget, roomID, act.AgentID)
		}
		err = r.applyVote(ctx, state, act)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedAction, act.Type)
	}
	if err != nil {
		return err
	}

	return r.store.SaveRoom(ctx, state)
}

func (r *Rooms) applySpeech(state *RoomState, act Action) error {
	idx := playerIndex(state, act.AgentID)
	if idx < 0 {
		return fmt.Errorf("%w: agent %s in room %s", ErrPlayerNotInRoom, act.AgentID, state.RoomID)
	}
	p := &state.Players[idx]
	if p.PlayerStatus == PlayerDead {
		return fmt.Errorf("%w: agent %s speech in room %s", ErrDeadPlayerAction, act.AgentID, state.RoomID)
	}
	appendEvent(state, GameEvent{
		Type:         EventSpeech,
		AgentID:      p.AgentID,
		DisplayName:  p.DisplayName,
		Text:         act.Content,
		HighlightIdx: idx,
	})
	return nil
}

func (r *Rooms) applyVote(ctx context.Context, state *RoomState, act Action) error {
	idx := playerIndex(state, act.AgentID)
	if idx < 0 {
		return fmt.Errorf("%w: agent %s in room %s", ErrPlayerNotInRoom, act.AgentID, state.RoomID)
	}
	voter := &state.Players[idx]
	if voter.PlayerStatus == PlayerDead {
		return fmt.Errorf("%w: agent %s vote in room %s", ErrDeadPlayerAction, act.AgentID, state.RoomID)
	}
	target := playerByDisplayName(state, act.VoteTarget)
	if target == nil {
		return fmt.Errorf("%w: %q in room %s", ErrInvalidVoteTarget, act.VoteTarget, state.RoomID)
	}
	// a vote naming a dead player is recorded but does not count
	valid := target.PlayerStatus == PlayerAlive
	appendEvent(state, GameEvent{
		Type:         EventVote,
		AgentID:      voter.AgentID,
		DisplayName:  voter.DisplayName,
		VoteTarget:   target.DisplayName,
		VoteTargetID: target.AgentID,
		VoteValid:    valid,
		HighlightIdx: idx,
	})

	if validVoteCount(state) == aliveCount(state) {
		return r.resolveRound(ctx, state)
	}
	return nil
}

// resolveRound tallies the round's valid votes. The strict-maximum target is
// eliminated; a tie leaves everyone alive. Either way the termination
// condition is rechecked before the round advances.
func (r *Rooms) resolveRound(ctx context.Context, state *RoomState) error {
	tally := make(map[string]int)
	for _, ev := range state.Events {
		if ev.Round == state.CurrentRound && ev.Type == EventVote && ev.VoteValid {
			tally[ev.VoteTarget]++
		}
	}

	maxVotes := 0
	var leaders []string
	for name, n := range tally {
		switch {
		case n > maxVotes:
			maxVotes = n
			leaders = []string{name}
		case n == maxVotes:
			leaders = append(leaders, name)
		}
	}

	if len(leaders) == 1 {
		out := playerByDisplayName(state, leaders[0])
		if out != nil {
			out.PlayerStatus = PlayerDead
			appendEvent(state, GameEvent{
				Type:         EventHostSpeech,
				Text:         fmt.Sprintf("%s 被投票出局", out.DisplayName),
				HighlightIdx: playerIndex(state, out.AgentID),
			})
		}
	} else {
		appendEvent(state, GameEvent{
			Type: EventHostSpeech,
			Text: "平票，无人出局",
		})
	}

	if gameOver(state) {
		return r.endGame(ctx, state)
	}

	state.CurrentRound++
	appendEvent(state, GameEvent{
		Type: EventHostSpeech,
		Text: fmt.Sprintf("第%d轮开始", state.CurrentRound),
	})
	return nil
}

func gameOver(state *RoomState) bool {
	spies, innocents := aliveByRole(state)
	return spies == 0 || spies >= innocents
}

func (r *Rooms) endGame(ctx context.Context, state *RoomState) error {
	spies, _ := aliveByRole(state)
	winnerRole := RoleSpy
	if spies == 0 {
		winnerRole = RoleInnocent
	}

	end := &EndGameData{WinnerRole: winnerRole}
	for _, p := range state.Players {
		delta := loseDelta
		if p.Role == winnerRole {
			delta = winDelta
			end.Winners = append(end.Winners, p)
		}
		end.Scores = append(end.Scores, ScoreDelta{AgentID: p.AgentID, Delta: delta})
	}

	state.Status = RoomFinished
	state.EndGame = end
	appendEvent(state, GameEvent{
		Type:       EventEnd,
		WinnerRole: winnerRole,
	})

	r.log.Info().
		Str("roomId", state.RoomID).
		Str("winnerRole", string(winnerRole)).
		Int("rounds", state.CurrentRound).
		Msg("game finished")

	if err := r.reporter.Apply(ctx, state); err != nil {
		// the room result stands even if score persistence lags
		r.log.Error().Err(err).Str("roomId", state.RoomID).Msg("settlement failed")
	}
	return nil
}

// View returns a read-only projection of the room for polling clients.
func (r *Rooms) View(ctx context.Context, roomID string) (RoomView, error) {
	rc, err := r.lookup(ctx, roomID)
	if err != nil {
		return RoomView{}, err
	}
	rc.mu.Lock()
	defer rc.mu.Unlock()
	state := rc.state

	view := RoomView{
		RoomID:         state.RoomID,
		Word:           state.Word,
		EventList:      append([]GameEvent(nil), state.Events...),
		InitialPlayers: append([]Player(nil), state.Players...),
	}
	if n := len(state.Events); n > 0 {
		last := state.Events[n-1]
		view.StatusDescs = last.StatusDescs
		view.HighlightIdx = last.HighlightIdx
	}
	if state.EndGame != nil {
		end := *state.EndGame
		view.EndGame = &end
	}
	return view, nil
}

const (
	winDelta  = 10.0
	loseDelta = -5.0
)

func playerIndex(state *RoomState, agentID string) int {
	for i := range state.Players {
		if state.Players[i].AgentID == agentID {
			return i
		}
	}
	return -1
}

func playerByDisplayName(state *RoomState, name string) *Player {
	for i := range state.Players {
		if state.Players[i].DisplayName == name {
			return &state.Players[i]
		}
	}
	return nil
}

func aliveCount(state *RoomState) int {
	n := 0
	for _, p := range state.Players {
		if p.PlayerStatus == PlayerAlive {
			n++
		}
	}
	return n
}

func aliveByRole(state *RoomState) (spies, innocents int) {
	for _, p := range state.Players {
		if p.PlayerStatus != PlayerAlive {
			continue
		}
		if p.Role == RoleSpy {
			spies++
		} else {
			innocents++
		}
	}
	return spies, innocents
}

func validVoteCount(state *RoomState) int {
	n := 0
	for _, ev := range state.Events {
		if ev.Round == state.CurrentRound && ev.Type == EventVote && ev.VoteValid {
			n++
		}
	}
	return n
}

func statusDescriptions(state *RoomState) []string {
	descs := make([]string, 0, len(state.Players))
	for _, p := range state.Players {
		descs = append(descs, fmt.Sprintf("%s(%s)", p.DisplayName, p.PlayerStatus))
	}
	return descs
}

// appendEvent stamps the event with the current round, wall-clock time and a
// fresh status-description snapshot before appending it.
func appendEvent(state *RoomState, ev GameEvent) {
	ev.Round = state.CurrentRound
	ev.At = time.Now().UTC()
	ev.StatusDescs = statusDescriptions(state)
	state.Events = append(state.Events, ev)
}
