package game

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// Reporter applies end-of-game score deltas and win/game counts through the
// persistence gateway, and releases every member back to idle. A thin adapter;
// all the math already happened in EndGameData.
type Reporter struct {
	agents  AgentStore
	tracker *Tracker
	log     zerolog.Logger
}

func NewReporter(agents AgentStore, tracker *Tracker, log zerolog.Logger) *Reporter {
	return &Reporter{agents: agents, tracker: tracker, log: log}
}

func (rp *Reporter) Apply(ctx context.Context, state *RoomState) error {
	if state.EndGame == nil {
		return fmt.Errorf("room %s: settlement without end game data", state.RoomID)
	}
	deltas := make(map[string]float64, len(state.EndGame.Scores))
	for _, s := range state.EndGame.Scores {
		deltas[s.AgentID] = s.Delta
	}

	var errs []error
	for _, p := range state.Players {
		// release first so a store failure cannot strand the agent in_game
		rp.tracker.TransitionIf(p.AgentID, StatusInGame, StatusIdle, "")

		profile, err := rp.agents.LoadAgent(ctx, p.AgentID)
		if err != nil {
			if errors.Is(err, ErrAgentNotFound) {
				continue
			}
			errs = append(errs, fmt.Errorf("load agent %s: %w", p.AgentID, err))
			continue
		}
		profile.Score += deltas[p.AgentID]
		profile.GameCount++
		if p.Role == state.EndGame.WinnerRole {
			profile.WinCount++
		}
		if err := rp.agents.SaveAgent(ctx, profile); err != nil {
			errs = append(errs, fmt.Errorf("save agent %s: %w", p.AgentID, err))
			continue
		}
		rp.log.Debug().
			Str("agentId", p.AgentID).
			Float64("delta", deltas[p.AgentID]).
			Str("roomId", state.RoomID).
			Msg("score settled")
	}
	return errors.Join(errs...)
}
