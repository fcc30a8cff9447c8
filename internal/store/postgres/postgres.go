// Package postgres implements the persistence gateway on PostgreSQL via pgx.
// Players and events are stored as JSONB snapshots alongside the room row;
// every statement is single-record atomic, which is all the core asks for.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/deceit-arena/backend/internal/game"
)

const schema = `
CREATE TABLE IF NOT EXISTS agents (
	agent_id   TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	avatar     TEXT NOT NULL DEFAULT '',
	score      DOUBLE PRECISION NOT NULL DEFAULT 0,
	win_count  INTEGER NOT NULL DEFAULT 0,
	game_count INTEGER NOT NULL DEFAULT 0,
	prompts    JSONB NOT NULL DEFAULT '{}'
);
CREATE TABLE IF NOT EXISTS rooms (
	room_id       TEXT PRIMARY KEY,
	status        TEXT NOT NULL,
	word          TEXT NOT NULL DEFAULT '',
	spy_word      TEXT NOT NULL DEFAULT '',
	current_round INTEGER NOT NULL,
	players       JSONB NOT NULL,
	events        JSONB NOT NULL,
	end_game      JSONB
);
CREATE TABLE IF NOT EXISTS matching_queue (
	agent_id    TEXT PRIMARY KEY,
	score       DOUBLE PRECISION NOT NULL,
	enqueued_at TIMESTAMPTZ NOT NULL,
	synthetic   BOOLEAN NOT NULL DEFAULT FALSE
);
`

type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) LoadAgent(ctx context.Context, agentID string) (*game.AgentProfile, error) {
	var a game.AgentProfile
	var prompts []byte
	err := s.pool.QueryRow(ctx,
		`SELECT agent_id, name, avatar, score, win_count, game_count, prompts
		 FROM agents WHERE agent_id = $1`, agentID,
	).Scan(&a.AgentID, &a.Name, &a.Avatar, &a.Score, &a.WinCount, &a.GameCount, &prompts)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", game.ErrAgentNotFound, agentID)
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(prompts, &a.Prompts); err != nil {
		return nil, fmt.Errorf("decode prompts for %s: %w", agentID, err)
	}
	return &a, nil
}

func (s *Store) SaveAgent(ctx context.Context, agent *game.AgentProfile) error {
	prompts, err := json.Marshal(agent.Prompts)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO agents (agent_id, name, avatar, score, win_count, game_count, prompts)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (agent_id) DO UPDATE SET
			name = EXCLUDED.name,
			avatar = EXCLUDED.avatar,
			score = EXCLUDED.score,
			win_count = EXCLUDED.win_count,
			game_count = EXCLUDED.game_count,
			prompts = EXCLUDED.prompts`,
		agent.AgentID, agent.Name, agent.Avatar, agent.Score, agent.WinCount, agent.GameCount, prompts)
	return err
}

func (s *Store) ListAgents(ctx context.Context) ([]game.AgentProfile, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT agent_id, name, avatar, score, win_count, game_count, prompts FROM agents`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []game.AgentProfile
	for rows.Next() {
		var a game.AgentProfile
		var prompts []byte
		if err := rows.Scan(&a.AgentID, &a.Name, &a.Avatar, &a.Score, &a.WinCount, &a.GameCount, &prompts); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(prompts, &a.Prompts); err != nil {
			return nil, fmt.Errorf("decode prompts for %s: %w", a.AgentID, err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) LoadRoom(ctx context.Context, roomID string) (*game.RoomState, error) {
	var state game.RoomState
	var players, events, endGame []byte
	err := s.pool.QueryRow(ctx,
		`SELECT room_id, status, word, spy_word, current_round, players, events, end_game
		 FROM rooms WHERE room_id = $1`, roomID,
	).Scan(&state.RoomID, &state.Status, &state.Word, &state.SpyWord, &state.CurrentRound, &players, &events, &endGame)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", game.ErrRoomNotFound, roomID)
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(players, &state.Players); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(events, &state.Events); err != nil {
		return nil, err
	}
	if len(endGame) > 0 {
		if err := json.Unmarshal(endGame, &state.EndGame); err != nil {
			return nil, err
		}
	}
	return &state, nil
}

func (s *Store) SaveRoom(ctx context.Context, room *game.RoomState) error {
	players, err := json.Marshal(room.Players)
	if err != nil {
		return err
	}
	events, err := json.Marshal(room.Events)
	if err != nil {
		return err
	}
	var endGame []byte
	if room.EndGame != nil {
		if endGame, err = json.Marshal(room.EndGame); err != nil {
			return err
		}
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO rooms (room_id, status, word, spy_word, current_round, players, events, end_game)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (room_id) DO UPDATE SET
			status = EXCLUDED.status,
			current_round = EXCLUDED.current_round,
			players = EXCLUDED.players,
			events = EXCLUDED.events,
			end_game = EXCLUDED.end_game`,
		room.RoomID, room.Status, room.Word, room.SpyWord, room.CurrentRound, players, events, endGame)
	return err
}

func (s *Store) ListMatchingEntries(ctx context.Context) ([]game.QueueEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT agent_id, score, enqueued_at, synthetic FROM matching_queue`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []game.QueueEntry
	for rows.Next() {
		var e game.QueueEntry
		if err := rows.Scan(&e.AgentID, &e.Score, &e.EnqueuedAt, &e.Synthetic); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) InsertMatchingEntry(ctx context.Context, entry game.QueueEntry) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO matching_queue (agent_id, score, enqueued_at, synthetic)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (agent_id) DO UPDATE SET
			score = EXCLUDED.score,
			enqueued_at = EXCLUDED.enqueued_at,
			synthetic = EXCLUDED.synthetic`,
		entry.AgentID, entry.Score, entry.EnqueuedAt, entry.Synthetic)
	return err
}

func (s *Store) DeleteMatchingEntry(ctx context.Context, agentID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM matching_queue WHERE agent_id = $1`, agentID)
	return err
}
