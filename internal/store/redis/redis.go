// Package redis implements the matching-entry store on Redis, for deployments
// that want queue entries visible outside the game process. Each entry is a
// JSON value keyed by agent id under a shared hash.
package redis

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/deceit-arena/backend/internal/game"
)

const queueKey = "deceit:matching_queue"

type MatchStore struct {
	rdb *goredis.Client
}

func NewMatchStore(ctx context.Context, addr string) (*MatchStore, error) {
	rdb := goredis.NewClient(&goredis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect redis %s: %w", addr, err)
	}
	return &MatchStore{rdb: rdb}, nil
}

func (s *MatchStore) Close() error {
	return s.rdb.Close()
}

func (s *MatchStore) ListMatchingEntries(ctx context.Context) ([]game.QueueEntry, error) {
	values, err := s.rdb.HVals(ctx, queueKey).Result()
	if err != nil {
		return nil, err
	}
	out := make([]game.QueueEntry, 0, len(values))
	for _, raw := range values {
		var e game.QueueEntry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, fmt.Errorf("decode queue entry: %w", err)
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *MatchStore) InsertMatchingEntry(ctx context.Context, entry game.QueueEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return s.rdb.HSet(ctx, queueKey, entry.AgentID, raw).Err()
}

func (s *MatchStore) DeleteMatchingEntry(ctx context.Context, agentID string) error {
	return s.rdb.HDel(ctx, queueKey, agentID).Err()
}
