package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/deceit-arena/backend/internal/game"
)

func TestAgentRoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()

	if _, err := s.LoadAgent(ctx, "a1"); !errors.Is(err, game.ErrAgentNotFound) {
		t.Fatalf("expected ErrAgentNotFound, got %v", err)
	}

	in := &game.AgentProfile{AgentID: "a1", Name: "测试特工", Score: 173.2}
	if err := s.SaveAgent(ctx, in); err != nil {
		t.Fatal(err)
	}
	out, err := s.LoadAgent(ctx, "a1")
	if err != nil {
		t.Fatal(err)
	}
	if out.Name != "测试特工" || out.Score != 173.2 {
		t.Fatalf("unexpected profile %+v", out)
	}

	// the store must hold its own copies in both directions
	in.Score = 0
	out.Score = 1
	again, err := s.LoadAgent(ctx, "a1")
	if err != nil {
		t.Fatal(err)
	}
	if again.Score != 173.2 {
		t.Fatalf("stored profile was mutated through a caller pointer: %+v", again)
	}
}

func TestSaveAgentReplaces(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.SaveAgent(ctx, &game.AgentProfile{AgentID: "a1", Score: 100}); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveAgent(ctx, &game.AgentProfile{AgentID: "a1", Score: 110, GameCount: 1}); err != nil {
		t.Fatal(err)
	}
	out, err := s.LoadAgent(ctx, "a1")
	if err != nil {
		t.Fatal(err)
	}
	if out.Score != 110 || out.GameCount != 1 {
		t.Fatalf("expected replaced profile, got %+v", out)
	}
	list, err := s.ListAgents(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("expected one agent, got %d", len(list))
	}
}

func TestRoomSnapshotIsolation(t *testing.T) {
	s := New()
	ctx := context.Background()

	if _, err := s.LoadRoom(ctx, "r1"); !errors.Is(err, game.ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}

	state := &game.RoomState{
		RoomID:       "r1",
		Status:       game.RoomPlaying,
		Word:         "苹果",
		SpyWord:      "梨",
		CurrentRound: 1,
		Players: []game.Player{
			{AgentID: "a1", DisplayName: "甲", Role: game.RoleSpy, PlayerStatus: game.PlayerAlive},
		},
		Events: []game.GameEvent{{Type: game.EventStart, Round: 1}},
	}
	if err := s.SaveRoom(ctx, state); err != nil {
		t.Fatal(err)
	}

	// mutating the caller's slices after save must not reach the snapshot
	state.Players[0].PlayerStatus = game.PlayerDead
	state.Events = append(state.Events, game.GameEvent{Type: game.EventSpeech})

	out, err := s.LoadRoom(ctx, "r1")
	if err != nil {
		t.Fatal(err)
	}
	if out.Players[0].PlayerStatus != game.PlayerAlive {
		t.Fatal("stored room aliased the caller's player slice")
	}
	if len(out.Events) != 1 {
		t.Fatalf("stored room aliased the caller's event slice: %d events", len(out.Events))
	}

	// and mutating a loaded copy must not reach the snapshot either
	out.Players[0].PlayerStatus = game.PlayerDead
	fresh, err := s.LoadRoom(ctx, "r1")
	if err != nil {
		t.Fatal(err)
	}
	if fresh.Players[0].PlayerStatus != game.PlayerAlive {
		t.Fatal("loaded room aliased the stored snapshot")
	}
}

func TestMatchingEntries(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Now().UTC()

	if err := s.InsertMatchingEntry(ctx, game.QueueEntry{AgentID: "a1", Score: 100, EnqueuedAt: now}); err != nil {
		t.Fatal(err)
	}
	if err := s.InsertMatchingEntry(ctx, game.QueueEntry{AgentID: "a1", Score: 120, EnqueuedAt: now, Synthetic: true}); err != nil {
		t.Fatal(err)
	}
	list, err := s.ListMatchingEntries(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("insert must replace by agent id, got %d entries", len(list))
	}
	if list[0].Score != 120 || !list[0].Synthetic {
		t.Fatalf("unexpected entry %+v", list[0])
	}

	if err := s.DeleteMatchingEntry(ctx, "a1"); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteMatchingEntry(ctx, "a1"); err != nil {
		t.Fatal(err)
	}
	list, err = s.ListMatchingEntries(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty queue, got %v", list)
	}
}
