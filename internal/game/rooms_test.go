package game

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
)

var testNames = []string{"甲", "乙", "丙", "丁", "戊", "己"}

// seatRoom builds a playing room with n players (agent ids a1..an), marks the
// given seats as spies, registers it with a fresh Rooms and puts every member
// in_game on the tracker.
func seatRoom(t *testing.T, h *harness, n int, spySeats ...int) *RoomState {
	t.Helper()
	state := &RoomState{
		RoomID:       "room-1",
		Status:       RoomPlaying,
		Word:         "苹果",
		SpyWord:      "梨",
		CurrentRound: 1,
	}
	spies := make(map[int]bool)
	for _, i := range spySeats {
		spies[i] = true
	}
	for i := 0; i < n; i++ {
		agentID := fmt.Sprintf("a%d", i+1)
		role := RoleInnocent
		if spies[i] {
			role = RoleSpy
		}
		state.Players = append(state.Players, Player{
			AgentID:      agentID,
			DisplayName:  testNames[i],
			AgentName:    "Agent " + agentID,
			Role:         role,
			PlayerStatus: PlayerAlive,
		})
		h.addAgent(agentID, "Agent "+agentID, 100)
		if err := h.tracker.Transition(agentID, StatusQueued, ""); err != nil {
			t.Fatal(err)
		}
		if err := h.tracker.Transition(agentID, StatusInGame, state.RoomID); err != nil {
			t.Fatal(err)
		}
	}
	appendEvent(state, GameEvent{Type: EventStart})
	h.rooms.Add(state)
	return state
}

func TestProcessActionRoomNotFound(t *testing.T) {
	h := newHarness(DefaultConfig())
	err := h.rooms.ProcessAction(context.Background(), "nope", Action{AgentID: "a1", Type: ActionSpeech})
	if !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestSpeechAppendsEvent(t *testing.T) {
	h := newHarness(DefaultConfig())
	state := seatRoom(t, h, 4, 0)

	err := h.rooms.ProcessAction(context.Background(), "room-1", Action{
		AgentID: "a2", Type: ActionSpeech, Content: "也可以向下",
	})
	if err != nil {
		t.Fatal(err)
	}
	last := state.Events[len(state.Events)-1]
	if last.Type != EventSpeech || last.Text != "也可以向下" {
		t.Fatalf("unexpected event %+v", last)
	}
	if last.HighlightIdx != 1 {
		t.Fatalf("expected highlight index 1, got %d", last.HighlightIdx)
	}
	if len(last.StatusDescs) != 4 || last.StatusDescs[1] != "乙(alive)" {
		t.Fatalf("unexpected status descriptions %v", last.StatusDescs)
	}
}

func TestDeadPlayerCannotAct(t *testing.T) {
	h := newHarness(DefaultConfig())
	state := seatRoom(t, h, 4, 0)
	state.Players[2].PlayerStatus = PlayerDead
	before := len(state.Events)

	err := h.rooms.ProcessAction(context.Background(), "room-1", Action{
		AgentID: "a3", Type: ActionSpeech, Content: "hi",
	})
	if !errors.Is(err, ErrDeadPlayerAction) {
		t.Fatalf("expected ErrDeadPlayerAction for speech, got %v", err)
	}
	err = h.rooms.ProcessAction(context.Background(), "room-1", Action{
		AgentID: "a3", Type: ActionVote, VoteTarget: "甲",
	})
	if !errors.Is(err, ErrDeadPlayerAction) {
		t.Fatalf("expected ErrDeadPlayerAction for vote, got %v", err)
	}
	if len(state.Events) != before {
		t.Fatalf("rejected actions must append no events: %d -> %d", before, len(state.Events))
	}
}

func TestVoteValidation(t *testing.T) {
	h := newHarness(DefaultConfig())
	seatRoom(t, h, 4, 0)
	ctx := context.Background()

	err := h.rooms.ProcessAction(ctx, "room-1", Action{AgentID: "a1", Type: ActionVote})
	if !errors.Is(err, ErrEmptyVoteTarget) {
		t.Fatalf("expected ErrEmptyVoteTarget, got %v", err)
	}
	err = h.rooms.ProcessAction(ctx, "room-1", Action{AgentID: "a1", Type: ActionVote, VoteTarget: "不存在"})
	if !errors.Is(err, ErrInvalidVoteTarget) {
		t.Fatalf("expected ErrInvalidVoteTarget, got %v", err)
	}
	err = h.rooms.ProcessAction(ctx, "room-1", Action{AgentID: "a1", Type: "dance"})
	if !errors.Is(err, ErrUnsupportedAction) {
		t.Fatalf("expected ErrUnsupportedAction, got %v", err)
	}
}

// Four alive players, three votes for 甲 and one for 乙: 甲 (the sole spy)
// dies and the innocents win.
func TestRoundResolutionEliminatesSpy(t *testing.T) {
	h := newHarness(DefaultConfig())
	state := seatRoom(t, h, 4, 0)
	ctx := context.Background()

	votes := []struct{ voter, target string }{
		{"a2", "甲"},
		{"a3", "甲"},
		{"a4", "甲"},
		{"a1", "乙"},
	}
	for _, v := range votes {
		if err := h.rooms.ProcessAction(ctx, "room-1", Action{AgentID: v.voter, Type: ActionVote, VoteTarget: v.target}); err != nil {
			t.Fatal(err)
		}
	}

	if state.Players[0].PlayerStatus != PlayerDead {
		t.Fatal("甲 should be voted out")
	}
	if state.Status != RoomFinished {
		t.Fatalf("expected finished room, got %s", state.Status)
	}
	if state.EndGame == nil || state.EndGame.WinnerRole != RoleInnocent {
		t.Fatalf("expected innocent win, got %+v", state.EndGame)
	}
	last := state.Events[len(state.Events)-1]
	if last.Type != EventEnd || last.WinnerRole != RoleInnocent {
		t.Fatalf("expected end event with innocent winner, got %+v", last)
	}

	// settlement released everyone and applied deltas
	for i := 1; i <= 4; i++ {
		agentID := fmt.Sprintf("a%d", i)
		if got := h.tracker.Get(agentID).Status; got != StatusIdle {
			t.Fatalf("agent %s should be idle after settlement, got %s", agentID, got)
		}
	}
	winner := h.store.agents["a2"]
	if winner.Score != 100+winDelta || winner.WinCount != 1 || winner.GameCount != 1 {
		t.Fatalf("unexpected winner profile %+v", winner)
	}
	loser := h.store.agents["a1"]
	if loser.Score != 100+loseDelta || loser.WinCount != 0 || loser.GameCount != 1 {
		t.Fatalf("unexpected loser profile %+v", loser)
	}
}

func TestTieAdvancesRoundWithoutElimination(t *testing.T) {
	h := newHarness(DefaultConfig())
	state := seatRoom(t, h, 4, 0)
	ctx := context.Background()

	votes := []struct{ voter, target string }{
		{"a1", "乙"},
		{"a2", "甲"},
		{"a3", "乙"},
		{"a4", "甲"},
	}
	for _, v := range votes {
		if err := h.rooms.ProcessAction(ctx, "room-1", Action{AgentID: v.voter, Type: ActionVote, VoteTarget: v.target}); err != nil {
			t.Fatal(err)
		}
	}

	for i, p := range state.Players {
		if p.PlayerStatus != PlayerAlive {
			t.Fatalf("player %d should survive a tie", i)
		}
	}
	if state.CurrentRound != 2 {
		t.Fatalf("expected round 2 after tie, got %d", state.CurrentRound)
	}
	if state.Status != RoomPlaying {
		t.Fatalf("room should keep playing after a tie, got %s", state.Status)
	}
}

func TestSpiesWinWhenTheyReachParity(t *testing.T) {
	// four players, two spies: voting out one innocent leaves 2 spies vs 1
	// innocent, so the spies win immediately
	h := newHarness(DefaultConfig())
	state := seatRoom(t, h, 4, 0, 1)
	ctx := context.Background()

	for _, v := range []struct{ voter, target string }{
		{"a1", "丙"},
		{"a2", "丙"},
		{"a3", "丁"},
		{"a4", "丙"},
	} {
		if err := h.rooms.ProcessAction(ctx, "room-1", Action{AgentID: v.voter, Type: ActionVote, VoteTarget: v.target}); err != nil {
			t.Fatal(err)
		}
	}

	if state.Status != RoomFinished {
		t.Fatalf("expected finished room, got %s", state.Status)
	}
	if state.EndGame.WinnerRole != RoleSpy {
		t.Fatalf("expected spy win, got %s", state.EndGame.WinnerRole)
	}
	if len(state.EndGame.Winners) != 2 {
		t.Fatalf("expected 2 winners, got %d", len(state.EndGame.Winners))
	}
}

func TestVoteForDeadPlayerIsRecordedInvalid(t *testing.T) {
	h := newHarness(DefaultConfig())
	state := seatRoom(t, h, 4, 0)
	state.Players[3].PlayerStatus = PlayerDead
	ctx := context.Background()

	if err := h.rooms.ProcessAction(ctx, "room-1", Action{AgentID: "a1", Type: ActionVote, VoteTarget: "丁"}); err != nil {
		t.Fatal(err)
	}
	last := state.Events[len(state.Events)-1]
	if last.Type != EventVote || last.VoteValid {
		t.Fatalf("vote for a dead player should be recorded invalid, got %+v", last)
	}
	if state.CurrentRound != 1 {
		t.Fatal("an invalid vote must not count toward round resolution")
	}
}

func TestFinishedRoomRejectsActions(t *testing.T) {
	h := newHarness(DefaultConfig())
	state := seatRoom(t, h, 4, 0)
	state.Status = RoomFinished

	err := h.rooms.ProcessAction(context.Background(), "room-1", Action{AgentID: "a1", Type: ActionSpeech, Content: "hi"})
	if !errors.Is(err, ErrRoomFinished) {
		t.Fatalf("expected ErrRoomFinished, got %v", err)
	}
}

func TestRoomViewProjection(t *testing.T) {
	h := newHarness(DefaultConfig())
	state := seatRoom(t, h, 4, 0)
	ctx := context.Background()

	if err := h.rooms.ProcessAction(ctx, "room-1", Action{AgentID: "a2", Type: ActionSpeech, Content: "喜欢蛇"}); err != nil {
		t.Fatal(err)
	}
	view, err := h.rooms.View(ctx, "room-1")
	if err != nil {
		t.Fatal(err)
	}
	if view.RoomID != "room-1" || view.Word != "苹果" {
		t.Fatalf("unexpected view header %+v", view)
	}
	if len(view.EventList) != len(state.Events) {
		t.Fatalf("expected %d events, got %d", len(state.Events), len(view.EventList))
	}
	if view.HighlightIdx != 1 {
		t.Fatalf("expected highlight on the last speaker, got %d", view.HighlightIdx)
	}
	if view.EndGame != nil {
		t.Fatal("end game data should be absent while playing")
	}

	// the view must be detached from live state
	view.InitialPlayers[0].PlayerStatus = PlayerDead
	if state.Players[0].PlayerStatus != PlayerAlive {
		t.Fatal("mutating the view leaked into room state")
	}

	if _, err := h.rooms.View(ctx, "missing"); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestRoomsReloadFromStore(t *testing.T) {
	h := newHarness(DefaultConfig())
	state := seatRoom(t, h, 4, 0)
	ctx := context.Background()
	if err := h.store.SaveRoom(ctx, state); err != nil {
		t.Fatal(err)
	}

	// a second Rooms over the same store must find the room
	fresh := NewRooms(h.store, NewReporter(h.store, h.tracker, zerolog.Nop()), zerolog.Nop())
	view, err := fresh.View(ctx, "room-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(view.InitialPlayers) != 4 {
		t.Fatalf("expected 4 players after reload, got %d", len(view.InitialPlayers))
	}
}
