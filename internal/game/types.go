package game

import (
	"time"
)

type AgentStatus string

const (
	StatusIdle   AgentStatus = "idle"
	StatusQueued AgentStatus = "queued"
	StatusInGame AgentStatus = "in_game"
)

type Role string

const (
	RoleSpy      Role = "spy"
	RoleInnocent Role = "innocent"
)

type PlayerStatus string

const (
	PlayerAlive PlayerStatus = "alive"
	PlayerDead  PlayerStatus = "dead"
)

type RoomStatus string

const (
	RoomWaiting  RoomStatus = "waiting"
	RoomPlaying  RoomStatus = "playing"
	RoomFinished RoomStatus = "finished"
)

type EventType string

const (
	EventStart      EventType = "start"
	EventHostSpeech EventType = "hostSpeech"
	EventSpeech     EventType = "speech"
	EventVote       EventType = "vote"
	EventEnd        EventType = "end"
)

// StatusRecord is the tracker's view of one agent. RoomID is only set while
// Status is StatusInGame.
type StatusRecord struct {
	AgentID    string      `json:"agentId"`
	Status     AgentStatus `json:"status"`
	RoomID     string      `json:"roomId,omitempty"`
	LastUpdate time.Time   `json:"lastUpdate"`
}

// QueueEntry is one agent waiting for a match. Synthetic entries are backfill
// agents enqueued by the scheduler, not by a caller.
type QueueEntry struct {
	AgentID    string    `json:"agentId"`
	Score      float64   `json:"score"`
	EnqueuedAt time.Time `json:"enqueuedAt"`
	Synthetic  bool      `json:"synthetic"`
}

// PromptSet holds an agent's reasoning templates. Placeholders {name}, {word},
// {history} and {choices} are substituted before the LLM call.
type PromptSet struct {
	System string `json:"systemPrompt"`
	Speech string `json:"speechPrompt"`
	Vote   string `json:"votePrompt"`
}

// AgentProfile is the durable agent record behind the persistence gateway.
type AgentProfile struct {
	AgentID   string    `json:"agentId"`
	Name      string    `json:"name"`
	Avatar    string    `json:"avatar,omitempty"`
	Score     float64   `json:"score"`
	WinCount  int       `json:"winCount"`
	GameCount int       `json:"gameCount"`
	Prompts   PromptSet `json:"prompts"`
}

// Player is an agent's room-scoped snapshot. Profile fields are copied at
// room-creation time and never refreshed, so a finished room's history is
// immune to later profile changes.
type Player struct {
	AgentID      string       `json:"agentId"`
	DisplayName  string       `json:"displayName"`
	AgentName    string       `json:"agentName"`
	Role         Role         `json:"role"`
	PlayerStatus PlayerStatus `json:"playerStatus"`
	Avatar       string       `json:"avatar,omitempty"`
	Score        float64      `json:"score"`
	GameCount    int          `json:"gameCount"`
}

type GameEvent struct {
	Round        int       `json:"round"`
	Type         EventType `json:"eventType"`
	AgentID      string    `json:"agentId,omitempty"`
	DisplayName  string    `json:"displayName,omitempty"`
	Text         string    `json:"text,omitempty"`
	VoteTarget   string    `json:"voteToDisplayName,omitempty"`
	VoteTargetID string    `json:"voteToAgentId,omitempty"`
	VoteValid    bool      `json:"voteIsValid,omitempty"`
	WinnerRole   Role      `json:"winnerRole,omitempty"`
	HighlightIdx int       `json:"highlightIndex"`
	StatusDescs  []string  `json:"currentStatusDescriptions"`
	At           time.Time `json:"at"`
}

type ScoreDelta struct {
	AgentID string  `json:"agentId"`
	Delta   float64 `json:"delta"`
}

type EndGameData struct {
	WinnerRole Role         `json:"winnerRole"`
	Winners    []Player     `json:"winners"`
	Scores     []ScoreDelta `json:"scores"`
}

type RoomState struct {
	RoomID       string       `json:"roomId"`
	Status       RoomStatus   `json:"status"`
	Word         string       `json:"word,omitempty"`
	SpyWord      string       `json:"spyWord,omitempty"`
	CurrentRound int          `json:"currentRound"`
	Players      []Player     `json:"players"`
	Events       []GameEvent  `json:"events"`
	EndGame      *EndGameData `json:"endGameData,omitempty"`
}

// RoomView is the read-only projection handed to polling clients.
type RoomView struct {
	RoomID         string       `json:"roomId"`
	Word           string       `json:"word"`
	EventList      []GameEvent  `json:"eventList"`
	InitialPlayers []Player     `json:"initialPlayerList"`
	StatusDescs    []string     `json:"currentStatusDescriptions"`
	HighlightIdx   int          `json:"highlightIndex"`
	EndGame        *EndGameData `json:"endGameData,omitempty"`
}

type ActionType string

const (
	ActionSpeech ActionType = "speech"
	ActionVote   ActionType = "vote"
)

type Action struct {
	AgentID    string     `json:"agentId"`
	Type       ActionType `json:"action"`
	Content    string     `json:"content,omitempty"`
	VoteTarget string     `json:"voteToDisplayName,omitempty"`
}

// Config carries the matchmaking and room tunables.
type Config struct {
	PlayersPerRoom    int
	MinPlayersToStart int
	ScoreRange        float64
	SpyRatio          float64
	MatchInterval     time.Duration
	MaxWait           time.Duration
	GuardTimeout      time.Duration
}

func DefaultConfig() Config {
	return Config{
		PlayersPerRoom:    6,
		MinPlayersToStart: 3,
		ScoreRange:        50,
		SpyRatio:          1.0 / 3.0,
		MatchInterval:     5 * time.Second,
		MaxWait:           10 * time.Second,
		GuardTimeout:      30 * time.Second,
	}
}
