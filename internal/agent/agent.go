// Package agent generates an agent's in-game behavior. Each agent keeps a
// room-scoped memory (alias, secret word, transcript) that the host narrates
// into; speech and votes come from the agent's stored prompt templates run
// through the LLM provider.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/deceit-arena/backend/internal/ai"
	"github.com/deceit-arena/backend/internal/game"
)

type PerceptionKind string

const (
	PerceiveStart      PerceptionKind = "start"
	PerceiveWord       PerceptionKind = "distribution"
	PerceiveRound      PerceptionKind = "round"
	PerceiveVote       PerceptionKind = "vote"
	PerceiveVoteResult PerceptionKind = "vote_result"
	PerceiveResult     PerceptionKind = "result"
)

type Perception struct {
	Kind    PerceptionKind `json:"status"`
	Round   int            `json:"round,omitempty"`
	Word    string         `json:"word,omitempty"`
	Name    string         `json:"name,omitempty"`
	Message string         `json:"message,omitempty"`
}

type memory struct {
	name    string
	word    string
	history []string
}

type Service struct {
	agents   game.AgentStore
	provider ai.Provider
	model    string
	log      zerolog.Logger

	mu       sync.Mutex
	memories map[string]*memory
}

func New(agents game.AgentStore, provider ai.Provider, model string, log zerolog.Logger) *Service {
	return &Service{
		agents:   agents,
		provider: provider,
		model:    model,
		log:      log,
		memories: make(map[string]*memory),
	}
}

// Perceive feeds one game observation into the agent's memory.
func (s *Service) Perceive(ctx context.Context, agentID string, p Perception) error {
	profile, err := s.agents.LoadAgent(ctx, agentID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	mem := s.memories[agentID]
	if mem == nil {
		mem = &memory{name: profile.Name}
		s.memories[agentID] = mem
	}

	switch p.Kind {
	case PerceiveStart:
		// a new game wipes whatever the last one left behind
		mem = &memory{name: profile.Name}
		s.memories[agentID] = mem
		mem.history = append(mem.history, "主持人: 游戏开始，欢迎来到《谁是卧底》！")
	case PerceiveWord:
		if p.Word != "" {
			mem.word = p.Word
			mem.history = append(mem.history, fmt.Sprintf("主持人: %s，你的词语是：%s", mem.name, p.Word))
		}
	case PerceiveRound:
		if p.Name != "" && p.Message != "" {
			mem.history = append(mem.history, fmt.Sprintf("%s: %s", p.Name, p.Message))
		} else if p.Round > 0 {
			mem.history = append(mem.history, fmt.Sprintf("主持人: 第%d轮开始", p.Round))
		}
	case PerceiveVote:
		if p.Name != "" && p.Message != "" {
			mem.history = append(mem.history, fmt.Sprintf("%s: 投票给 %s", p.Name, p.Message))
		}
	case PerceiveVoteResult, PerceiveResult:
		if p.Message != "" {
			mem.history = append(mem.history, "主持人: "+p.Message)
		}
	default:
		return fmt.Errorf("unknown perception kind %q", p.Kind)
	}
	return nil
}

// Speech produces the agent's statement for the current round.
func (s *Service) Speech(ctx context.Context, agentID string) (string, error) {
	profile, mem, err := s.snapshot(ctx, agentID)
	if err != nil {
		return "", err
	}
	if profile.Prompts.Speech == "" {
		return "", errors.New("speech prompt template not set")
	}
	prompt := fill(profile.Prompts.Speech, mem, "")
	text, err := s.provider.CompleteWithSystem(ctx, s.model, profile.Prompts.System, prompt)
	if err != nil {
		return "", fmt.Errorf("generate speech for %s: %w", agentID, err)
	}
	return text, nil
}

// Vote picks a display name out of choices.
func (s *Service) Vote(ctx context.Context, agentID string, choices []string) (string, error) {
	profile, mem, err := s.snapshot(ctx, agentID)
	if err != nil {
		return "", err
	}
	if profile.Prompts.Vote == "" {
		return "", errors.New("vote prompt template not set")
	}
	prompt := fill(profile.Prompts.Vote, mem, strings.Join(choices, ", "))
	text, err := s.provider.CompleteWithSystem(ctx, s.model, profile.Prompts.System, prompt)
	if err != nil {
		return "", fmt.Errorf("generate vote for %s: %w", agentID, err)
	}
	return text, nil
}

// Forget drops the agent's memory, usually after settlement.
func (s *Service) Forget(agentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.memories, agentID)
}

// snapshot copies the memory under lock so the slow provider call runs
// without holding it.
func (s *Service) snapshot(ctx context.Context, agentID string) (*game.AgentProfile, memory, error) {
	profile, err := s.agents.LoadAgent(ctx, agentID)
	if err != nil {
		return nil, memory{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	mem := s.memories[agentID]
	if mem == nil {
		return nil, memory{}, fmt.Errorf("agent %s memory not initialized", agentID)
	}
	cp := memory{name: mem.name, word: mem.word, history: append([]string(nil), mem.history...)}
	return profile, cp, nil
}

func fill(tmpl string, mem memory, choices string) string {
	r := strings.NewReplacer(
		"{name}", mem.name,
		"{word}", mem.word,
		"{history}", strings.Join(mem.history, "\n"),
		"{choices}", choices,
	)
	return r.Replace(tmpl)
}
