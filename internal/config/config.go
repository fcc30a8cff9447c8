package config

import (
	"os"
	"strconv"
	"time"

	"github.com/deceit-arena/backend/internal/game"
)

type Config struct {
	Port          string
	Store         string
	DatabaseURL   string
	RedisAddr     string
	OpenAIKey     string
	OpenAIBaseURL string
	DefaultModel  string

	PlayersPerRoom    int
	MinPlayersToStart int
	ScoreRange        float64
	SpyRatio          float64
	MatchInterval     time.Duration
	MatchMaxWait      time.Duration
	MatchGuardTimeout time.Duration
}

func FromEnv() Config {
	def := game.DefaultConfig()
	c := Config{}
	c.Port = getenv("PORT", "8080")
	c.Store = getenv("STORE", "memory")
	c.DatabaseURL = os.Getenv("DATABASE_URL")
	c.RedisAddr = os.Getenv("REDIS_ADDR")
	c.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	c.OpenAIBaseURL = os.Getenv("OPENAI_BASE_URL")
	c.DefaultModel = getenv("DEFAULT_MODEL", "gpt-4o-mini")
	c.PlayersPerRoom = getint("PLAYERS_PER_ROOM", def.PlayersPerRoom)
	c.MinPlayersToStart = getint("MIN_PLAYERS_TO_START", def.MinPlayersToStart)
	c.ScoreRange = getfloat("SCORE_RANGE", def.ScoreRange)
	c.SpyRatio = getfloat("SPY_RATIO", def.SpyRatio)
	c.MatchInterval = getdur("MATCH_INTERVAL", def.MatchInterval)
	c.MatchMaxWait = getdur("MATCH_MAX_WAIT", def.MaxWait)
	c.MatchGuardTimeout = getdur("MATCH_GUARD_TIMEOUT", def.GuardTimeout)
	return c
}

// Game maps the env tunables onto the core's config.
func (c Config) Game() game.Config {
	return game.Config{
		PlayersPerRoom:    c.PlayersPerRoom,
		MinPlayersToStart: c.MinPlayersToStart,
		ScoreRange:        c.ScoreRange,
		SpyRatio:          c.SpyRatio,
		MatchInterval:     c.MatchInterval,
		MaxWait:           c.MatchMaxWait,
		GuardTimeout:      c.MatchGuardTimeout,
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
