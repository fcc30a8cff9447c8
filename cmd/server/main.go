package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	zerologlog "github.com/rs/zerolog/log"

	agentsvc "github.com/deceit-arena/backend/internal/agent"
	"github.com/deceit-arena/backend/internal/ai/openai"
	"github.com/deceit-arena/backend/internal/config"
	"github.com/deceit-arena/backend/internal/game"
	"github.com/deceit-arena/backend/internal/server"
	"github.com/deceit-arena/backend/internal/store/memory"
	"github.com/deceit-arena/backend/internal/store/postgres"
	redisstore "github.com/deceit-arena/backend/internal/store/redis"
)

const version = "v1.0.0"

func main() {
	var (
		showHelp    = flag.Bool("help", false, "Show help message")
		showVersion = flag.Bool("version", false, "Show version information")
		portFlag    = flag.String("port", "", "Port to listen on (overrides PORT env var)")
	)
	flag.BoolVar(showHelp, "h", false, "Show help message (shorthand)")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	flag.Parse()

	if *showHelp {
		fmt.Printf(`Deceit Arena - agent social-deduction game backend

Usage: %s [options]

Options:
  -h, --help      Show this help message
  -v, --version   Show version information
  --port PORT     Port to listen on (default: 8080 or PORT env var)

Environment Variables:
  PORT                  Port to listen on (default: 8080)
  STORE                 Persistence backend: "memory" or "postgres" (default: memory)
  DATABASE_URL          Postgres connection string (required for STORE=postgres)
  REDIS_ADDR            Move the matching queue to Redis (optional)
  OPENAI_API_KEY        API key for the agent reasoning endpoint
  OPENAI_BASE_URL       Custom OpenAI-compatible base URL (optional)
  DEFAULT_MODEL         Model for agent reasoning (default: gpt-4o-mini)
  PLAYERS_PER_ROOM      Room capacity (default: 6)
  MIN_PLAYERS_TO_START  Minimum group size (default: 3)
  SCORE_RANGE           Match score window (default: 50)
  SPY_RATIO             Spy share of a room (default: 0.333)
  MATCH_INTERVAL        Scheduler tick interval (default: 5s)
  MATCH_MAX_WAIT        Wait deadline before synthetic backfill (default: 10s)
  MATCH_GUARD_TIMEOUT   Staleness timeout for the tick guard (default: 30s)
`, os.Args[0])
		return
	}

	if *showVersion {
		fmt.Printf("deceit-arena %s\n", version)
		return
	}

	_ = godotenv.Load()

	// zerolog setup (human-friendly console)
	zerolog.TimeFieldFormat = time.RFC3339
	cw := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	zerologlog.Logger = zerologlog.Output(cw)
	log := zerologlog.Logger

	cfg := config.FromEnv()
	if *portFlag != "" {
		cfg.Port = *portFlag
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// persistence gateway
	var store game.Store
	switch cfg.Store {
	case "postgres":
		pg, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("postgres store")
		}
		defer pg.Close()
		store = pg
	default:
		store = memory.New()
	}

	matchStore := game.MatchStore(store)
	if cfg.RedisAddr != "" {
		rs, err := redisstore.NewMatchStore(ctx, cfg.RedisAddr)
		if err != nil {
			log.Fatal().Err(err).Msg("redis match store")
		}
		defer rs.Close()
		matchStore = rs
	}

	// core wiring
	gameCfg := cfg.Game()
	tracker := game.NewTracker()
	queue := game.NewQueue(matchStore)
	reporter := game.NewReporter(store, tracker, log)
	rooms := game.NewRooms(store, reporter, log)
	svc := game.NewService(gameCfg, composite{store, store, matchStore}, tracker, queue, rooms, log)
	backfill := game.NewStoreBackfill(store, tracker)
	sched := game.NewScheduler(gameCfg, queue, tracker, svc, backfill, log)
	go sched.Run(ctx)

	// agent reasoning
	provider := openai.New(cfg.OpenAIKey, cfg.OpenAIBaseURL)
	agents := agentsvc.New(store, provider, cfg.DefaultModel, log)

	// gin setup with request logging
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/health") {
			return
		}
		log.Info().
			Str("path", path).
			Int("status", c.Writer.Status()).
			Dur("dur", time.Since(start)).
			Msg("http")
	})

	server.New(svc, store, agents, log).Register(r)

	log.Info().Str("port", cfg.Port).Str("store", cfg.Store).Msg("listening")
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

// composite keeps agent/room persistence on the primary store while the
// matching queue may live somewhere else (Redis).
type composite struct {
	game.AgentStore
	game.RoomStore
	game.MatchStore
}
