// Package main runs the season engine REST API and websocket server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ramonehamilton/season-engine/internal/api"
	"github.com/ramonehamilton/season-engine/internal/config"
	"github.com/ramonehamilton/season-engine/internal/events"
	"github.com/ramonehamilton/season-engine/internal/fixtures"
	"github.com/ramonehamilton/season-engine/internal/goldenboot"
	"github.com/ramonehamilton/season-engine/internal/matchday"
	"github.com/ramonehamilton/season-engine/internal/metrics"
	"github.com/ramonehamilton/season-engine/internal/schedule"
	"github.com/ramonehamilton/season-engine/internal/standings"
	"github.com/ramonehamilton/season-engine/internal/stats"
	"github.com/ramonehamilton/season-engine/internal/storage"
	"github.com/ramonehamilton/season-engine/internal/substitution"
	"github.com/ramonehamilton/season-engine/internal/version"
)

var (
	configPath = flag.String("config", "", "Path to config.toml (default: ~/.season-engine/config.toml)")
	port       = flag.Int("port", 0, "API server port (overrides config)")
	dbPath     = flag.String("db-path", "", "Database path (overrides config)")
)

func main() {
	flag.Parse()

	fmt.Println("Season Engine - REST API Server")
	fmt.Println("===============================")
	fmt.Printf("Version: %s\n", version.GetVersion())
	fmt.Println()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	db, err := openDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Printf("Error closing redis client: %v", err)
			}
		}()

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Fatalf("Failed to connect to redis at %s: %v", cfg.Redis.Addr, err)
		}
		fmt.Printf("Redis: %s\n", cfg.Redis.Addr)
	}

	services, err := buildServices(cfg, storage.NewService(db), redisClient)
	if err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	requestTimeout, err := cfg.GetRequestTimeout()
	if err != nil {
		log.Fatalf("Invalid request timeout: %v", err)
	}
	server := api.NewServer(&api.Config{
		Port:           cfg.Server.Port,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimit:      cfg.Server.RateLimit,
		RateBurst:      cfg.Server.RateBurst,
		RequestTimeout: requestTimeout,
	}, services)

	if err := server.Start(); err != nil {
		log.Fatalf("Failed to start API server: %v", err)
	}

	fmt.Println()
	fmt.Printf("API server running at http://localhost:%d\n", cfg.Server.Port)
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	fmt.Println()
	fmt.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	fmt.Println("API server stopped.")
}

// openDatabase opens the configured SQLite database, creating its directory.
func openDatabase(cfg *config.Config) (*storage.DB, error) {
	path := cfg.Database.Path
	if path != storage.MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	fmt.Printf("Database: %s\n", path)

	busyTimeout, err := cfg.GetBusyTimeout()
	if err != nil {
		return nil, fmt.Errorf("invalid busy timeout: %w", err)
	}

	dbConfig := storage.DefaultConfig(path)
	dbConfig.AutoMigrate = cfg.Database.AutoMigrate
	dbConfig.BusyTimeout = busyTimeout
	return storage.Open(dbConfig)
}

// buildServices wires the season components. redisClient is nil when Redis
// is disabled.
func buildServices(cfg *config.Config, store *storage.Service, redisClient *redis.Client) (*api.Services, error) {
	dispatcher := events.NewEventDispatcher()
	if cfg.App.DebugMode {
		dispatcher.Register(events.NewLoggingObserver(true))
	}

	var states substitution.StateStore = store.MatchStates()
	if redisClient != nil {
		if cfg.Redis.MatchState {
			ttl, err := cfg.GetStateTTL()
			if err != nil {
				return nil, fmt.Errorf("invalid state ttl: %w", err)
			}
			states = substitution.NewRedisStore(redisClient, cfg.Redis.KeyPrefix, ttl)
			log.Printf("[Substitution] Live match states kept in redis under %q", cfg.Redis.KeyPrefix)
		}
		if cfg.Redis.StreamPrefix != "" {
			dispatcher.Register(events.NewStreamObserver(redisClient, cfg.Redis.StreamPrefix, cfg.Redis.StreamMaxLen))
			log.Printf("[Events] Publishing domain events to redis streams under %q", cfg.Redis.StreamPrefix)
		}
	}

	rng := fixtures.DefaultRand()
	if cfg.Season.Seed != 0 {
		rng = fixtures.NewRand(cfg.Season.Seed)
	}

	seasonStart, err := cfg.GetSeasonStart()
	if err != nil {
		return nil, fmt.Errorf("invalid season start: %w", err)
	}
	interval, err := cfg.GetMatchdayInterval()
	if err != nil {
		return nil, fmt.Errorf("invalid matchday interval: %w", err)
	}

	projector := stats.NewProjector(store, stats.Options{TallyYellowCards: cfg.Stats.TallyYellowCards}, dispatcher)
	aggregator := standings.NewAggregator(store)

	return &api.Services{
		Store:      store,
		Engine:     substitution.NewEngine(states, store, store, substitution.WithRand(rng), substitution.WithDispatcher(dispatcher)),
		Projector:  projector,
		Standings:  aggregator,
		Ranker:     goldenboot.NewRanker(store),
		Finalizer:  matchday.NewFinalizer(aggregator, projector, matchday.Options{ProjectOnFinalize: cfg.Stats.ProjectOnFinalize}, dispatcher),
		Scheduler:  schedule.NewScheduler(store, rng, schedule.Calendar{SeasonStart: seasonStart, Interval: interval}, dispatcher),
		Dispatcher: dispatcher,
		Metrics:    metrics.NewCollector(),
	}, nil
}
