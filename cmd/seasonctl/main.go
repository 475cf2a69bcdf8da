// Package main provides seasonctl, the season engine admin tool.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ramonehamilton/season-engine/internal/config"
	"github.com/ramonehamilton/season-engine/internal/storage"
)

var configPath = flag.String("config", "", "Path to config.toml (default: ~/.season-engine/config.toml)")

func main() {
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	switch args[0] {
	case "migrate":
		runMigrationCommand(cfg, args[1:])
	case "standings":
		withService(cfg, func(ctx context.Context, svc *storage.Service) {
			runStandingsCommand(ctx, svc, args[1:])
		})
	case "scorers":
		withService(cfg, func(ctx context.Context, svc *storage.Service) {
			runScorersCommand(ctx, svc, args[1:])
		})
	case "project":
		withService(cfg, func(ctx context.Context, svc *storage.Service) {
			runProjectCommand(ctx, svc, cfg, args[1:])
		})
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

// withService opens the configured database and hands a storage service to fn.
func withService(cfg *config.Config, fn func(ctx context.Context, svc *storage.Service)) {
	busyTimeout, err := cfg.GetBusyTimeout()
	if err != nil {
		log.Fatalf("Invalid busy timeout: %v", err)
	}

	dbConfig := storage.DefaultConfig(cfg.Database.Path)
	dbConfig.AutoMigrate = cfg.Database.AutoMigrate
	dbConfig.BusyTimeout = busyTimeout

	db, err := storage.Open(dbConfig)
	if err != nil {
		log.Fatalf("Error opening database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	fn(context.Background(), storage.NewService(db))
}

func runMigrationCommand(cfg *config.Config, args []string) {
	if len(args) < 1 {
		printMigrationUsage()
		os.Exit(1)
	}

	dbPath := cfg.Database.Path
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		log.Fatalf("Error creating database directory: %v", err)
	}

	mgr, err := storage.NewMigrationManager(dbPath)
	if err != nil {
		log.Fatalf("Error creating migration manager: %v", err)
	}
	defer func() {
		if err := mgr.Close(); err != nil {
			log.Printf("Error closing migration manager: %v", err)
		}
	}()

	switch args[0] {
	case "up":
		fmt.Println("Applying all pending migrations...")
		if err := mgr.Up(); err != nil {
			log.Fatalf("Error applying migrations: %v", err)
		}
		printVersion(mgr)
		fmt.Println("All migrations applied successfully!")

	case "down":
		fmt.Println("Rolling back all migrations...")
		if err := mgr.Down(); err != nil {
			log.Fatalf("Error rolling back migrations: %v", err)
		}
		printVersion(mgr)
		fmt.Println("Migrations rolled back successfully!")

	case "status", "version":
		printVersion(mgr)

	case "steps":
		n := intArg(args, "steps")
		fmt.Printf("Migrating %d steps...\n", n)
		if err := mgr.Steps(n); err != nil {
			log.Fatalf("Error migrating: %v", err)
		}
		printVersion(mgr)

	case "force":
		version := intArg(args, "force")
		fmt.Printf("Forcing migration version to %d...\n", version)
		fmt.Println("WARNING: This does not run migrations, only sets the version.")
		if err := mgr.Force(version); err != nil {
			log.Fatalf("Error forcing version: %v", err)
		}
		fmt.Println("Version forced successfully!")

	default:
		fmt.Printf("Unknown migration command: %s\n\n", args[0])
		printMigrationUsage()
		os.Exit(1)
	}
}

// intArg parses the number following a migrate subcommand.
func intArg(args []string, command string) int {
	if len(args) < 2 {
		fmt.Printf("Error: %s command requires a number\n", command)
		fmt.Printf("Usage: seasonctl migrate %s <n>\n", command)
		os.Exit(1)
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		log.Fatalf("Invalid number %q: %v", args[1], err)
	}
	return n
}

func printVersion(mgr *storage.MigrationManager) {
	status, err := mgr.Status()
	if err != nil {
		log.Fatalf("Error getting version: %v", err)
	}
	fmt.Printf("Schema: %s\n", status)
	if status.Dirty {
		fmt.Println("Use 'seasonctl migrate force <version>' to recover")
	}
}

func printUsage() {
	fmt.Println("seasonctl - Season Engine admin tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  seasonctl [-config path] <command> [flags]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  migrate up|down|version|steps|force             Manage the database schema")
	fmt.Println("  standings -save ID [-season N] [-scope S]       Print the league table")
	fmt.Println("  scorers -save ID [-season N] [-scope S] [-limit N]")
	fmt.Println("                                                  Print the golden boot ranking")
	fmt.Println("  project -save ID                                Rebuild player match stats")
	fmt.Println()
	fmt.Println("Scopes: all, league, cup")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Printf("  %-18s Override the database path\n", config.EnvDBPath)
}

func printMigrationUsage() {
	fmt.Println("Usage:")
	fmt.Println("  seasonctl migrate <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  up                Apply all pending migrations")
	fmt.Println("  down              Roll back every migration")
	fmt.Println("  status, version   Show current migration version")
	fmt.Println("  steps <n>         Apply n migrations, or roll back -n")
	fmt.Println("  force <version>   Force set migration version (use with caution)")
}
