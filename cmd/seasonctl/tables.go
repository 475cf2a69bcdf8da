package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/ramonehamilton/season-engine/internal/config"
	"github.com/ramonehamilton/season-engine/internal/goldenboot"
	"github.com/ramonehamilton/season-engine/internal/standings"
	"github.com/ramonehamilton/season-engine/internal/stats"
	"github.com/ramonehamilton/season-engine/internal/storage"
	"github.com/ramonehamilton/season-engine/internal/storage/models"
)

// queryFlags are the flags shared by the table commands.
type queryFlags struct {
	save   *string
	season *int
	scope  *string
}

func newQueryFlags(fs *flag.FlagSet) queryFlags {
	return queryFlags{
		save:   fs.String("save", "", "Save ID (required)"),
		season: fs.Int("season", 0, "Season number (0 = every season)"),
		scope:  fs.String("scope", "all", "Matchday scope: all, league or cup"),
	}
}

func (q queryFlags) parse(fs *flag.FlagSet, args []string) (string, *int, models.Scope) {
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if *q.save == "" {
		fmt.Println("Error: -save is required")
		fs.Usage()
		os.Exit(1)
	}
	scope, ok := models.ParseScope(*q.scope)
	if !ok {
		log.Fatalf("Unknown scope %q (want all, league or cup)", *q.scope)
	}
	var season *int
	if *q.season > 0 {
		season = q.season
	}
	return *q.save, season, scope
}

func runStandingsCommand(ctx context.Context, svc *storage.Service, args []string) {
	fs := flag.NewFlagSet("standings", flag.ExitOnError)
	q := newQueryFlags(fs)
	division := fs.String("division", "", "Restrict to one division")
	saveID, season, scope := q.parse(fs, args)

	filter := standings.Filter{Season: season, Scope: scope}
	if *division != "" {
		filter.Division = division
	}

	rows, err := standings.NewAggregator(svc).ComputeStandingsFiltered(ctx, saveID, filter)
	if err != nil {
		log.Fatalf("Error computing standings: %v", err)
	}
	if len(rows) == 0 {
		fmt.Println("No played matchdays.")
		return
	}

	fmt.Println("Standings")
	fmt.Println("---------")
	fmt.Printf("%3s  %-24s %3s %3s %3s %3s %4s %4s %4s %4s\n", "#", "Team", "P", "W", "D", "L", "GF", "GA", "GD", "Pts")
	for _, r := range rows {
		fmt.Printf("%3d  %-24s %3d %3d %3d %3d %4d %4d %+4d %4d\n",
			r.Position, truncate(r.TeamName, 24), r.Played, r.Won, r.Drawn, r.Lost,
			r.GoalsFor, r.GoalsAgainst, r.GoalDifference, r.Points)
	}
}

func runScorersCommand(ctx context.Context, svc *storage.Service, args []string) {
	fs := flag.NewFlagSet("scorers", flag.ExitOnError)
	q := newQueryFlags(fs)
	limit := fs.Int("limit", goldenboot.DefaultLimit, "Number of scorers to show")
	saveID, season, scope := q.parse(fs, args)

	ranker := goldenboot.NewRanker(svc)
	var (
		board *goldenboot.Leaderboard
		err   error
	)
	if season == nil {
		board, err = ranker.HistoricalTopScorers(ctx, saveID, scope, *limit)
	} else {
		board, err = ranker.TopScorers(ctx, saveID, season, scope, *limit)
	}
	if err != nil {
		log.Fatalf("Error ranking scorers: %v", err)
	}
	if len(board.Scorers) == 0 {
		fmt.Println("No goals recorded.")
		return
	}

	fmt.Printf("Golden Boot (%s, source: %s)\n", board.Scope, board.Source)
	fmt.Println(strings.Repeat("-", 40))
	for _, s := range board.Scorers {
		fmt.Printf("%3d  %-22s %-20s %3s %3d\n",
			s.Rank, truncate(s.PlayerName, 22), truncate(s.TeamName, 20), s.Position, s.Goals)
	}
}

func runProjectCommand(ctx context.Context, svc *storage.Service, cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("project", flag.ExitOnError)
	save := fs.String("save", "", "Save ID (required)")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if *save == "" {
		fmt.Println("Error: -save is required")
		fs.Usage()
		os.Exit(1)
	}

	projector := stats.NewProjector(svc, stats.Options{TallyYellowCards: cfg.Stats.TallyYellowCards}, nil)
	n, err := projector.ProjectSave(ctx, *save)
	if err != nil {
		log.Fatalf("Error projecting stats: %v", err)
	}
	fmt.Printf("Projected player stats for %d matches.\n", n)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
