package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/battle-odds/internal/config"
	"github.com/freeeve/battle-odds/internal/logger"
	"github.com/freeeve/battle-odds/internal/model"
	"github.com/freeeve/battle-odds/internal/odds"
	"github.com/freeeve/battle-odds/internal/repository"
	"github.com/freeeve/battle-odds/internal/repository/postgres"
	"github.com/freeeve/battle-odds/internal/repository/redis"
	"github.com/freeeve/battle-odds/internal/service"
)

func main() {
	var (
		req         odds.Request
		configFile  string
		catalogPath string
		attackOrder string
		defendOrder string
		workers     int
		listN       int
		dryRun      bool
		jsonOut     bool
	)

	flag.StringVar(&req.Attack, "attack", "", "Attacking force (e.g. infantry=3,fighter=2)")
	flag.StringVar(&req.Defend, "defend", "", "Defending force (e.g. infantry=2)")
	flag.StringVar(&req.Territory, "territory", "", "Contested territory name")
	flag.IntVar(&req.Runs, "n", 1000, "Number of battles to simulate")
	flag.IntVar(&req.MaxRounds, "max-rounds", 0, "Rounds before a battle is a draw (0 = unlimited)")
	flag.Int64Var(&req.Seed, "seed", 0, "Base seed (0 = random, never served from cache or archive)")
	flag.StringVar(&attackOrder, "order", "", "Attacker order of losses by type (e.g. fighter,infantry)")
	flag.StringVar(&defendOrder, "defender-order", "", "Defender order of losses by type")
	flag.BoolVar(&req.Attacker.KeepAtLeastOneLand, "keep-land", false, "Attacker keeps at least one ground unit")
	flag.IntVar(&req.Retreat.AfterRound, "retreat-after-round", 0, "Attacker retreats after this round (0 = never)")
	flag.IntVar(&req.Retreat.AfterUnitsLeft, "retreat-units-left", 0, "Attacker retreats at or below this many units (0 = never)")
	flag.BoolVar(&req.Retreat.WhenOnlyAir, "retreat-only-air", false, "Attacker retreats when only air units remain")
	flag.StringVar(&catalogPath, "catalog", "", "Unit catalog YAML (default: built-in)")
	flag.StringVar(&configFile, "config", "", "Config file (json, yaml or toml)")
	flag.IntVar(&workers, "workers", 0, "Concurrency (0 = config value)")
	flag.IntVar(&listN, "list", 0, "List the N most recent archived runs and exit")
	flag.BoolVar(&dryRun, "dry-run", false, "Skip cache and database")
	flag.BoolVar(&jsonOut, "json", false, "Output results as JSON")

	flag.Parse()

	cfg, err := config.Load(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	logger.Init(logger.Options{Level: cfg.LogLevel, Dev: cfg.Dev, LogFile: cfg.LogFile})

	req.Attacker.OrderOfLosses = splitList(attackOrder)
	req.Defender.OrderOfLosses = splitList(defendOrder)
	if workers <= 0 {
		workers = cfg.Workers
	}
	if catalogPath == "" {
		catalogPath = cfg.CatalogPath
	}

	catalog := odds.DefaultCatalog()
	if catalogPath != "" {
		catalog, err = odds.LoadCatalog(catalogPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", catalogPath).Msg("Catalog load failed")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = logger.WithBatchID(ctx, logger.NewBatchID())

	// Handle graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info().Msg("Shutting down...")
		cancel()
	}()

	// Connect to stores (unless dry-run)
	var cache repository.OddsCache
	var runs repository.OddsRunRepository
	if !dryRun {
		db, err := postgres.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Database connection failed")
		}
		defer db.Close()
		runs = postgres.NewOddsRunRepo(db)

		rc, err := redis.NewClient(cfg.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, continuing without cache")
		} else {
			defer rc.Close()
			cache = rc
		}
	}

	svc := service.NewOddsService(catalog, cache, runs, cfg.CacheTTL, workers)

	if listN > 0 {
		recent, err := svc.Recent(ctx, listN)
		if err != nil {
			log.Fatal().Err(err).Msg("List failed")
		}
		if jsonOut {
			printJSON(recent)
		} else {
			printRecent(recent)
		}
		return
	}

	run, stored, err := svc.Calculate(ctx, req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRequest) {
			fmt.Fprintf(os.Stderr, "%v\nknown unit types: %s\n\n", err, knownTypes(catalog))
			flag.Usage()
			os.Exit(2)
		}
		log.Fatal().Err(err).Msg("Calculation failed")
	}

	if jsonOut {
		printJSON(run)
	} else {
		printSummary(run, stored)
	}
}

// splitList splits a comma-separated flag value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// knownTypes lists the catalog's unit types in declaration order.
func knownTypes(c *odds.Catalog) string {
	return strings.Join(c.Names(), ", ")
}

func printSummary(run *model.OddsRun, stored bool) {
	title := run.AttackerSpec + " vs " + run.DefenderSpec
	if run.Territory != "" {
		title += " in " + run.Territory
	}
	fmt.Printf("\n%s (%d battles):\n", title, run.Runs)
	fmt.Printf("  attacker wins:  %6.2f%%\n", run.AttackerWin)
	fmt.Printf("  defender wins:  %6.2f%%\n", run.DefenderWin)
	fmt.Printf("  draws:          %6.2f%%\n", run.Draw)
	fmt.Printf("  conquered:      %6.2f%%\n", run.Conquer)
	fmt.Printf("  avg rounds: %.2f -- avg attackers left: %.2f -- avg defenders left: %.2f\n",
		run.AvgRounds, run.AvgAttackersLeft, run.AvgDefendersLeft)
	if stored {
		fmt.Printf("\nServed from store (run %s, %s)\n", run.ID, run.CreatedAt.Format("2006-01-02 15:04"))
	}
}

func printRecent(runs []model.OddsRun) {
	if len(runs) == 0 {
		fmt.Println("No archived runs.")
		return
	}
	for _, r := range runs {
		fmt.Printf("%s  %-36s  %5d  att %6.2f%%  def %6.2f%%  %s vs %s\n",
			r.CreatedAt.Format("2006-01-02 15:04"), r.ID, r.Runs, r.AttackerWin, r.DefenderWin,
			r.AttackerSpec, r.DefenderSpec)
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}
