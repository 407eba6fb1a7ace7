package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/battle-odds/internal/config"
	"github.com/freeeve/battle-odds/internal/handler"
	"github.com/freeeve/battle-odds/internal/logger"
	"github.com/freeeve/battle-odds/internal/middleware"
	"github.com/freeeve/battle-odds/internal/odds"
	"github.com/freeeve/battle-odds/internal/repository/postgres"
	redisrepo "github.com/freeeve/battle-odds/internal/repository/redis"
	"github.com/freeeve/battle-odds/internal/service"
)

func main() {
	configFile := flag.String("config", "", "Config file (json, yaml or toml)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	logger.Init(logger.Options{Level: cfg.LogLevel, Dev: cfg.Dev, LogFile: cfg.LogFile})
	log.Info().Str("port", cfg.Port).Int("workers", cfg.Workers).Msg("Config loaded")

	catalog := odds.DefaultCatalog()
	if cfg.CatalogPath != "" {
		catalog, err = odds.LoadCatalog(cfg.CatalogPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.CatalogPath).Msg("Catalog load failed")
		}
	}

	// Database
	db, err := postgres.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Database connection failed")
	}
	defer db.Close()

	// Redis
	redisClient, err := redisrepo.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Redis connection failed")
	}
	defer redisClient.Close()

	// Services
	oddsSvc := service.NewOddsService(catalog, redisClient, postgres.NewOddsRunRepo(db), cfg.CacheTTL, cfg.Workers)

	// Handlers
	oddsHandler := handler.NewOddsHandler(oddsSvc, cfg.MaxRuns)

	// Router
	mux := http.NewServeMux()

	// Health
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	})

	mux.HandleFunc("POST /api/v1/odds", oddsHandler.Calculate)
	mux.HandleFunc("GET /api/v1/odds/recent", oddsHandler.Recent)
	mux.HandleFunc("GET /api/v1/odds/ws", oddsHandler.Stream)

	// Apply global middleware
	root := middleware.Chain(mux, middleware.Logger, middleware.CORS(cfg.CORSOrigin), middleware.JSON)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server shutdown error")
	}
	log.Info().Msg("Server stopped")
}
