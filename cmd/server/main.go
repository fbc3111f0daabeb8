package main

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookmatch/internal/catalog"
	"bookmatch/internal/config"
	"bookmatch/internal/database"
	"bookmatch/internal/events"
	"bookmatch/internal/handlers"
	"bookmatch/internal/logging"
	"bookmatch/internal/recommend"
	"bookmatch/internal/repository"
	"bookmatch/internal/security"
	"bookmatch/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log := logging.WithComponent("server")

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	log.Info().Str("type", cfg.DatabaseType).Msg("Database connection established")

	if err := db.RunMigrations(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	log.Info().Msg("Migrations completed successfully")

	cat, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.CatalogPath).Msg("Failed to load catalog")
	}
	log.Info().Int("books", cat.Len()).Msg("Catalog loaded")

	seed := cfg.RandomSeed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed>>1|1))

	// Initialize repositories
	childRepo := repository.NewChildRepository(db)
	readingRepo := repository.NewReadingRepository(db)
	gameRepo := repository.NewGameRepository(db)
	savedRepo := repository.NewSavedSessionRepository(db)

	broker := events.NewBroker()
	defer broker.Close()

	// Initialize services
	gameCfg := cfg.GameConfig()
	childService := service.NewChildService(childRepo, readingRepo, gameRepo, cat)
	gameService := service.NewGameService(cat, childRepo, gameRepo, broker, gameCfg, rand.New(rand.NewPCG(rng.Uint64(), rng.Uint64())))
	defer gameService.Close()
	scorer := recommend.NewScorer(recommend.DefaultConfig(), rand.New(rand.NewPCG(rng.Uint64(), rng.Uint64())))
	recommendationService := service.NewRecommendationService(childRepo, readingRepo, cat, scorer, gameCfg.AgeTolerance)
	ratingService := service.NewRatingService(childRepo, readingRepo)
	childService.TrackSessions(gameService, ratingService)
	savedService := service.NewSavedSessionService(savedRepo, recommendationService, cfg.SavedSessionLimit)

	emailService, err := service.NewEmailService(context.Background(), cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize email service")
	}

	var limiter *security.RateLimiter
	if cfg.RateLimitRPS > 0 {
		limiter = security.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, 10*time.Minute)
		defer limiter.Stop()
	}

	router := handlers.NewRouter(handlers.Handlers{
		Health:          handlers.NewHealthHandler(db, broker),
		Catalog:         handlers.NewCatalogHandler(cat, gameCfg.AgeTolerance),
		Children:        handlers.NewChildHandler(childService),
		Games:           handlers.NewGameHandler(gameService, childService, broker),
		Recommendations: handlers.NewRecommendationHandler(recommendationService, emailService),
		Ratings:         handlers.NewRatingHandler(ratingService),
		Sessions:        handlers.NewSessionHandler(savedService),
	}, limiter)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Drop games nobody has touched for the idle timeout
	go gameService.RunJanitor(ctx, time.Minute, cfg.Game.IdleTimeout)

	// Start server. WriteTimeout stays unset so event streams are not cut off.
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Server shutting down...")

	// Close streams first so Shutdown does not wait on them
	broker.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
		os.Exit(1)
	}
	log.Info().Msg("Server stopped")
}

// loadCatalog reads the catalog file when one is configured, else the built-in catalog
func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.LoadFile(path)
}
