package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"bidhouse-auction-service/internal/adapters/broadcaster"
	"bidhouse-auction-service/internal/adapters/db"
	"bidhouse-auction-service/internal/adapters/redis"
	"bidhouse-auction-service/internal/adapters/rest"
	"bidhouse-auction-service/internal/adapters/sweeper"
	"bidhouse-auction-service/internal/adapters/ws"
	"bidhouse-auction-service/internal/app"
	"bidhouse-auction-service/internal/config"
	"bidhouse-auction-service/internal/domain/auction"
	"bidhouse-auction-service/internal/ports/outbound"
)

func main() {

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	initLogging(cfg)

	log.Info().Msg("Starting Bidhouse Auction Service...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection
	dbConn, err := db.NewConnection(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbConn.Close()

	if err := db.InitSchema(ctx, dbConn); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database schema")
	}

	log.Info().Msg("Database connection established")

	// Create repositories
	repoFactory := db.NewRepositoryFactory(dbConn)
	auctionRepo := repoFactory.GetAuctionRepository()
	bidRepo := repoFactory.GetBidRepository()

	// Create Redis client
	redisClient := redis.NewClient(cfg)
	if err := redis.PingRedis(redisClient); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	log.Info().Msg("Redis connection established")

	// Create Redis broadcaster
	redisBroadcaster := broadcaster.NewBroadcaster(broadcaster.RedisBroadcasterParams{
		RedisClient: redisClient,
		Logger:      log.Logger,
	})

	clock := outbound.SystemClock{}

	// Create business services
	auctionService := app.NewAuctionService(app.AuctionServiceParams{
		AuctionRepo: auctionRepo,
		BidRepo:     bidRepo,
		Broadcaster: redisBroadcaster,
		Clock:       clock,
		Logger:      log.Logger,
	})
	bidService := app.NewBidService(app.BidServiceParams{
		AuctionRepo: auctionRepo,
		BidRepo:     bidRepo,
		Broadcaster: redisBroadcaster,
		Clock:       clock,
		Rules: auction.BidRules{
			SnipeWindow:    cfg.Bidding.SnipeWindow,
			SnipeExtension: cfg.Bidding.SnipeExtension,
		},
		MaxRetries:   cfg.Bidding.MaxRetries,
		StoreTimeout: cfg.Bidding.StoreTimeout,
		Logger:       log.Logger,
	})

	log.Info().Msg("Business services initialized")

	// Start lifecycle sweeper
	lifecycleSweeper := sweeper.NewSweeper(sweeper.SweeperParams{
		Service:  auctionService,
		Interval: cfg.Sweeper.Interval,
		Logger:   log.Logger,
	})
	lifecycleSweeper.Start()
	log.Info().Msg("Lifecycle sweeper started")

	// REST API server
	restServer := rest.NewServer(rest.ServerParams{
		Config:         cfg,
		AuctionService: auctionService,
		BidService:     bidService,
		Identity:       rest.NewHeaderIdentity(),
		Logger:         log.Logger,
	})

	// WebSocket server
	wsServer := ws.NewServer(ws.ServerParams{
		Config:         cfg,
		AuctionService: auctionService,
		BidService:     bidService,
		Broadcaster:    redisBroadcaster,
		Identity:       ws.NewQueryIdentity(),
		Logger:         log.Logger,
	})

	go func() {
		if err := restServer.Start(); err != nil {
			log.Error().Err(err).Msg("Failed to start REST API server")
			cancel()
		}
	}()

	go func() {
		if err := wsServer.Start(); err != nil {
			log.Error().Err(err).Msg("Failed to start WebSocket server")
			cancel()
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case <-ctx.Done():
		log.Info().Msg("Context cancelled")
	}

	// Graceful shutdown
	log.Info().Msg("Starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	lifecycleSweeper.Stop()
	log.Info().Msg("Lifecycle sweeper stopped")

	if err := restServer.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping REST API server")
	}

	if err := wsServer.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping WebSocket server")
	}

	log.Info().Msg("Graceful shutdown completed")
}

func initLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Logging.Format == "json" {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	} else {
		// Console format for development
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		log.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	zerolog.DefaultContextLogger = &log.Logger
}
