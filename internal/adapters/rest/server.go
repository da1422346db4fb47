package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"bidhouse-auction-service/internal/config"
	"bidhouse-auction-service/internal/ports/inbound"
	"bidhouse-auction-service/internal/ports/outbound"

	"github.com/rs/zerolog"
)

type Server struct {
	httpServer *http.Server
	config     *config.Config
	logger     zerolog.Logger
}

type ServerParams struct {
	Config         *config.Config
	AuctionService inbound.AuctionService
	BidService     inbound.BidService
	Identity       outbound.Identity
	Logger         zerolog.Logger
}

func NewServer(params ServerParams) *Server {
	handler := NewHandler(HandlerParams{
		AuctionService: params.AuctionService,
		BidService:     params.BidService,
		Identity:       params.Identity,
		Logger:         params.Logger,
	})

	router := NewRouter(handler, params.Logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%s", params.Config.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		config:     params.Config,
		logger:     params.Logger,
	}
}

// Start starts the REST API server
func (s *Server) Start() error {
	s.logger.Info().Str("port", s.config.Server.Port).Msg("Starting REST API server")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start REST API server: %w", err)
	}

	return nil
}

// Stop gracefully stops the REST API server
func (s *Server) Stop(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown REST API server: %w", err)
	}

	s.logger.Info().Msg("REST API server stopped")
	return nil
}
