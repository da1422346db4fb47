package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"bidhouse-auction-service/internal/domain/auction"
	"bidhouse-auction-service/internal/domain/shared"
	"bidhouse-auction-service/internal/ports/inbound"
	"bidhouse-auction-service/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AuctionService implements auction creation, retrieval and the
// lifecycle sweep that closes expired auctions.
type AuctionService struct {
	auctionRepo outbound.AuctionRepository
	bidRepo     outbound.BidRepository
	broadcaster outbound.Broadcaster
	clock       outbound.Clock
	logger      zerolog.Logger
}

type AuctionServiceParams struct {
	AuctionRepo outbound.AuctionRepository
	BidRepo     outbound.BidRepository
	Broadcaster outbound.Broadcaster
	Clock       outbound.Clock
	Logger      zerolog.Logger
}

// NewAuctionService creates a new auction service
func NewAuctionService(params AuctionServiceParams) *AuctionService {
	if params.Clock == nil {
		params.Clock = outbound.SystemClock{}
	}
	return &AuctionService{
		auctionRepo: params.AuctionRepo,
		bidRepo:     params.BidRepo,
		broadcaster: params.Broadcaster,
		clock:       params.Clock,
		logger:      params.Logger.With().Str("component", "auction_service").Logger(),
	}
}

// CreateAuction creates a new active auction ending DurationMinutes from now
func (s *AuctionService) CreateAuction(ctx context.Context, req inbound.CreateAuctionRequest) (*auction.Auction, error) {
	s.logger.Info().
		Str("seller_id", req.SellerID.String()).
		Str("title", req.Title).
		Int64("starting_price", req.StartingPrice).
		Int("duration_minutes", req.DurationMinutes).
		Msg("Attempting to create auction")

	if strings.TrimSpace(req.Title) == "" {
		return nil, shared.ErrInvalidTitle
	}
	if req.StartingPrice <= 0 {
		return nil, shared.ErrInvalidStartingPrice
	}
	if req.DurationMinutes <= 0 {
		return nil, shared.ErrInvalidDuration
	}

	now := s.clock.Now()
	newAuction := &auction.Auction{
		ID:            uuid.New(),
		SellerID:      req.SellerID,
		Title:         req.Title,
		Description:   req.Description,
		ImageURL:      req.ImageURL,
		StartingPrice: req.StartingPrice,
		CurrentPrice:  req.StartingPrice,
		EndTime:       now.Add(time.Duration(req.DurationMinutes) * time.Minute),
		Status:        auction.StatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.auctionRepo.Create(ctx, newAuction); err != nil {
		s.logger.Error().Err(err).Str("auction_id", newAuction.ID.String()).Msg("Failed to save auction")
		return nil, err
	}

	s.logger.Info().
		Str("auction_id", newAuction.ID.String()).
		Time("end_time", newAuction.EndTime).
		Msg("Auction created successfully")
	return newAuction, nil
}

// GetAuction retrieves an auction by ID
func (s *AuctionService) GetAuction(ctx context.Context, auctionID uuid.UUID) (*auction.Auction, error) {
	found, err := s.auctionRepo.GetByID(ctx, auctionID)
	if err != nil {
		if !errors.Is(err, shared.ErrAuctionNotFound) {
			s.logger.Error().Err(err).Str("auction_id", auctionID.String()).Msg("Failed to retrieve auction")
		}
		return nil, err
	}
	return found, nil
}

// ListAuctions retrieves a page of auctions, newest first
func (s *AuctionService) ListAuctions(ctx context.Context, req inbound.ListAuctionsRequest) ([]*auction.Auction, error) {
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 10
	}

	return s.auctionRepo.List(ctx, req.Status, req.Page, req.PageSize)
}

// SweepExpired closes every active auction whose end time has passed and
// broadcasts an end event per closed auction. The store-side transition
// is set-based and idempotent: a second sweep with no new expiries
// transitions zero rows.
func (s *AuctionService) SweepExpired(ctx context.Context) (int, error) {
	now := s.clock.Now()

	endedIDs, err := s.auctionRepo.SweepExpired(ctx, now)
	if err != nil {
		s.logger.Error().Err(err).Msg("Sweep failed")
		return 0, err
	}

	for _, auctionID := range endedIDs {
		s.publishAuctionEnded(ctx, auctionID, now)
	}

	if len(endedIDs) > 0 {
		s.logger.Info().Int("count", len(endedIDs)).Msg("Expired auctions transitioned to ended")
	}
	return len(endedIDs), nil
}

// publishAuctionEnded broadcasts the end of one auction, including the
// winner when there were bids. Failures are logged only: the lifecycle
// transition is already committed.
func (s *AuctionService) publishAuctionEnded(ctx context.Context, auctionID uuid.UUID, now time.Time) {
	if s.broadcaster == nil {
		return
	}

	eventData := map[string]interface{}{
		"auction_id": auctionID.String(),
		"status":     string(auction.StatusEnded),
	}

	highestBid, err := s.bidRepo.GetHighestBid(ctx, auctionID)
	if err != nil && !errors.Is(err, shared.ErrNoBidsFound) {
		s.logger.Error().Err(err).Str("auction_id", auctionID.String()).Msg("Failed to look up winning bid")
	}
	if highestBid != nil {
		eventData["winner_id"] = highestBid.UserID.String()
		eventData["final_price"] = highestBid.Amount
	}

	event := outbound.Event{
		Type:      outbound.EventTypeAuctionEnded,
		AuctionID: auctionID,
		Data:      eventData,
		Timestamp: now.Unix(),
	}

	if err := s.broadcaster.Publish(ctx, auctionID, event); err != nil {
		s.logger.Error().Err(err).Str("auction_id", auctionID.String()).Msg("Failed to broadcast auction end event")
	}
}
