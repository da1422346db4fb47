package app

import (
	"context"
	"errors"
	"time"

	"bidhouse-auction-service/internal/domain/auction"
	"bidhouse-auction-service/internal/domain/bid"
	"bidhouse-auction-service/internal/domain/shared"
	"bidhouse-auction-service/internal/ports/inbound"
	"bidhouse-auction-service/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// BidService implements the bid acceptance pipeline: fetch a snapshot,
// evaluate the bid against it, apply the outcome with a CAS-guarded
// write, and notify subscribers. Concurrent bids on the same auction are
// serialized by the store's compare-and-swap; a conflicting write is
// retried against a fresh snapshot up to maxRetries times.
type BidService struct {
	auctionRepo  outbound.AuctionRepository
	bidRepo      outbound.BidRepository
	broadcaster  outbound.Broadcaster
	clock        outbound.Clock
	rules        auction.BidRules
	maxRetries   int
	storeTimeout time.Duration
	logger       zerolog.Logger
}

type BidServiceParams struct {
	AuctionRepo  outbound.AuctionRepository
	BidRepo      outbound.BidRepository
	Broadcaster  outbound.Broadcaster
	Clock        outbound.Clock
	Rules        auction.BidRules
	MaxRetries   int
	StoreTimeout time.Duration
	Logger       zerolog.Logger
}

// NewBidService creates a new bid service
func NewBidService(params BidServiceParams) *BidService {
	if params.Clock == nil {
		params.Clock = outbound.SystemClock{}
	}
	if params.MaxRetries <= 0 {
		params.MaxRetries = 3
	}
	if params.StoreTimeout <= 0 {
		params.StoreTimeout = 5 * time.Second
	}
	return &BidService{
		auctionRepo:  params.AuctionRepo,
		bidRepo:      params.BidRepo,
		broadcaster:  params.Broadcaster,
		clock:        params.Clock,
		rules:        params.Rules,
		maxRetries:   params.MaxRetries,
		storeTimeout: params.StoreTimeout,
		logger:       params.Logger.With().Str("component", "bid_service").Logger(),
	}
}

// PlaceBid runs the acceptance pipeline for one bid request. A committed
// bid is permanent regardless of what happens to the caller afterwards.
func (s *BidService) PlaceBid(ctx context.Context, req inbound.PlaceBidRequest) (*bid.Bid, error) {
	s.logger.Info().
		Str("auction_id", req.AuctionID.String()).
		Str("user_id", req.UserID.String()).
		Int64("amount", req.Amount).
		Msg("Attempting to place bid")

	for attempt := 0; attempt < s.maxRetries; attempt++ {
		snapshot, err := s.getSnapshot(ctx, req.AuctionID)
		if err != nil {
			return nil, err
		}

		now := s.clock.Now()
		outcome, err := auction.Evaluate(snapshot, req.Amount, now, s.rules)
		if err != nil {
			s.logger.Warn().
				Err(err).
				Str("auction_id", req.AuctionID.String()).
				Int64("amount", req.Amount).
				Int64("current_price", snapshot.CurrentPrice).
				Msg("Bid rejected")
			return nil, err
		}

		newBid := bid.New(req.AuctionID, req.UserID, req.Amount, now)

		err = s.applyBid(ctx, snapshot, outcome, newBid)
		if errors.Is(err, shared.ErrWriteConflict) {
			s.logger.Debug().
				Str("auction_id", req.AuctionID.String()).
				Int("attempt", attempt+1).
				Msg("Write conflict, re-reading auction snapshot")
			continue
		}
		if err != nil {
			s.logger.Error().Err(err).Str("bid_id", newBid.ID.String()).Msg("Failed to apply bid")
			return nil, err
		}

		s.publishBidPlaced(ctx, newBid, outcome)

		s.logger.Info().
			Str("bid_id", newBid.ID.String()).
			Str("auction_id", newBid.AuctionID.String()).
			Int64("amount", newBid.Amount).
			Bool("end_time_extended", outcome.Extended).
			Msg("Bid placed successfully")
		return newBid, nil
	}

	s.logger.Warn().
		Str("auction_id", req.AuctionID.String()).
		Int("attempts", s.maxRetries).
		Msg("Bid retries exhausted by concurrent writes")
	return nil, shared.ErrWriteConflict
}

func (s *BidService) getSnapshot(ctx context.Context, auctionID uuid.UUID) (*auction.Auction, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	snapshot, err := s.auctionRepo.GetByID(ctx, auctionID)
	if err != nil {
		if !errors.Is(err, shared.ErrAuctionNotFound) {
			s.logger.Error().Err(err).Str("auction_id", auctionID.String()).Msg("Failed to fetch auction snapshot")
		}
		return nil, err
	}
	return snapshot, nil
}

func (s *BidService) applyBid(ctx context.Context, snapshot *auction.Auction, outcome auction.Outcome, newBid *bid.Bid) error {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	return s.auctionRepo.ApplyBid(ctx, snapshot.ID, snapshot.CurrentPrice, outcome.NewPrice, outcome.NewEndTime, newBid)
}

// publishBidPlaced notifies subscribers of the accepted bid. Delivery
// failure never fails the pipeline: the bid is already committed.
func (s *BidService) publishBidPlaced(ctx context.Context, newBid *bid.Bid, outcome auction.Outcome) {
	if s.broadcaster == nil {
		return
	}

	event := outbound.Event{
		Type:      outbound.EventTypeBidPlaced,
		AuctionID: newBid.AuctionID,
		Data: map[string]interface{}{
			"bid_id":        newBid.ID,
			"user_id":       newBid.UserID,
			"amount":        newBid.Amount,
			"current_price": outcome.NewPrice,
			"end_time":      outcome.NewEndTime,
			"extended":      outcome.Extended,
		},
		Timestamp: newBid.CreatedAt.Unix(),
	}

	if err := s.broadcaster.Publish(ctx, newBid.AuctionID, event); err != nil {
		s.logger.Error().Err(err).Str("bid_id", newBid.ID.String()).Msg("Failed to broadcast bid event")
	}
}

// GetBids retrieves the bid log for an auction, oldest first
func (s *BidService) GetBids(ctx context.Context, auctionID uuid.UUID) ([]*bid.Bid, error) {
	return s.bidRepo.GetByAuctionID(ctx, auctionID)
}

// GetHighestBid retrieves the highest accepted bid for an auction
func (s *BidService) GetHighestBid(ctx context.Context, auctionID uuid.UUID) (*bid.Bid, error) {
	return s.bidRepo.GetHighestBid(ctx, auctionID)
}
