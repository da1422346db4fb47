package outbound

import (
	"context"
	"time"

	"bidhouse-auction-service/internal/domain/auction"
	"bidhouse-auction-service/internal/domain/bid"

	"github.com/google/uuid"
)

// AuctionRepository defines the interface for auction data operations
type AuctionRepository interface {
	// Create creates a new auction
	Create(ctx context.Context, auction *auction.Auction) error

	// GetByID retrieves an auction by ID
	GetByID(ctx context.Context, id uuid.UUID) (*auction.Auction, error)

	// List retrieves a page of auctions, newest first, with an optional
	// status filter
	List(ctx context.Context, status *auction.Status, page, pageSize int) ([]*auction.Auction, error)

	// ApplyBid atomically writes the new price and end time to the
	// auction and appends the bid record, guarded by the expected price
	// and an active status. Returns shared.ErrWriteConflict when another
	// writer got there first, shared.ErrAuctionEnded when the auction
	// was closed in the meantime.
	ApplyBid(ctx context.Context, auctionID uuid.UUID, expectedPrice, newPrice int64, newEndTime time.Time, b *bid.Bid) error

	// SweepExpired transitions every active auction with an end time
	// before now to ended and returns the IDs of the transitioned rows.
	// The operation is set-based and idempotent.
	SweepExpired(ctx context.Context, now time.Time) ([]uuid.UUID, error)
}

// BidRepository defines the interface for reading the bid log. Bids are
// only ever written through AuctionRepository.ApplyBid.
type BidRepository interface {
	// GetByAuctionID retrieves all bids for an auction, oldest first
	GetByAuctionID(ctx context.Context, auctionID uuid.UUID) ([]*bid.Bid, error)

	// GetHighestBid retrieves the highest bid for an auction
	GetHighestBid(ctx context.Context, auctionID uuid.UUID) (*bid.Bid, error)
}
