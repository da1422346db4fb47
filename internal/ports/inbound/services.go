package inbound

import (
	"context"

	"bidhouse-auction-service/internal/domain/auction"
	"bidhouse-auction-service/internal/domain/bid"

	"github.com/google/uuid"
)

// AuctionService defines the interface for auction lifecycle operations
type AuctionService interface {
	// CreateAuction creates a new active auction
	CreateAuction(ctx context.Context, req CreateAuctionRequest) (*auction.Auction, error)

	// GetAuction retrieves an auction by ID
	GetAuction(ctx context.Context, auctionID uuid.UUID) (*auction.Auction, error)

	// ListAuctions retrieves a page of auctions
	ListAuctions(ctx context.Context, req ListAuctionsRequest) ([]*auction.Auction, error)

	// SweepExpired transitions every active auction whose end time has
	// passed to ended and returns how many rows were transitioned
	SweepExpired(ctx context.Context) (int, error)
}

// BidService defines the interface for bid operations
type BidService interface {
	// PlaceBid runs the bid acceptance pipeline for a single bid request
	PlaceBid(ctx context.Context, req PlaceBidRequest) (*bid.Bid, error)

	// GetBids retrieves the bid log for an auction, oldest first
	GetBids(ctx context.Context, auctionID uuid.UUID) ([]*bid.Bid, error)

	// GetHighestBid retrieves the highest accepted bid for an auction
	GetHighestBid(ctx context.Context, auctionID uuid.UUID) (*bid.Bid, error)
}

// request to create an auction; the duration is seller-specified in
// minutes from the moment of creation
type CreateAuctionRequest struct {
	SellerID        uuid.UUID `json:"seller_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	ImageURL        string    `json:"image_url"`
	StartingPrice   int64     `json:"starting_price"`
	DurationMinutes int       `json:"duration_minutes"`
}

// request to list auctions
type ListAuctionsRequest struct {
	Status   *auction.Status `json:"status,omitempty"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}

// request to place a bid; UserID comes from the identity port and is
// trusted as-is
type PlaceBidRequest struct {
	AuctionID uuid.UUID `json:"auction_id"`
	UserID    uuid.UUID `json:"user_id"`
	Amount    int64     `json:"amount"`
}
