package bid

import (
	"time"

	"github.com/google/uuid"
)

// Bid represents an accepted bid on an auction. Bids form an append-only
// log: once recorded they are never updated or deleted, and the amount of
// each bid equals the auction's current price at the time it was accepted.
type Bid struct {
	ID        uuid.UUID `json:"id"`
	AuctionID uuid.UUID `json:"auction_id"`
	UserID    uuid.UUID `json:"user_id"`
	Amount    int64     `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

// New creates a bid record for an auction at the given acceptance time.
func New(auctionID, userID uuid.UUID, amount int64, at time.Time) *Bid {
	return &Bid{
		ID:        uuid.New(),
		AuctionID: auctionID,
		UserID:    userID,
		Amount:    amount,
		CreatedAt: at,
	}
}
