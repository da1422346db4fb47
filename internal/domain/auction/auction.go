package auction

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of an auction
type Status string

const (
	StatusActive Status = "active"
	StatusEnded  Status = "ended"
)

// Auction represents a listing that buyers can bid on. CurrentPrice is
// monotonically non-decreasing and EndTime only moves via the anti-snipe
// extension while the auction is active. The active -> ended transition
// happens exactly once and is never reversed.
type Auction struct {
	ID            uuid.UUID `json:"id"`
	SellerID      uuid.UUID `json:"seller_id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	ImageURL      string    `json:"image_url,omitempty"`
	StartingPrice int64     `json:"starting_price"`
	CurrentPrice  int64     `json:"current_price"`
	EndTime       time.Time `json:"end_time"`
	Status        Status    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// IsActive returns true if the auction is still accepting bids
func (a *Auction) IsActive() bool {
	return a.Status == StatusActive
}

// IsEnded returns true if the auction has been closed
func (a *Auction) IsEnded() bool {
	return a.Status == StatusEnded
}

// RemainingAt returns how long the auction has left relative to now.
// Negative once the end time has passed.
func (a *Auction) RemainingAt(now time.Time) time.Duration {
	return a.EndTime.Sub(now)
}
