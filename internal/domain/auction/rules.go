package auction

import (
	"time"

	"bidhouse-auction-service/internal/domain/shared"
)

// BidRules holds the tunable parameters of bid acceptance.
type BidRules struct {
	// SnipeWindow is how close to the end time a bid must land to
	// trigger an extension.
	SnipeWindow time.Duration
	// SnipeExtension is added to the current end time when a bid
	// lands inside the window.
	SnipeExtension time.Duration
}

// DefaultBidRules returns the production defaults: 60s window, 60s bump.
func DefaultBidRules() BidRules {
	return BidRules{
		SnipeWindow:    60 * time.Second,
		SnipeExtension: 60 * time.Second,
	}
}

// Outcome is the state an accepted bid moves the auction to.
type Outcome struct {
	NewPrice   int64
	NewEndTime time.Time
	Extended   bool
}

// Evaluate decides whether a bid of amount at time now is acceptable
// against the given auction snapshot. It is a pure function: the caller
// is responsible for applying the outcome atomically against the store.
//
// Checks run in order: auction status, then price. An accepted bid
// landing inside the snipe window pushes the end time back by exactly
// one extension, measured from the current end time rather than from
// now, so a single bid never stacks extensions.
func Evaluate(a *Auction, amount int64, now time.Time, rules BidRules) (Outcome, error) {
	if !a.IsActive() {
		return Outcome{}, shared.ErrAuctionEnded
	}

	if amount <= a.CurrentPrice {
		return Outcome{}, shared.ErrBidTooLow
	}

	outcome := Outcome{
		NewPrice:   amount,
		NewEndTime: a.EndTime,
	}

	if a.RemainingAt(now) < rules.SnipeWindow {
		outcome.NewEndTime = a.EndTime.Add(rules.SnipeExtension)
		outcome.Extended = true
	}

	return outcome, nil
}
