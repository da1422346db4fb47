package shared

import "errors"

// Domain-specific errors
var (
	// Auction errors
	ErrAuctionNotFound      = errors.New("auction not found")
	ErrAuctionEnded         = errors.New("auction has ended")
	ErrInvalidTitle         = errors.New("title is required")
	ErrInvalidStartingPrice = errors.New("starting price must be greater than 0")
	ErrInvalidDuration      = errors.New("auction duration must be greater than 0")

	// Bid errors
	ErrBidTooLow   = errors.New("bid amount must be higher than the current price")
	ErrNoBidsFound = errors.New("no bids found")

	// Concurrency errors
	ErrWriteConflict = errors.New("auction was modified concurrently")

	// Store errors
	ErrStoreUnavailable = errors.New("store unavailable")

	// Identity errors
	ErrUserIDRequired = errors.New("user id is required")
	ErrInvalidUserID  = errors.New("invalid user id format")

	// WebSocket message validation errors
	ErrMessageTypeRequired        = errors.New("message type is required")
	ErrAuctionIDRequired          = errors.New("auction_id is required")
	ErrInvalidAmount              = errors.New("valid amount is required")
	ErrUnknownMessageType         = errors.New("unknown message type")
	ErrClientEventChannelNotFound = errors.New("client event channel not found")
)
