package db

import (
	"context"
	"fmt"
)

// InitSchema creates the auction tables if they do not exist yet.
func InitSchema(ctx context.Context, conn *Connection) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS auctions (
			id UUID PRIMARY KEY,
			seller_id UUID NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			image_url TEXT NOT NULL DEFAULT '',
			starting_price BIGINT NOT NULL,
			current_price BIGINT NOT NULL,
			end_time TIMESTAMPTZ NOT NULL,
			status TEXT NOT NULL DEFAULT 'active',
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS bids (
			id UUID PRIMARY KEY,
			auction_id UUID NOT NULL REFERENCES auctions(id),
			user_id UUID NOT NULL,
			amount BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bids_auction_id ON bids(auction_id)`,
		`CREATE INDEX IF NOT EXISTS idx_auctions_status_end_time ON auctions(status, end_time)`,
	}

	for _, stmt := range statements {
		if _, err := conn.GetDB().ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}

	return nil
}
