package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bidhouse-auction-service/internal/domain/auction"
	"bidhouse-auction-service/internal/domain/bid"
	"bidhouse-auction-service/internal/domain/shared"

	"github.com/google/uuid"
)

// AuctionRepository implements the auction repository interface
type AuctionRepository struct {
	conn *Connection
}

// NewAuctionRepository creates a new auction repository
func NewAuctionRepository(conn *Connection) *AuctionRepository {
	return &AuctionRepository{conn: conn}
}

const auctionColumns = `id, seller_id, title, description, image_url, starting_price, current_price, end_time, status, created_at, updated_at`

// Create creates a new auction
func (r *AuctionRepository) Create(ctx context.Context, a *auction.Auction) error {
	query := `
		INSERT INTO auctions (` + auctionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.conn.GetDB().ExecContext(ctx, query,
		a.ID,
		a.SellerID,
		a.Title,
		a.Description,
		a.ImageURL,
		a.StartingPrice,
		a.CurrentPrice,
		a.EndTime,
		a.Status,
		a.CreatedAt,
		a.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create auction: %w", err)
	}

	return nil
}

// GetByID retrieves an auction by ID
func (r *AuctionRepository) GetByID(ctx context.Context, id uuid.UUID) (*auction.Auction, error) {
	query := `
		SELECT ` + auctionColumns + `
		FROM auctions
		WHERE id = $1
	`

	var a auction.Auction
	err := r.conn.GetDB().QueryRowContext(ctx, query, id).Scan(
		&a.ID,
		&a.SellerID,
		&a.Title,
		&a.Description,
		&a.ImageURL,
		&a.StartingPrice,
		&a.CurrentPrice,
		&a.EndTime,
		&a.Status,
		&a.CreatedAt,
		&a.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, shared.ErrAuctionNotFound
		}
		return nil, fmt.Errorf("failed to get auction: %w", err)
	}

	return &a, nil
}

// List retrieves a page of auctions, newest first, optionally filtered by status
func (r *AuctionRepository) List(ctx context.Context, status *auction.Status, page, pageSize int) ([]*auction.Auction, error) {
	baseQuery := `
		SELECT ` + auctionColumns + `
		FROM auctions
	`

	var whereClause string
	var args []interface{}
	argCount := 1

	if status != nil {
		whereClause = "WHERE status = $1"
		args = append(args, *status)
		argCount++
	}

	limitClause := fmt.Sprintf("LIMIT $%d", argCount)
	offsetClause := fmt.Sprintf("OFFSET $%d", argCount+1)
	args = append(args, pageSize, (page-1)*pageSize)

	query := baseQuery + whereClause + " ORDER BY created_at DESC " + limitClause + " " + offsetClause

	rows, err := r.conn.GetDB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list auctions: %w", err)
	}
	defer rows.Close()

	var auctions []*auction.Auction
	for rows.Next() {
		var a auction.Auction
		err := rows.Scan(
			&a.ID,
			&a.SellerID,
			&a.Title,
			&a.Description,
			&a.ImageURL,
			&a.StartingPrice,
			&a.CurrentPrice,
			&a.EndTime,
			&a.Status,
			&a.CreatedAt,
			&a.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan auction: %w", err)
		}
		auctions = append(auctions, &a)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating auctions: %w", err)
	}

	return auctions, nil
}

/*
ApplyBid atomically applies an accepted bid to its auction:
 1. Re-reads the auction row inside the transaction
 2. Rejects if the auction is no longer active (a concurrent sweep may
    have closed it after the snapshot was validated)
 3. Appends the bid record
 4. Updates current_price and end_time guarded by the expected price, so
    a concurrent writer is detected and surfaced as ErrWriteConflict

The bid insert and the price/end-time update commit together or not at
all; a partial application can never be observed.
*/
func (r *AuctionRepository) ApplyBid(ctx context.Context, auctionID uuid.UUID, expectedPrice, newPrice int64, newEndTime time.Time, b *bid.Bid) error {
	return r.conn.ExecuteTransaction(ctx, func(tx *sql.Tx) error {
		auctionQuery := `
			SELECT current_price, status
			FROM auctions
			WHERE id = $1
		`

		var dbCurrentPrice int64
		var status string
		err := tx.QueryRowContext(ctx, auctionQuery, auctionID).Scan(&dbCurrentPrice, &status)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return shared.ErrAuctionNotFound
			}
			return fmt.Errorf("failed to get auction for bid apply: %w", err)
		}

		if status != string(auction.StatusActive) {
			return shared.ErrAuctionEnded
		}

		if dbCurrentPrice != expectedPrice {
			return shared.ErrWriteConflict
		}

		bidQuery := `
			INSERT INTO bids (id, auction_id, user_id, amount, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`

		_, err = tx.ExecContext(ctx, bidQuery,
			b.ID,
			b.AuctionID,
			b.UserID,
			b.Amount,
			b.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert bid: %w", err)
		}

		// The expected price and status in the WHERE clause guard
		// against a writer that slipped in between the read above and
		// this update.
		updateQuery := `
			UPDATE auctions
			SET current_price = $2, end_time = $3, updated_at = $4
			WHERE id = $1 AND current_price = $5 AND status = 'active'
		`

		result, err := tx.ExecContext(ctx, updateQuery,
			auctionID,
			newPrice,
			newEndTime,
			b.CreatedAt,
			expectedPrice,
		)
		if err != nil {
			return fmt.Errorf("failed to update auction price: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}

		if rowsAffected == 0 {
			return shared.ErrWriteConflict
		}

		return nil
	})
}

// SweepExpired transitions every active auction whose end time has
// passed to ended and returns the transitioned IDs. Set-based and
// idempotent: only rows matching the predicate at execution time are
// touched, so concurrent or repeated sweeps never double-transition.
func (r *AuctionRepository) SweepExpired(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	query := `
		UPDATE auctions
		SET status = 'ended', updated_at = $2
		WHERE status = 'active' AND end_time < $1
		RETURNING id
	`

	rows, err := r.conn.GetDB().QueryContext(ctx, query, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to sweep expired auctions: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan swept auction id: %w", err)
		}
		ids = append(ids, id)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating swept auctions: %w", err)
	}

	return ids, nil
}
