package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"bidhouse-auction-service/internal/domain/auction"
	"bidhouse-auction-service/internal/domain/shared"
	"bidhouse-auction-service/internal/ports/inbound"
	"bidhouse-auction-service/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestAuctionService(store *memoryStore, bc *fakeBroadcaster, clock *fakeClock) *AuctionService {
	return NewAuctionService(AuctionServiceParams{
		AuctionRepo: store,
		BidRepo:     store,
		Broadcaster: bc,
		Clock:       clock,
		Logger:      zerolog.Nop(),
	})
}

func TestCreateAuction(t *testing.T) {
	sellerID := uuid.New()

	tests := []struct {
		name    string
		req     inbound.CreateAuctionRequest
		wantErr error
	}{
		{
			name: "valid_auction",
			req: inbound.CreateAuctionRequest{
				SellerID:        sellerID,
				Title:           "vintage camera",
				Description:     "working condition",
				StartingPrice:   100,
				DurationMinutes: 30,
			},
		},
		{
			name: "missing_title",
			req: inbound.CreateAuctionRequest{
				SellerID:        sellerID,
				Title:           "   ",
				StartingPrice:   100,
				DurationMinutes: 30,
			},
			wantErr: shared.ErrInvalidTitle,
		},
		{
			name: "non_positive_price",
			req: inbound.CreateAuctionRequest{
				SellerID:        sellerID,
				Title:           "vintage camera",
				StartingPrice:   0,
				DurationMinutes: 30,
			},
			wantErr: shared.ErrInvalidStartingPrice,
		},
		{
			name: "non_positive_duration",
			req: inbound.CreateAuctionRequest{
				SellerID:        sellerID,
				Title:           "vintage camera",
				StartingPrice:   100,
				DurationMinutes: 0,
			},
			wantErr: shared.ErrInvalidDuration,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := newMemoryStore()
			clock := newFakeClock(testStart)
			service := newTestAuctionService(store, &fakeBroadcaster{}, clock)

			created, err := service.CreateAuction(context.Background(), tc.req)

			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)
			require.Equal(t, auction.StatusActive, created.Status)
			require.Equal(t, tc.req.StartingPrice, created.CurrentPrice)
			require.Equal(t, tc.req.SellerID, created.SellerID)
			require.True(t, testStart.Add(30*time.Minute).Equal(created.EndTime))
		})
	}
}

func TestSweepExpiredIsIdempotent(t *testing.T) {
	store := newMemoryStore()
	bc := &fakeBroadcaster{}
	clock := newFakeClock(testStart)
	service := newTestAuctionService(store, bc, clock)

	expired1 := seedAuction(store, 100, testStart.Add(-1*time.Minute))
	expired2 := seedAuction(store, 200, testStart.Add(-2*time.Minute))
	future := seedAuction(store, 300, testStart.Add(1*time.Hour))

	count, err := service.SweepExpired(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, count)

	for _, id := range []uuid.UUID{expired1.ID, expired2.ID} {
		a, err := store.GetByID(context.Background(), id)
		require.NoError(t, err)
		require.Equal(t, auction.StatusEnded, a.Status)
	}

	stillActive, err := store.GetByID(context.Background(), future.ID)
	require.NoError(t, err)
	require.Equal(t, auction.StatusActive, stillActive.Status)

	// Second sweep with no new expiries transitions zero rows
	count, err = service.SweepExpired(context.Background())
	require.NoError(t, err)
	require.Zero(t, count)

	events := bc.published()
	require.Len(t, events, 2)
	for _, e := range events {
		require.Equal(t, outbound.EventTypeAuctionEnded, e.Type)
	}
}

func TestSweepExpiredPublishesWinner(t *testing.T) {
	store := newMemoryStore()
	bc := &fakeBroadcaster{}
	clock := newFakeClock(testStart)
	auctionService := newTestAuctionService(store, bc, clock)
	bidService := newTestBidService(store, bc, clock)

	seeded := seedAuction(store, 100, testStart.Add(120*time.Second))
	winnerID := uuid.New()

	_, err := bidService.PlaceBid(context.Background(), inbound.PlaceBidRequest{
		AuctionID: seeded.ID,
		UserID:    winnerID,
		Amount:    150,
	})
	require.NoError(t, err)

	clock.Advance(5 * time.Minute)

	count, err := auctionService.SweepExpired(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, count)

	events := bc.published()
	require.Len(t, events, 2) // bid.placed + auction.ended
	ended := events[1]
	require.Equal(t, outbound.EventTypeAuctionEnded, ended.Type)
	require.Equal(t, winnerID.String(), ended.Data["winner_id"])
	require.Equal(t, int64(150), ended.Data["final_price"])
}

func TestSweepExpiredSurfacesStoreFailure(t *testing.T) {
	store := newMemoryStore()
	store.sweepErr = errors.New("connection refused")
	service := newTestAuctionService(store, &fakeBroadcaster{}, newFakeClock(testStart))

	_, err := service.SweepExpired(context.Background())
	require.Error(t, err)
}

// Full lifecycle: create, reject a low bid, accept a bid inside the
// snipe window, sweep after expiry, reject a late bid.
func TestAuctionLifecycleEndToEnd(t *testing.T) {
	store := newMemoryStore()
	bc := &fakeBroadcaster{}
	clock := newFakeClock(testStart)
	auctionService := newTestAuctionService(store, bc, clock)
	bidService := newTestBidService(store, bc, clock)

	created, err := auctionService.CreateAuction(context.Background(), inbound.CreateAuctionRequest{
		SellerID:        uuid.New(),
		Title:           "vintage camera",
		StartingPrice:   100,
		DurationMinutes: 2,
	})
	require.NoError(t, err)
	require.True(t, testStart.Add(120*time.Second).Equal(created.EndTime))

	// Below current price: rejected, state unchanged
	_, err = bidService.PlaceBid(context.Background(), inbound.PlaceBidRequest{
		AuctionID: created.ID,
		UserID:    uuid.New(),
		Amount:    90,
	})
	require.ErrorIs(t, err, shared.ErrBidTooLow)

	// 55s remaining: accepted with an anti-snipe extension
	clock.Advance(65 * time.Second)
	placed, err := bidService.PlaceBid(context.Background(), inbound.PlaceBidRequest{
		AuctionID: created.ID,
		UserID:    uuid.New(),
		Amount:    150,
	})
	require.NoError(t, err)
	require.Equal(t, int64(150), placed.Amount)

	current, err := auctionService.GetAuction(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, int64(150), current.CurrentPrice)
	require.True(t, testStart.Add(180*time.Second).Equal(current.EndTime))

	// Past the extended end time: the sweep closes the auction
	clock.Advance(135 * time.Second)
	count, err := auctionService.SweepExpired(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, count)

	// Late bid against the ended auction
	_, err = bidService.PlaceBid(context.Background(), inbound.PlaceBidRequest{
		AuctionID: created.ID,
		UserID:    uuid.New(),
		Amount:    200,
	})
	require.ErrorIs(t, err, shared.ErrAuctionEnded)
}
