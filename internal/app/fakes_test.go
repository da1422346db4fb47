package app

import (
	"context"
	"sort"
	"sync"
	"time"

	"bidhouse-auction-service/internal/domain/auction"
	"bidhouse-auction-service/internal/domain/bid"
	"bidhouse-auction-service/internal/domain/shared"
	"bidhouse-auction-service/internal/ports/outbound"

	"github.com/google/uuid"
)

// fakeClock is a deterministic outbound.Clock for tests
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// memoryStore is an in-memory store implementing both repository ports
// with the same CAS semantics as the SQL adapter.
type memoryStore struct {
	mu       sync.Mutex
	auctions map[uuid.UUID]*auction.Auction
	bids     map[uuid.UUID][]*bid.Bid

	// forcedConflicts makes the next N ApplyBid calls fail with
	// ErrWriteConflict without touching state
	forcedConflicts int

	getErr   error
	applyErr error
	sweepErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		auctions: make(map[uuid.UUID]*auction.Auction),
		bids:     make(map[uuid.UUID][]*bid.Bid),
	}
}

func (s *memoryStore) put(a *auction.Auction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *a
	s.auctions[a.ID] = &clone
}

func (s *memoryStore) Create(ctx context.Context, a *auction.Auction) error {
	s.put(a)
	return nil
}

func (s *memoryStore) GetByID(ctx context.Context, id uuid.UUID) (*auction.Auction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.getErr != nil {
		return nil, s.getErr
	}

	a, ok := s.auctions[id]
	if !ok {
		return nil, shared.ErrAuctionNotFound
	}
	clone := *a
	return &clone, nil
}

func (s *memoryStore) List(ctx context.Context, status *auction.Status, page, pageSize int) ([]*auction.Auction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*auction.Auction
	for _, a := range s.auctions {
		if status != nil && a.Status != *status {
			continue
		}
		clone := *a
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	start := (page - 1) * pageSize
	if start >= len(out) {
		return nil, nil
	}
	end := start + pageSize
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], nil
}

func (s *memoryStore) ApplyBid(ctx context.Context, auctionID uuid.UUID, expectedPrice, newPrice int64, newEndTime time.Time, b *bid.Bid) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.applyErr != nil {
		return s.applyErr
	}
	if s.forcedConflicts > 0 {
		s.forcedConflicts--
		return shared.ErrWriteConflict
	}

	a, ok := s.auctions[auctionID]
	if !ok {
		return shared.ErrAuctionNotFound
	}
	if !a.IsActive() {
		return shared.ErrAuctionEnded
	}
	if a.CurrentPrice != expectedPrice {
		return shared.ErrWriteConflict
	}

	a.CurrentPrice = newPrice
	a.EndTime = newEndTime
	a.UpdatedAt = b.CreatedAt

	clone := *b
	s.bids[auctionID] = append(s.bids[auctionID], &clone)
	return nil
}

func (s *memoryStore) SweepExpired(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sweepErr != nil {
		return nil, s.sweepErr
	}

	var ids []uuid.UUID
	for _, a := range s.auctions {
		if a.IsActive() && a.EndTime.Before(now) {
			a.Status = auction.StatusEnded
			a.UpdatedAt = now
			ids = append(ids, a.ID)
		}
	}
	return ids, nil
}

func (s *memoryStore) GetByAuctionID(ctx context.Context, auctionID uuid.UUID) ([]*bid.Bid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*bid.Bid
	for _, b := range s.bids[auctionID] {
		clone := *b
		out = append(out, &clone)
	}
	return out, nil
}

func (s *memoryStore) GetHighestBid(ctx context.Context, auctionID uuid.UUID) (*bid.Bid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bids := s.bids[auctionID]
	if len(bids) == 0 {
		return nil, shared.ErrNoBidsFound
	}

	highest := bids[0]
	for _, b := range bids[1:] {
		if b.Amount > highest.Amount {
			highest = b
		}
	}
	clone := *highest
	return &clone, nil
}

// fakeBroadcaster records published events
type fakeBroadcaster struct {
	mu         sync.Mutex
	events     []outbound.Event
	publishErr error
}

func (f *fakeBroadcaster) Subscribe(ctx context.Context, auctionID uuid.UUID, clientID string, eventChan chan outbound.Event) error {
	return nil
}

func (f *fakeBroadcaster) Unsubscribe(ctx context.Context, auctionID uuid.UUID, clientID string) error {
	return nil
}

func (f *fakeBroadcaster) Publish(ctx context.Context, auctionID uuid.UUID, event outbound.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.publishErr != nil {
		return f.publishErr
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakeBroadcaster) IsSubscribed(ctx context.Context, auctionID uuid.UUID, clientID string) bool {
	return false
}

func (f *fakeBroadcaster) published() []outbound.Event {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]outbound.Event, len(f.events))
	copy(out, f.events)
	return out
}
