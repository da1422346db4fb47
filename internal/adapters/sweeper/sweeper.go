package sweeper

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ExpiryService closes auctions whose end time has passed. Implemented
// by app.AuctionService.
type ExpiryService interface {
	SweepExpired(ctx context.Context) (int, error)
}

// Sweeper runs the lifecycle sweep on a fixed interval. It is owned by
// the process lifecycle: Start launches the loop, Stop cancels it and
// waits for the in-flight tick to finish. A failed tick is logged and
// retried on the next tick, never fatal.
type Sweeper struct {
	service  ExpiryService
	interval time.Duration
	logger   zerolog.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

type SweeperParams struct {
	Service  ExpiryService
	Interval time.Duration
	Logger   zerolog.Logger
}

func NewSweeper(params SweeperParams) *Sweeper {
	ctx, cancel := context.WithCancel(context.Background())

	interval := params.Interval
	if interval <= 0 {
		interval = 10 * time.Second
	}

	return &Sweeper{
		service:  params.Service,
		interval: interval,
		logger:   params.Logger.With().Str("component", "lifecycle_sweeper").Logger(),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins the sweep loop
func (s *Sweeper) Start() {
	s.logger.Info().Dur("interval", s.interval).Msg("Starting lifecycle sweeper")

	s.wg.Add(1)
	go s.sweepLoop()
}

// Stop gracefully stops the sweeper
func (s *Sweeper) Stop() {
	s.logger.Info().Msg("Stopping lifecycle sweeper")
	s.cancel()
	s.wg.Wait()
}

func (s *Sweeper) sweepLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runSweep()
		case <-s.ctx.Done():
			s.logger.Info().Msg("Sweeper loop stopped")
			return
		}
	}
}

func (s *Sweeper) runSweep() {
	count, err := s.service.SweepExpired(s.ctx)
	if err != nil {
		// Retried on the next tick
		s.logger.Error().Err(err).Msg("Sweep iteration failed")
		return
	}

	if count > 0 {
		s.logger.Info().Int("ended", count).Msg("Sweep iteration completed")
	}
}
