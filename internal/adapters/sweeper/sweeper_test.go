package sweeper

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type stubExpiryService struct {
	mu    sync.Mutex
	calls int
	errs  []error
}

func (s *stubExpiryService) SweepExpired(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		if err != nil {
			return 0, err
		}
	}
	return 1, nil
}

func (s *stubExpiryService) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func waitForCalls(t *testing.T, svc *stubExpiryService, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if svc.callCount() >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	require.GreaterOrEqual(t, svc.callCount(), want)
}

func TestSweeperTicksPeriodically(t *testing.T) {
	svc := &stubExpiryService{}
	s := NewSweeper(SweeperParams{
		Service:  svc,
		Interval: 10 * time.Millisecond,
		Logger:   zerolog.Nop(),
	})

	s.Start()
	defer s.Stop()

	waitForCalls(t, svc, 3)
}

func TestSweeperKeepsTickingAfterFailure(t *testing.T) {
	svc := &stubExpiryService{errs: []error{errors.New("connection refused")}}
	s := NewSweeper(SweeperParams{
		Service:  svc,
		Interval: 10 * time.Millisecond,
		Logger:   zerolog.Nop(),
	})

	s.Start()
	defer s.Stop()

	// The failed first tick must not stop the loop
	waitForCalls(t, svc, 2)
}

func TestSweeperStopHaltsLoop(t *testing.T) {
	svc := &stubExpiryService{}
	s := NewSweeper(SweeperParams{
		Service:  svc,
		Interval: 10 * time.Millisecond,
		Logger:   zerolog.Nop(),
	})

	s.Start()
	waitForCalls(t, svc, 1)
	s.Stop()

	after := svc.callCount()
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, after, svc.callCount())
}

func TestNewSweeperDefaultsInterval(t *testing.T) {
	s := NewSweeper(SweeperParams{
		Service: &stubExpiryService{},
		Logger:  zerolog.Nop(),
	})
	require.Equal(t, 10*time.Second, s.interval)
}
