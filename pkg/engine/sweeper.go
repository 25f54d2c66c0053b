package engine

import (
	"sync"
	"time"

	"github.com/lodestone-io/lodestone/internal/logger"
)

// DefaultSweepPeriod is the default interval between lock maintenance
// cycles.
const DefaultSweepPeriod = 30 * time.Second

// maintainable is the slice of repository behavior the sweeper needs.
type maintainable interface {
	Name() string
	CleanUpLocks() (int, error)
}

// sweeper runs periodic lock maintenance over the engine's live
// repositories. Each cycle works on a snapshot of the registry, so a
// sweep never holds the registry lock while visiting repositories, and a
// failure or panic in one repository never prevents the others from
// being swept in the same cycle.
type sweeper struct {
	period   time.Duration
	snapshot func() []maintainable
	metrics  Metrics

	mu        sync.Mutex
	started   bool
	stopOnce  sync.Once
	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func newSweeper(period time.Duration, snapshot func() []maintainable, metrics Metrics) *sweeper {
	if period <= 0 {
		period = DefaultSweepPeriod
	}
	return &sweeper{
		period:    period,
		snapshot:  snapshot,
		metrics:   metrics,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Start launches the maintenance loop. Calling Start more than once is a
// no-op.
func (s *sweeper) Start() {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	logger.Info("starting lock maintenance", logger.KeyPeriod, s.period.String())
	go s.run()
}

// Stop signals the loop to exit and waits until it has. A sweep in
// progress finishes its snapshot first; no further cycle runs. Stopping a
// never-started or already-stopped sweeper returns immediately.
func (s *sweeper) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	s.stopOnce.Do(func() { close(s.stopCh) })
	<-s.stoppedCh
}

// Started reports whether Start has been called.
func (s *sweeper) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// Done returns a channel closed once the maintenance loop has exited.
// It never closes for a sweeper that was not started.
func (s *sweeper) Done() <-chan struct{} {
	return s.stoppedCh
}

func (s *sweeper) run() {
	defer close(s.stoppedCh)

	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			logger.Info("lock maintenance stopped")
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

// sweep runs one maintenance cycle over the current snapshot.
func (s *sweeper) sweep() {
	repos := s.snapshot()
	for _, repo := range repos {
		s.sweepOne(repo)
	}
	if s.metrics != nil {
		s.metrics.RecordSweepCycle()
	}
}

// sweepOne cleans up one repository's locks, containing any error or
// panic so the rest of the cycle proceeds.
func (s *sweeper) sweepOne(repo maintainable) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic during lock maintenance",
				logger.KeyRepository, repo.Name(), "panic", r)
			if s.metrics != nil {
				s.metrics.RecordSweepFailure(repo.Name())
			}
		}
	}()

	reclaimed, err := repo.CleanUpLocks()
	if err != nil {
		logger.Error("lock maintenance failed",
			logger.KeyRepository, repo.Name(), logger.Err(err))
		if s.metrics != nil {
			s.metrics.RecordSweepFailure(repo.Name())
		}
		return
	}
	if s.metrics != nil {
		s.metrics.RecordLocksReclaimed(repo.Name(), reclaimed)
	}
}
