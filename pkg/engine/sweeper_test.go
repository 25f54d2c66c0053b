package engine

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeRepo counts sweeps and can be told to fail or panic.
type fakeRepo struct {
	name string

	mu      sync.Mutex
	sweeps  int
	failErr error
	panics  bool
}

func (f *fakeRepo) Name() string { return f.name }

func (f *fakeRepo) CleanUpLocks() (int, error) {
	f.mu.Lock()
	f.sweeps++
	failErr, panics := f.failErr, f.panics
	f.mu.Unlock()

	if panics {
		panic("lock table corrupted")
	}
	if failErr != nil {
		return 0, failErr
	}
	return 1, nil
}

func (f *fakeRepo) sweepCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sweeps
}

func waitForSweeps(t *testing.T, repo *fakeRepo, want int) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for repo.sweepCount() < want {
		select {
		case <-deadline:
			t.Fatalf("repository %q swept %d times, want at least %d",
				repo.name, repo.sweepCount(), want)
		case <-time.After(time.Millisecond):
		}
	}
}

func TestSweeperVisitsEveryRepository(t *testing.T) {
	a := &fakeRepo{name: "a"}
	b := &fakeRepo{name: "b"}
	s := newSweeper(5*time.Millisecond, func() []maintainable {
		return []maintainable{a, b}
	}, nil)

	s.Start()
	defer s.Stop()

	waitForSweeps(t, a, 2)
	waitForSweeps(t, b, 2)
}

func TestSweeperIsolatesFailures(t *testing.T) {
	a := &fakeRepo{name: "a", failErr: errors.New("source unreachable")}
	b := &fakeRepo{name: "b"}
	s := newSweeper(5*time.Millisecond, func() []maintainable {
		return []maintainable{a, b}
	}, nil)

	s.Start()
	defer s.Stop()

	// a fails every cycle yet b keeps getting swept, in the same cycles.
	waitForSweeps(t, a, 3)
	waitForSweeps(t, b, 3)
}

func TestSweeperIsolatesPanics(t *testing.T) {
	a := &fakeRepo{name: "a", panics: true}
	b := &fakeRepo{name: "b"}
	s := newSweeper(5*time.Millisecond, func() []maintainable {
		return []maintainable{a, b}
	}, nil)

	s.Start()
	defer s.Stop()

	waitForSweeps(t, a, 2)
	waitForSweeps(t, b, 2)
}

func TestSweeperStopHaltsSweeping(t *testing.T) {
	a := &fakeRepo{name: "a"}
	s := newSweeper(5*time.Millisecond, func() []maintainable {
		return []maintainable{a}
	}, nil)

	s.Start()
	waitForSweeps(t, a, 1)
	s.Stop()

	select {
	case <-s.Done():
	default:
		t.Fatal("Done not closed after Stop returned")
	}

	// No further cycles after Stop.
	count := a.sweepCount()
	time.Sleep(25 * time.Millisecond)
	if got := a.sweepCount(); got != count {
		t.Errorf("swept %d more times after Stop", got-count)
	}
}

func TestSweeperStopIdempotent(t *testing.T) {
	s := newSweeper(time.Hour, func() []maintainable { return nil }, nil)
	s.Start()
	s.Stop()
	s.Stop()
}

func TestSweeperStopWithoutStart(t *testing.T) {
	s := newSweeper(time.Hour, func() []maintainable { return nil }, nil)
	s.Stop()
}

func TestSweeperDefaultPeriod(t *testing.T) {
	s := newSweeper(0, func() []maintainable { return nil }, nil)
	if s.period != DefaultSweepPeriod {
		t.Errorf("period = %v, want %v", s.period, DefaultSweepPeriod)
	}
}
