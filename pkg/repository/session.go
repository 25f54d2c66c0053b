package repository

import (
	"context"
	"sync/atomic"
)

// Session is one client session on a repository. Locks acquired through a
// session are session-scoped: they are released on logout and reclaimed
// by the lock sweep if the session ends without releasing them.
type Session struct {
	id     string
	repo   *Repository
	closed atomic.Bool
}

// ID returns the session's identifier.
func (s *Session) ID() string { return s.id }

// Active reports whether the session is still live.
func (s *Session) Active() bool { return !s.closed.Load() }

// Lock acquires a session-scoped lock on key. The lock lapses unless
// refreshed within the repository's lock extension window.
func (s *Session) Lock(ctx context.Context, key string) (*SessionLock, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.closed.Load() {
		return nil, ErrSessionClosed
	}

	s.repo.mu.Lock()
	defer s.repo.mu.Unlock()
	if s.repo.closed {
		return nil, ErrRepositoryClosed
	}

	lock, err := s.repo.locks.acquire(s.id, key)
	if err != nil {
		return nil, err
	}
	copied := *lock
	return &copied, nil
}

// RefreshLock extends a held lock's expiry by the extension window.
func (s *Session) RefreshLock(ctx context.Context, lockID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.closed.Load() {
		return ErrSessionClosed
	}

	s.repo.mu.Lock()
	defer s.repo.mu.Unlock()
	if s.repo.closed {
		return ErrRepositoryClosed
	}
	return s.repo.locks.refresh(lockID, s.id)
}

// Unlock releases a held lock.
func (s *Session) Unlock(ctx context.Context, lockID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.closed.Load() {
		return ErrSessionClosed
	}

	s.repo.mu.Lock()
	defer s.repo.mu.Unlock()
	if s.repo.closed {
		return ErrRepositoryClosed
	}
	return s.repo.locks.release(lockID, s.id)
}

// Logout ends the session and releases every lock it holds. Logout is
// idempotent.
func (s *Session) Logout() {
	if s.closed.Swap(true) {
		return
	}
	s.repo.endSession(s.id)
}

// markClosed flags the session closed without touching repository state.
// Called by Repository.Close, which already holds the repository mutex.
func (s *Session) markClosed() {
	s.closed.Store(true)
}
