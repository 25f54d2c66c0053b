package repository

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultLockExtensionWindow is how long a session-held lock may go
// without being refreshed before the sweep considers it abandoned. The
// engine's sweep period is half this window, so an abandoned lock
// survives at most two cycles.
const DefaultLockExtensionWindow = 60 * time.Second

// SessionLock is one session-scoped lock on a repository key.
type SessionLock struct {
	// ID is the lock's unique identifier.
	ID string

	// SessionID identifies the owning session.
	SessionID string

	// Key is the locked repository key (typically a node path).
	Key string

	// ExpiresAt is when the lock lapses unless refreshed.
	ExpiresAt time.Time
}

// lockTable is the repository's session-lock bookkeeping. Locks are
// granted to sessions, extended by refresh, and reclaimed by the sweep
// when expired or when the owning session is gone. The table manages its
// own mutex; the sweep hook may run from a different goroutine than the
// sessions that created the locks.
type lockTable struct {
	window time.Duration

	locks map[string]*SessionLock // by lock ID
	byKey map[string]string       // key -> lock ID
}

func newLockTable(window time.Duration) *lockTable {
	if window <= 0 {
		window = DefaultLockExtensionWindow
	}
	return &lockTable{
		window: window,
		locks:  make(map[string]*SessionLock),
		byKey:  make(map[string]string),
	}
}

// acquire grants a lock on key to the given session.
func (t *lockTable) acquire(sessionID, key string) (*SessionLock, error) {
	if existingID, held := t.byKey[key]; held {
		existing := t.locks[existingID]
		if existing.SessionID == sessionID {
			return nil, fmt.Errorf("%w: key %q already locked by this session", ErrLockConflict, key)
		}
		return nil, fmt.Errorf("%w: key %q held by session %s", ErrLockConflict, key, existing.SessionID)
	}

	lock := &SessionLock{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Key:       key,
		ExpiresAt: time.Now().Add(t.window),
	}
	t.locks[lock.ID] = lock
	t.byKey[key] = lock.ID
	return lock, nil
}

// refresh extends the lock's expiry by the extension window.
func (t *lockTable) refresh(lockID, sessionID string) error {
	lock, ok := t.locks[lockID]
	if !ok || lock.SessionID != sessionID {
		return fmt.Errorf("%w: %s", ErrLockNotFound, lockID)
	}
	lock.ExpiresAt = time.Now().Add(t.window)
	return nil
}

// release removes one lock held by the given session.
func (t *lockTable) release(lockID, sessionID string) error {
	lock, ok := t.locks[lockID]
	if !ok || lock.SessionID != sessionID {
		return fmt.Errorf("%w: %s", ErrLockNotFound, lockID)
	}
	t.remove(lock)
	return nil
}

// releaseSession removes every lock held by the session, returning the
// number removed.
func (t *lockTable) releaseSession(sessionID string) int {
	removed := 0
	for _, lock := range t.locks {
		if lock.SessionID == sessionID {
			t.remove(lock)
			removed++
		}
	}
	return removed
}

// sweep reclaims locks that have expired or whose owning session is no
// longer active, returning the number reclaimed.
func (t *lockTable) sweep(now time.Time, sessionActive func(string) bool) int {
	reclaimed := 0
	for _, lock := range t.locks {
		if now.Before(lock.ExpiresAt) && sessionActive(lock.SessionID) {
			continue
		}
		t.remove(lock)
		reclaimed++
	}
	return reclaimed
}

func (t *lockTable) remove(lock *SessionLock) {
	delete(t.locks, lock.ID)
	delete(t.byKey, lock.Key)
}

func (t *lockTable) count() int {
	return len(t.locks)
}
