package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lodestone-io/lodestone/internal/logger"
	"github.com/lodestone-io/lodestone/pkg/source"
)

var (
	// ErrRepositoryClosed is returned by operations on a closed repository.
	ErrRepositoryClosed = errors.New("repository: closed")

	// ErrSessionClosed is returned by operations on a logged-out session.
	ErrSessionClosed = errors.New("repository: session closed")

	// ErrLockConflict is returned when a lock request collides with a
	// held lock.
	ErrLockConflict = errors.New("repository: lock conflict")

	// ErrLockNotFound is returned when a lock ID does not name a lock
	// held by the calling session.
	ErrLockNotFound = errors.New("repository: lock not found")
)

// Config carries everything a repository instance is constructed with.
type Config struct {
	// Name is the repository name.
	Name string

	// SourceName names the storage source the instance binds to.
	SourceName string

	// ConnectionFactory opens connections to the named source.
	ConnectionFactory source.ConnectionFactory

	// Sources is the shared storage-source registry.
	Sources *source.Registry

	// Capabilities is the bound source's capability descriptor, empty
	// when the source was not resolvable at construction time.
	Capabilities source.Capabilities

	// Descriptors and Options come from the resolved descriptor.
	Descriptors map[string]string
	Options     map[OptionKey]string

	// Namespaces is the live namespace view, or nil.
	Namespaces *Namespaces

	// LockExtensionWindow overrides DefaultLockExtensionWindow when
	// positive.
	LockExtensionWindow time.Duration
}

// Repository is one live, named content repository. Created on first
// successful resolution of its name, owned by the engine's registry
// thereafter, and closed only on engine shutdown.
//
// A repository manages its own internal concurrency: sessions log in and
// out from arbitrary goroutines, and CleanUpLocks is invoked from the
// engine's sweeper goroutine rather than from any session's.
type Repository struct {
	name       string
	sourceName string

	connections  source.ConnectionFactory
	sources      *source.Registry
	capabilities source.Capabilities
	descriptors  map[string]string
	options      map[OptionKey]string
	namespaces   *Namespaces
	types        *Types

	mu       sync.Mutex
	sessions map[string]*Session
	locks    *lockTable
	closed   bool
}

// New constructs a repository instance from its resolved configuration.
func New(cfg Config) *Repository {
	descriptors := make(map[string]string, len(cfg.Descriptors))
	for k, v := range cfg.Descriptors {
		descriptors[k] = v
	}
	options := make(map[OptionKey]string, len(cfg.Options))
	for k, v := range cfg.Options {
		options[k] = v
	}

	return &Repository{
		name:         cfg.Name,
		sourceName:   cfg.SourceName,
		connections:  cfg.ConnectionFactory,
		sources:      cfg.Sources,
		capabilities: cfg.Capabilities,
		descriptors:  descriptors,
		options:      options,
		namespaces:   cfg.Namespaces,
		types:        newTypes(),
		sessions:     make(map[string]*Session),
		locks:        newLockTable(cfg.LockExtensionWindow),
	}
}

// Name returns the repository name.
func (r *Repository) Name() string { return r.name }

// SourceName returns the bound storage source's name.
func (r *Repository) SourceName() string { return r.sourceName }

// Capabilities returns the bound source's capability descriptor.
func (r *Repository) Capabilities() source.Capabilities { return r.capabilities }

// Namespaces returns the live namespace view, or nil when the
// configuration has none.
func (r *Repository) Namespaces() *Namespaces { return r.namespaces }

// Types returns the repository's structural type registrations.
func (r *Repository) Types() *Types { return r.types }

// Descriptor returns one descriptor value.
func (r *Repository) Descriptor(key string) (string, bool) {
	value, ok := r.descriptors[key]
	return value, ok
}

// Descriptors returns a copy of all descriptor values.
func (r *Repository) Descriptors() map[string]string {
	copied := make(map[string]string, len(r.descriptors))
	for k, v := range r.descriptors {
		copied[k] = v
	}
	return copied
}

// Option returns the value of one recognized option.
func (r *Repository) Option(key OptionKey) (string, bool) {
	value, ok := r.options[key]
	return value, ok
}

// Options returns a copy of all recognized options.
func (r *Repository) Options() map[OptionKey]string {
	copied := make(map[OptionKey]string, len(r.options))
	for k, v := range r.options {
		copied[k] = v
	}
	return copied
}

// Connect opens a connection to the repository's storage source.
func (r *Repository) Connect(ctx context.Context) (source.Connection, error) {
	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return nil, ErrRepositoryClosed
	}
	return r.connections.ConnectionFor(ctx, r.sourceName)
}

// Login opens a new session on the repository.
func (r *Repository) Login(ctx context.Context) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrRepositoryClosed
	}

	s := &Session{id: uuid.NewString(), repo: r}
	r.sessions[s.id] = s
	return s, nil
}

// Session looks up a live session by ID.
func (r *Repository) Session(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// ActiveSessions returns the number of live sessions.
func (r *Repository) ActiveSessions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// HeldLocks returns the number of currently held session locks.
func (r *Repository) HeldLocks() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.locks.count()
}

// CleanUpLocks reclaims session-scoped locks that have expired or whose
// owning session is gone. It should not be possible for a session to end
// without releasing its locks, but this sweeps up after sessions that
// terminate abnormally. Returns the number of locks reclaimed.
func (r *Repository) CleanUpLocks() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return 0, ErrRepositoryClosed
	}

	reclaimed := r.locks.sweep(time.Now(), func(sessionID string) bool {
		_, active := r.sessions[sessionID]
		return active
	})
	if reclaimed > 0 {
		logger.Debug("reclaimed abandoned locks",
			logger.KeyRepository, r.name, logger.KeyCount, reclaimed)
	}
	return reclaimed, nil
}

// Close shuts the repository down: every live session is terminated and
// its locks released. Close is idempotent.
func (r *Repository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true

	for id, s := range r.sessions {
		s.markClosed()
		r.locks.releaseSession(id)
	}
	r.sessions = make(map[string]*Session)

	logger.Debug("repository closed", logger.KeyRepository, r.name)
	return nil
}

// endSession is called by Session.Logout.
func (r *Repository) endSession(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return
	}
	delete(r.sessions, id)
	r.locks.releaseSession(id)
}
