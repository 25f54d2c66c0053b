// Package badger provides a BadgerDB-backed storage source.
//
// Suitable for embedded single-node deployments that need node payloads
// and lock records to survive restarts. All operations use BadgerDB's
// transaction support for atomicity.
package badger

import (
	"context"
	"fmt"
	"sync"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/lodestone-io/lodestone/pkg/source"
)

// Key prefixes. Node payloads and source bookkeeping share one keyspace.
const (
	prefixNode = "node:" // node:{key} -> payload
)

// Config holds BadgerDB source configuration.
type Config struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path string

	// InMemory runs the database without persistence. Useful in tests.
	InMemory bool
}

// Source is a BadgerDB-backed source.Source implementation.
type Source struct {
	name string
	db   *badgerdb.DB

	mu     sync.RWMutex
	closed bool
}

// Open creates or opens a BadgerDB source with the given name.
func Open(name string, cfg Config) (*Source, error) {
	opts := badgerdb.DefaultOptions(cfg.Path).
		WithInMemory(cfg.InMemory).
		WithLogger(nil) // BadgerDB's own logger is too chatty; engine logging covers lifecycle events

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database for source %q: %w", name, err)
	}

	return &Source{name: name, db: db}, nil
}

// Name implements source.Source.
func (s *Source) Name() string { return s.name }

// Capabilities implements source.Source.
func (s *Source) Capabilities() source.Capabilities {
	return source.Capabilities{
		Updatable: true,
		Locking:   true,
	}
}

// Connect implements source.Source.
func (s *Source) Connect(ctx context.Context) (source.Connection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, source.ErrClosed
	}
	return &connection{src: s}, nil
}

// Close implements source.Source.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close badger database for source %q: %w", s.name, err)
	}
	return nil
}

type connection struct {
	src *Source
}

func (c *connection) SourceName() string { return c.src.name }

func (c *connection) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.src.mu.RLock()
	defer c.src.mu.RUnlock()
	if c.src.closed {
		return source.ErrClosed
	}
	return nil
}

func (c *connection) Put(ctx context.Context, key string, value []byte) error {
	if err := c.Ping(ctx); err != nil {
		return err
	}

	err := c.src.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(keyNode(key), value)
	})
	if err != nil {
		return fmt.Errorf("failed to store %q in source %q: %w", key, c.src.name, err)
	}
	return nil
}

func (c *connection) Get(ctx context.Context, key string) ([]byte, error) {
	if err := c.Ping(ctx); err != nil {
		return nil, err
	}

	var value []byte
	err := c.src.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(keyNode(key))
		if err == badgerdb.ErrKeyNotFound {
			return source.ErrKeyNotFound
		}
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (c *connection) Delete(ctx context.Context, key string) error {
	if err := c.Ping(ctx); err != nil {
		return err
	}

	err := c.src.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Delete(keyNode(key))
	})
	if err != nil {
		return fmt.Errorf("failed to delete %q from source %q: %w", key, c.src.name, err)
	}
	return nil
}

func (c *connection) Close() error { return nil }

func keyNode(key string) []byte {
	return []byte(prefixNode + key)
}
