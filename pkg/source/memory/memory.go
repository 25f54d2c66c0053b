// Package memory provides an in-memory storage source. It is the default
// backend for tests and for configurations that do not need persistence.
package memory

import (
	"context"
	"sync"

	"github.com/lodestone-io/lodestone/pkg/source"
)

// Source is an in-memory source.Source implementation.
type Source struct {
	name string

	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
}

// New creates an in-memory source with the given name.
func New(name string) *Source {
	return &Source{
		name: name,
		data: make(map[string][]byte),
	}
}

// Name implements source.Source.
func (s *Source) Name() string { return s.name }

// Capabilities implements source.Source. The memory backend accepts
// writes and lock records but cannot serve content queries.
func (s *Source) Capabilities() source.Capabilities {
	return source.Capabilities{
		Updatable:        true,
		Locking:          true,
		SameNameSiblings: true,
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
	s.closed = true
	s.data = make(map[string][]byte)
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
	if err := ctx.Err(); err != nil {
		return err
	}

	c.src.mu.Lock()
	defer c.src.mu.Unlock()
	if c.src.closed {
		return source.ErrClosed
	}

	copied := make([]byte, len(value))
	copy(copied, value)
	c.src.data[key] = copied
	return nil
}

func (c *connection) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.src.mu.RLock()
	defer c.src.mu.RUnlock()
	if c.src.closed {
		return nil, source.ErrClosed
	}

	value, ok := c.src.data[key]
	if !ok {
		return nil, source.ErrKeyNotFound
	}
	copied := make([]byte, len(value))
	copy(copied, value)
	return copied, nil
}

func (c *connection) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.src.mu.Lock()
	defer c.src.mu.Unlock()
	if c.src.closed {
		return source.ErrClosed
	}
	delete(c.src.data, key)
	return nil
}

func (c *connection) Close() error { return nil }
