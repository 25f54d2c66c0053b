// Package source defines the storage-source contracts the engine consumes:
// named sources with capability descriptors, connections for node reads and
// writes, and a thread-safe registry of sources. The engine never touches a
// backend directly; repositories are bound to a source name and reach the
// backend through a ConnectionFactory.
package source

import (
	"context"
	"errors"
)

var (
	// ErrKeyNotFound is returned by Connection.Get for missing keys.
	ErrKeyNotFound = errors.New("source: key not found")

	// ErrSourceNotFound is returned by the ConnectionFactory for unknown
	// source names.
	ErrSourceNotFound = errors.New("source: no such source")

	// ErrClosed is returned by operations on a closed source or connection.
	ErrClosed = errors.New("source: closed")
)

// Capabilities describes what operations a storage source supports.
// Consulted at repository construction time only; never persisted on the
// descriptor.
type Capabilities struct {
	// Updatable reports whether the source accepts writes.
	Updatable bool

	// Searchable reports whether the source can serve content queries.
	Searchable bool

	// Locking reports whether the source supports lock persistence.
	Locking bool

	// SameNameSiblings reports whether the source can store multiple
	// children with the same local name.
	SameNameSiblings bool
}

// Connection is a live handle to one storage source. Repositories use it
// for node payload reads and writes; implementations manage their own
// internal concurrency.
type Connection interface {
	// SourceName returns the name of the source this connection belongs to.
	SourceName() string

	// Ping verifies the connection is usable.
	Ping(ctx context.Context) error

	// Put stores a payload under key.
	Put(ctx context.Context, key string, value []byte) error

	// Get retrieves the payload under key.
	// Returns ErrKeyNotFound when the key does not exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes the payload under key. Deleting a missing key is not
	// an error.
	Delete(ctx context.Context, key string) error

	// Close releases the connection.
	Close() error
}

// Source is one named storage backend.
type Source interface {
	// Name returns the source's registered name.
	Name() string

	// Capabilities returns the source's capability descriptor.
	Capabilities() Capabilities

	// Connect opens a connection to the source.
	Connect(ctx context.Context) (Connection, error)

	// Close shuts the source down. Connections obtained earlier become
	// invalid.
	Close() error
}

// ConnectionFactory opens connections by source name. The Registry
// implements it; repositories hold a factory rather than a source so the
// binding stays by name.
type ConnectionFactory interface {
	ConnectionFor(ctx context.Context, sourceName string) (Connection, error)
}
