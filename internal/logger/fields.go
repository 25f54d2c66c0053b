package logger

import "log/slog"

// Standard field keys for structured logging.
// Use these keys consistently across all log statements so that log
// aggregation and querying see one vocabulary.
const (
	KeyRepository = "repository" // repository name from the registry
	KeySource     = "source"     // storage source name
	KeySession    = "session"    // session identifier
	KeyLockID     = "lock_id"    // session-scoped lock identifier
	KeyPath       = "path"       // configuration graph path
	KeyOption     = "option"     // repository option key
	KeyCount      = "count"      // generic count (locks reclaimed, entries, ...)
	KeyDurationMs = "duration_ms"
	KeyError      = "error"
	KeyPeriod     = "period" // sweep period
	KeyState      = "state"  // engine/sweeper state
	KeyPort       = "port"
)

// Repository returns a slog.Attr for a repository name.
func Repository(name string) slog.Attr {
	return slog.String(KeyRepository, name)
}

// Source returns a slog.Attr for a storage source name.
func Source(name string) slog.Attr {
	return slog.String(KeySource, name)
}

// Session returns a slog.Attr for a session identifier.
func Session(id string) slog.Attr {
	return slog.String(KeySession, id)
}

// LockID returns a slog.Attr for a lock identifier.
func LockID(id string) slog.Attr {
	return slog.String(KeyLockID, id)
}

// Path returns a slog.Attr for a configuration graph path.
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// Option returns a slog.Attr for a repository option key.
func Option(name string) slog.Attr {
	return slog.String(KeyOption, name)
}

// Count returns a slog.Attr for a generic count.
func Count(n int) slog.Attr {
	return slog.Int(KeyCount, n)
}

// Err returns a slog.Attr for an error.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}
