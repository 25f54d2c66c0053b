package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Common attribute keys for engine operations.
const (
	AttrRepository = "repo.name"
	AttrSource     = "repo.source"
	AttrSession    = "repo.session"
	AttrLockID     = "repo.lock_id"
	AttrLockKey    = "repo.lock_key"
	AttrGraphPath  = "graph.path"
	AttrOperation  = "engine.operation"
	AttrReclaimed  = "sweep.reclaimed"
)

// Repository returns an attribute for a repository name.
func Repository(name string) attribute.KeyValue {
	return attribute.String(AttrRepository, name)
}

// Source returns an attribute for a storage source name.
func Source(name string) attribute.KeyValue {
	return attribute.String(AttrSource, name)
}

// Session returns an attribute for a session identifier.
func Session(id string) attribute.KeyValue {
	return attribute.String(AttrSession, id)
}

// LockKey returns an attribute for a locked key.
func LockKey(key string) attribute.KeyValue {
	return attribute.String(AttrLockKey, key)
}

// GraphPath returns an attribute for a configuration graph path.
func GraphPath(path string) attribute.KeyValue {
	return attribute.String(AttrGraphPath, path)
}

// Reclaimed returns an attribute for a sweep's reclaimed lock count.
func Reclaimed(n int) attribute.KeyValue {
	return attribute.Int(AttrReclaimed, n)
}

// StartEngineSpan starts a span for an engine operation on one
// repository.
func StartEngineSpan(ctx context.Context, operation, repository string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := append([]attribute.KeyValue{
		attribute.String(AttrOperation, operation),
		Repository(repository),
	}, attrs...)
	return StartSpan(ctx, "engine."+operation, trace.WithAttributes(all...))
}
