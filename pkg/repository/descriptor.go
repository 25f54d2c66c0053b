// Package repository implements live repository instances: each one is
// bound to a resolved descriptor and a storage source, owns its session
// and lock bookkeeping, and exposes the maintenance hook the engine's
// lock sweeper drives.
package repository

import (
	"strings"

	"github.com/lodestone-io/lodestone/pkg/graph"
)

// OptionKey identifies one recognized repository option. Option nodes in
// the configuration whose local name is not in the vocabulary are skipped
// during resolution.
type OptionKey string

const (
	// OptionCacheName names the workspace cache the repository should use.
	OptionCacheName OptionKey = "cacheName"

	// OptionReadOnly makes the repository reject writes regardless of
	// source capabilities.
	OptionReadOnly OptionKey = "readOnly"

	// OptionAnonymousAccess permits sessions without credentials.
	OptionAnonymousAccess OptionKey = "anonymousAccess"

	// OptionSessionIdleTimeout bounds how long an idle session survives.
	OptionSessionIdleTimeout OptionKey = "sessionIdleTimeout"

	// OptionVersioningEnabled toggles content versioning.
	OptionVersioningEnabled OptionKey = "versioningEnabled"
)

var knownOptions = map[string]OptionKey{
	"cachename":          OptionCacheName,
	"readonly":           OptionReadOnly,
	"anonymousaccess":    OptionAnonymousAccess,
	"sessionidletimeout": OptionSessionIdleTimeout,
	"versioningenabled":  OptionVersioningEnabled,
}

// FindOption maps a configuration node's local name to an option key.
// The lookup is case-insensitive; the second return is false for names
// outside the vocabulary.
func FindOption(localName string) (OptionKey, bool) {
	key, ok := knownOptions[strings.ToLower(localName)]
	return key, ok
}

// Descriptor is the fully resolved configuration of one repository.
// A descriptor is immutable once resolution returns it; re-resolution
// produces a new value and never mutates the descriptor a live instance
// is bound to.
type Descriptor struct {
	// Name is the repository name, the registry key.
	Name string

	// SourceName names the storage source the repository binds to.
	// Resolution fails without it.
	SourceName string

	// Options holds recognized options. Unrecognized option names were
	// skipped during resolution.
	Options map[OptionKey]string

	// Descriptors holds freeform descriptor values, recorded verbatim
	// with no vocabulary filtering.
	Descriptors map[string]string

	// Namespaces is a live prefix-to-URI view over the configuration
	// graph, or nil when the configuration has no namespaces subtree.
	Namespaces *Namespaces

	// TypeDefinitionsAt locates the structural-type-definitions subtree
	// for post-construction registration, or nil when absent.
	TypeDefinitionsAt *graph.Path
}
