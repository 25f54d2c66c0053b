// Package graph models the configuration tree the engine resolves
// repositories from: paths into the tree, read-only nodes with ordered
// properties and children, and bounded-depth subgraph reads.
//
// The engine only ever reads the graph. Mutation methods exist on the
// in-memory implementation for loading seed files and for tests.
package graph

import "strings"

// Path is a structural path into the configuration tree.
// The zero value is the root path.
type Path struct {
	segments []string
}

// RootPath returns the root of the tree.
func RootPath() Path {
	return Path{}
}

// NewPath builds a path from the given segments.
func NewPath(segments ...string) Path {
	copied := make([]string, len(segments))
	copy(copied, segments)
	return Path{segments: copied}
}

// ParsePath parses a slash-separated path such as "/repositories/inventory".
// Empty segments are dropped, so "a//b" and "/a/b/" both parse to "/a/b".
func ParsePath(s string) Path {
	var segments []string
	for _, seg := range strings.Split(s, "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	return Path{segments: segments}
}

// Child returns a new path with name appended. The receiver is unchanged.
func (p Path) Child(name string) Path {
	segments := make([]string, len(p.segments)+1)
	copy(segments, p.segments)
	segments[len(p.segments)] = name
	return Path{segments: segments}
}

// Parent returns the parent path, or the root for root itself.
func (p Path) Parent() Path {
	if len(p.segments) == 0 {
		return p
	}
	return Path{segments: p.segments[:len(p.segments)-1]}
}

// Segments returns a copy of the path's segments.
func (p Path) Segments() []string {
	copied := make([]string, len(p.segments))
	copy(copied, p.segments)
	return copied
}

// LastSegment returns the final segment, or "" for the root.
func (p Path) LastSegment() string {
	if len(p.segments) == 0 {
		return ""
	}
	return p.segments[len(p.segments)-1]
}

// Depth returns the number of segments.
func (p Path) Depth() int {
	return len(p.segments)
}

// IsRoot reports whether the path is the tree root.
func (p Path) IsRoot() bool {
	return len(p.segments) == 0
}

// Equal reports whether two paths name the same node.
func (p Path) Equal(other Path) bool {
	if len(p.segments) != len(other.segments) {
		return false
	}
	for i, seg := range p.segments {
		if other.segments[i] != seg {
			return false
		}
	}
	return true
}

// RelativeTo returns the segments of p below ancestor.
// The second return is false when ancestor is not a prefix of p.
func (p Path) RelativeTo(ancestor Path) ([]string, bool) {
	if len(ancestor.segments) > len(p.segments) {
		return nil, false
	}
	for i, seg := range ancestor.segments {
		if p.segments[i] != seg {
			return nil, false
		}
	}
	rel := make([]string, len(p.segments)-len(ancestor.segments))
	copy(rel, p.segments[len(ancestor.segments):])
	return rel, true
}

// String renders the path as "/seg1/seg2"; the root renders as "/".
func (p Path) String() string {
	if len(p.segments) == 0 {
		return "/"
	}
	return "/" + strings.Join(p.segments, "/")
}
