package graph

import (
	"context"
	"errors"
)

// ErrPathNotFound is returned when a read names a path that does not exist.
var ErrPathNotFound = errors.New("graph: path not found")

// Property is a named value on a node. Properties may be multi-valued;
// resolution only ever consumes the first value.
type Property struct {
	name   string
	values []string
}

// NewProperty builds a property with the given values.
func NewProperty(name string, values ...string) Property {
	copied := make([]string, len(values))
	copy(copied, values)
	return Property{name: name, values: copied}
}

// Name returns the property name.
func (p Property) Name() string { return p.name }

// FirstValue returns the first value, or "" when the property is empty.
func (p Property) FirstValue() string {
	if len(p.values) == 0 {
		return ""
	}
	return p.values[0]
}

// Values returns a copy of all values.
func (p Property) Values() []string {
	copied := make([]string, len(p.values))
	copy(copied, p.values)
	return copied
}

// IsEmpty reports whether the property has no values, or only an empty
// first value.
func (p Property) IsEmpty() bool {
	return len(p.values) == 0 || p.values[0] == ""
}

// ChildRef identifies one child of a node: its local name and its location.
// The order of a node's ChildRefs is the graph's own child order.
type ChildRef struct {
	Name string
	Path Path
}

// Node is a read-only snapshot of one configuration node.
type Node struct {
	path       Path
	properties []Property
	children   []ChildRef
}

// NewNode builds a node snapshot. Used by Accessor implementations.
func NewNode(path Path, properties []Property, children []ChildRef) *Node {
	return &Node{path: path, properties: properties, children: children}
}

// Path returns the node's location in the tree.
func (n *Node) Path() Path { return n.path }

// Name returns the node's local name.
func (n *Node) Name() string { return n.path.LastSegment() }

// Property returns the named property, if present.
func (n *Node) Property(name string) (Property, bool) {
	for _, p := range n.properties {
		if p.name == name {
			return p, true
		}
	}
	return Property{}, false
}

// Properties returns the node's properties in graph order.
func (n *Node) Properties() []Property {
	copied := make([]Property, len(n.properties))
	copy(copied, n.properties)
	return copied
}

// Children returns the node's children in graph order.
func (n *Node) Children() []ChildRef {
	copied := make([]ChildRef, len(n.children))
	copy(copied, n.children)
	return copied
}

// Accessor is a read-only view over a configuration tree. The engine
// consumes the graph exclusively through this interface; implementations
// may be backed by memory, a file, or a remote store, so every read takes
// a context.
type Accessor interface {
	// ChildrenOf returns the ordered children of the node at path.
	// Returns ErrPathNotFound when the path does not exist.
	ChildrenOf(ctx context.Context, path Path) ([]ChildRef, error)

	// SubgraphAt reads the subtree rooted at path, bounded to maxDepth
	// levels below the root. Returns ErrPathNotFound when the path does
	// not exist.
	SubgraphAt(ctx context.Context, path Path, maxDepth int) (*Subgraph, error)

	// NodeAt returns the node at path.
	// Returns ErrPathNotFound when the path does not exist.
	NodeAt(ctx context.Context, path Path) (*Node, error)
}
