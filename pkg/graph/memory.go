package graph

import (
	"context"
	"sync"
)

// memNode is the mutable backing node of a MemoryGraph.
// Children keep insertion order; ChildrenOf and subgraph reads report
// that order, which resolution relies on for last-write-wins semantics.
type memNode struct {
	properties []Property
	order      []string
	children   map[string]*memNode
}

func newMemNode() *memNode {
	return &memNode{children: make(map[string]*memNode)}
}

func (n *memNode) child(name string, create bool) *memNode {
	if c, ok := n.children[name]; ok {
		return c
	}
	if !create {
		return nil
	}
	c := newMemNode()
	n.children[name] = c
	n.order = append(n.order, name)
	return c
}

func (n *memNode) setProperty(p Property) {
	for i, existing := range n.properties {
		if existing.name == p.name {
			n.properties[i] = p
			return
		}
	}
	n.properties = append(n.properties, p)
}

// MemoryGraph is an in-memory configuration tree implementing Accessor.
// Reads and writes are safe for concurrent use; the engine treats the
// graph as read-only, writes exist for seeding and for tests.
type MemoryGraph struct {
	mu   sync.RWMutex
	root *memNode
}

// NewMemoryGraph creates an empty graph.
func NewMemoryGraph() *MemoryGraph {
	return &MemoryGraph{root: newMemNode()}
}

// AddNode creates the node at path along with any missing ancestors.
func (g *MemoryGraph) AddNode(path Path) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ensure(path)
}

// SetProperty sets a property on the node at path, creating the node and
// any missing ancestors.
func (g *MemoryGraph) SetProperty(path Path, name string, values ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ensure(path).setProperty(NewProperty(name, values...))
}

// RemoveNode removes the node at path and its subtree. Removing the root
// or a missing node is a no-op.
func (g *MemoryGraph) RemoveNode(path Path) {
	if path.IsRoot() {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	parent := g.find(path.Parent())
	if parent == nil {
		return
	}
	name := path.LastSegment()
	if _, ok := parent.children[name]; !ok {
		return
	}
	delete(parent.children, name)
	for i, n := range parent.order {
		if n == name {
			parent.order = append(parent.order[:i], parent.order[i+1:]...)
			break
		}
	}
}

func (g *MemoryGraph) ensure(path Path) *memNode {
	node := g.root
	for _, seg := range path.Segments() {
		node = node.child(seg, true)
	}
	return node
}

func (g *MemoryGraph) find(path Path) *memNode {
	node := g.root
	for _, seg := range path.Segments() {
		node = node.child(seg, false)
		if node == nil {
			return nil
		}
	}
	return node
}

// ChildrenOf implements Accessor.
func (g *MemoryGraph) ChildrenOf(ctx context.Context, path Path) ([]ChildRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	node := g.find(path)
	if node == nil {
		return nil, ErrPathNotFound
	}
	return childRefs(node, path), nil
}

// NodeAt implements Accessor.
func (g *MemoryGraph) NodeAt(ctx context.Context, path Path) (*Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	node := g.find(path)
	if node == nil {
		return nil, ErrPathNotFound
	}
	return snapshot(node, path), nil
}

// SubgraphAt implements Accessor.
func (g *MemoryGraph) SubgraphAt(ctx context.Context, path Path, maxDepth int) (*Subgraph, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	root := g.find(path)
	if root == nil {
		return nil, ErrPathNotFound
	}

	sub := newSubgraph(path, maxDepth)
	var walk func(node *memNode, at Path, rel []string, depth int)
	walk = func(node *memNode, at Path, rel []string, depth int) {
		sub.add(rel, snapshot(node, at))
		if depth >= maxDepth {
			return
		}
		for _, name := range node.order {
			walk(node.children[name], at.Child(name), append(rel[:len(rel):len(rel)], name), depth+1)
		}
	}
	walk(root, path, nil, 0)
	return sub, nil
}

func childRefs(node *memNode, at Path) []ChildRef {
	refs := make([]ChildRef, 0, len(node.order))
	for _, name := range node.order {
		refs = append(refs, ChildRef{Name: name, Path: at.Child(name)})
	}
	return refs
}

func snapshot(node *memNode, at Path) *Node {
	props := make([]Property, len(node.properties))
	copy(props, node.properties)
	return NewNode(at, props, childRefs(node, at))
}
