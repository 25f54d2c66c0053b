package graph

import "strings"

// Subgraph is a bounded-depth snapshot of a subtree, taken at one instant.
// The depth bound caps the cost of a single resolution against an
// arbitrarily large configuration tree: nodes deeper than maxDepth below
// the root are simply absent from the snapshot.
type Subgraph struct {
	root     Path
	maxDepth int
	nodes    map[string]*Node // keyed by relative path, "" for the root
}

func newSubgraph(root Path, maxDepth int) *Subgraph {
	return &Subgraph{
		root:     root,
		maxDepth: maxDepth,
		nodes:    make(map[string]*Node),
	}
}

func (s *Subgraph) add(relative []string, node *Node) {
	s.nodes[strings.Join(relative, "/")] = node
}

// Location returns the path of the subgraph's root.
func (s *Subgraph) Location() Path { return s.root }

// MaxDepth returns the depth bound the subgraph was read with.
func (s *Subgraph) MaxDepth() int { return s.maxDepth }

// Root returns the subgraph's root node.
func (s *Subgraph) Root() *Node {
	return s.nodes[""]
}

// Node returns the node at the given relative segments below the root,
// or nil when the node is absent or beyond the depth bound.
func (s *Subgraph) Node(relative ...string) *Node {
	return s.nodes[strings.Join(relative, "/")]
}

// NodeAt returns the node at the given absolute path, or nil when the
// path is outside the subgraph.
func (s *Subgraph) NodeAt(path Path) *Node {
	rel, ok := path.RelativeTo(s.root)
	if !ok {
		return nil
	}
	return s.Node(rel...)
}

// Len returns the number of nodes in the snapshot.
func (s *Subgraph) Len() int { return len(s.nodes) }
