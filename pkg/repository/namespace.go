package repository

import (
	"context"

	"github.com/lodestone-io/lodestone/pkg/graph"
)

// uriProperty is the property on each namespace child node holding the
// bound URI.
const uriProperty = "uri"

// Namespaces is a live prefix-to-URI view backed by a configuration
// subtree. Bindings are re-resolved from the graph on every lookup rather
// than copied, so the view always reflects the latest bound configuration.
type Namespaces struct {
	accessor graph.Accessor
	path     graph.Path
}

// NewNamespaces creates a view over the namespaces subtree at path.
func NewNamespaces(accessor graph.Accessor, path graph.Path) *Namespaces {
	return &Namespaces{accessor: accessor, path: path}
}

// Location returns the path of the backing subtree.
func (ns *Namespaces) Location() graph.Path { return ns.path }

// URIForPrefix resolves one prefix. The second return is false when the
// prefix is not bound.
func (ns *Namespaces) URIForPrefix(ctx context.Context, prefix string) (string, bool, error) {
	node, err := ns.accessor.NodeAt(ctx, ns.path.Child(prefix))
	if err == graph.ErrPathNotFound {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	prop, ok := node.Property(uriProperty)
	if !ok || prop.IsEmpty() {
		return "", false, nil
	}
	return prop.FirstValue(), true, nil
}

// Prefixes returns the currently bound prefixes in graph order.
func (ns *Namespaces) Prefixes(ctx context.Context) ([]string, error) {
	children, err := ns.accessor.ChildrenOf(ctx, ns.path)
	if err == graph.ErrPathNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	prefixes := make([]string, 0, len(children))
	for _, child := range children {
		prefixes = append(prefixes, child.Name)
	}
	return prefixes, nil
}

// Bindings returns the current prefix-to-URI mapping. Prefixes without a
// URI property are omitted.
func (ns *Namespaces) Bindings(ctx context.Context) (map[string]string, error) {
	prefixes, err := ns.Prefixes(ctx)
	if err != nil {
		return nil, err
	}

	bindings := make(map[string]string, len(prefixes))
	for _, prefix := range prefixes {
		uri, ok, err := ns.URIForPrefix(ctx, prefix)
		if err != nil {
			return nil, err
		}
		if ok {
			bindings[prefix] = uri
		}
	}
	return bindings, nil
}
