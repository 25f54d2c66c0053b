package repository

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/lodestone-io/lodestone/pkg/graph"
)

// Properties recognized on a type-definition node.
const (
	typePropSupertypes = "supertypes"
	typePropMixin      = "mixin"
	typePropAbstract   = "abstract"
)

// TypeDefinition is one structural type a repository enforces on its
// content. Definitions come from the configuration graph's node-types
// subtree; parsing a textual type-definition language is out of scope.
type TypeDefinition struct {
	Name       string
	Supertypes []string
	Mixin      bool
	Abstract   bool
}

// Types is a repository's registered structural type definitions.
type Types struct {
	mu   sync.RWMutex
	defs map[string]TypeDefinition
}

func newTypes() *Types {
	return &Types{defs: make(map[string]TypeDefinition)}
}

// Register adds a type definition.
// Registering an empty name or a duplicate fails.
func (t *Types) Register(def TypeDefinition) error {
	if def.Name == "" {
		return fmt.Errorf("type definition must have a name")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.defs[def.Name]; exists {
		return fmt.Errorf("type %q already registered", def.Name)
	}
	t.defs[def.Name] = def
	return nil
}

// Definition retrieves a registered type by name.
func (t *Types) Definition(name string) (TypeDefinition, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	def, ok := t.defs[name]
	return def, ok
}

// Names returns the registered type names.
// The returned slice is a copy and safe to modify.
func (t *Types) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	names := make([]string, 0, len(t.defs))
	for name := range t.defs {
		names = append(names, name)
	}
	return names
}

// Count returns the number of registered types.
func (t *Types) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.defs)
}

// RegisterTypesFrom reads type definitions from the subtree at location
// within the given subgraph and registers each one. Any failure aborts
// registration; the factory surfaces it as a construction error.
func (r *Repository) RegisterTypesFrom(ctx context.Context, sub *graph.Subgraph, location graph.Path) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	root := sub.NodeAt(location)
	if root == nil {
		return fmt.Errorf("no type definitions at %s", location)
	}

	for _, child := range root.Children() {
		node := sub.NodeAt(child.Path)
		if node == nil {
			// Child beyond the subgraph's depth bound; the resolver's
			// depth is chosen so this does not happen in well-formed trees.
			return fmt.Errorf("type definition %q at %s is beyond the resolved depth", child.Name, child.Path)
		}

		def, err := typeDefinitionFrom(node)
		if err != nil {
			return fmt.Errorf("invalid type definition at %s: %w", child.Path, err)
		}
		if err := r.types.Register(def); err != nil {
			return fmt.Errorf("failed to register type from %s: %w", child.Path, err)
		}
	}
	return nil
}

func typeDefinitionFrom(node *graph.Node) (TypeDefinition, error) {
	def := TypeDefinition{Name: node.Name()}

	if prop, ok := node.Property(typePropSupertypes); ok {
		def.Supertypes = prop.Values()
	}

	var err error
	if def.Mixin, err = boolProperty(node, typePropMixin); err != nil {
		return TypeDefinition{}, err
	}
	if def.Abstract, err = boolProperty(node, typePropAbstract); err != nil {
		return TypeDefinition{}, err
	}
	return def, nil
}

func boolProperty(node *graph.Node, name string) (bool, error) {
	prop, ok := node.Property(name)
	if !ok || prop.IsEmpty() {
		return false, nil
	}
	value, err := strconv.ParseBool(prop.FirstValue())
	if err != nil {
		return false, fmt.Errorf("property %q must be a boolean, got %q", name, prop.FirstValue())
	}
	return value, nil
}
