package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lodestone-io/lodestone/internal/logger"
	"github.com/lodestone-io/lodestone/pkg/graph"
	"github.com/lodestone-io/lodestone/pkg/repository"
)

// RepositoriesRoot is the top-level graph node that holds one child per
// configured repository.
const RepositoriesRoot = "repositories"

// resolveDepth bounds how much of the configuration subtree a single
// resolution reads. Deep enough for the options, descriptors, namespaces
// and node-type children plus their own children.
const resolveDepth = 6

const (
	propSourceName = "sourceName"
	propValue      = "value"

	childOptions     = "options"
	childDescriptors = "descriptors"
	childNamespaces  = "namespaces"
	childNodeTypes   = "node-types"
)

// Resolution is the outcome of resolving one repository's configuration:
// the parsed descriptor plus the raw subgraph it was read from, so the
// factory can register node types without re-reading the graph.
type Resolution struct {
	Descriptor *repository.Descriptor
	Subgraph   *graph.Subgraph
}

// Resolver reads repository configurations from the configuration graph.
// Every call reads the current graph state; nothing is cached.
type Resolver struct {
	graph graph.Accessor
	root  graph.Path
}

func NewResolver(accessor graph.Accessor) *Resolver {
	return &Resolver{
		graph: accessor,
		root:  graph.NewPath(RepositoriesRoot),
	}
}

// Names lists the repository names currently present in the graph, in
// child order. A missing repositories root yields an empty list.
func (r *Resolver) Names(ctx context.Context) ([]string, error) {
	children, err := r.graph.ChildrenOf(ctx, r.root)
	if err != nil {
		if errors.Is(err, graph.ErrPathNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing repository configurations: %w", err)
	}

	names := make([]string, 0, len(children))
	for _, child := range children {
		names = append(names, child.Name)
	}
	return names, nil
}

// Resolve reads the configuration subtree for the named repository and
// builds its descriptor. It returns ErrNotFound when no configuration
// node exists and a ConfigurationError when the node is present but
// unusable.
func (r *Resolver) Resolve(ctx context.Context, name string) (*Resolution, error) {
	location := r.root.Child(name)

	sub, err := r.graph.SubgraphAt(ctx, location, resolveDepth)
	if err != nil {
		if errors.Is(err, graph.ErrPathNotFound) {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		return nil, fmt.Errorf("reading configuration for repository %q: %w", name, err)
	}

	desc := &repository.Descriptor{
		Name:        name,
		Options:     make(map[repository.OptionKey]string),
		Descriptors: make(map[string]string),
	}

	sourceName, ok := propertyValue(sub.Root(), propSourceName)
	if !ok || strings.TrimSpace(sourceName) == "" {
		return nil, &ConfigurationError{
			Repository: name,
			Path:       location.String(),
			Reason:     "missing required property " + propSourceName,
		}
	}
	desc.SourceName = sourceName

	r.collectOptions(sub, name, desc)
	r.collectDescriptors(sub, desc)

	if sub.Node(childNamespaces) != nil {
		desc.Namespaces = repository.NewNamespaces(r.graph, location.Child(childNamespaces))
	}

	if sub.Node(childNodeTypes) != nil {
		typesPath := location.Child(childNodeTypes)
		desc.TypeDefinitionsAt = &typesPath
	}

	return &Resolution{Descriptor: desc, Subgraph: sub}, nil
}

// collectOptions reads the options child. Each grandchild whose name
// matches a recognized option key contributes its "value" property.
// Unrecognized names and value-less children are skipped. Later
// occurrences of the same key overwrite earlier ones.
func (r *Resolver) collectOptions(sub *graph.Subgraph, repoName string, desc *repository.Descriptor) {
	options := sub.Node(childOptions)
	if options == nil {
		return
	}

	for _, child := range options.Children() {
		entry := sub.NodeAt(child.Path)
		if entry == nil {
			continue
		}
		value, ok := propertyValue(entry, propValue)
		if !ok {
			continue
		}
		key, known := repository.FindOption(child.Name)
		if !known {
			logger.Debug("ignoring unrecognized repository option",
				logger.Repository(repoName),
				logger.Option(child.Name))
			continue
		}
		if _, dup := desc.Options[key]; dup {
			logger.Debug("repository option redefined, keeping last value",
				logger.Repository(repoName),
				logger.Option(child.Name))
		}
		desc.Options[key] = value
	}
}

// collectDescriptors reads the descriptors child verbatim; any name is
// accepted and children without a "value" property are skipped.
func (r *Resolver) collectDescriptors(sub *graph.Subgraph, desc *repository.Descriptor) {
	descriptors := sub.Node(childDescriptors)
	if descriptors == nil {
		return
	}

	for _, child := range descriptors.Children() {
		entry := sub.NodeAt(child.Path)
		if entry == nil {
			continue
		}
		value, ok := propertyValue(entry, propValue)
		if !ok {
			continue
		}
		desc.Descriptors[child.Name] = value
	}
}

func propertyValue(node *graph.Node, name string) (string, bool) {
	if node == nil {
		return "", false
	}
	prop, ok := node.Property(name)
	if !ok || prop.IsEmpty() {
		return "", false
	}
	return prop.FirstValue(), true
}
