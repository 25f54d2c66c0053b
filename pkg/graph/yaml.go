package graph

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// YAML seed format: every mapping is a node, every scalar or sequence of
// scalars is a property. Child and property order in the file is the
// graph's child order, which resolution semantics depend on, so parsing
// goes through the yaml.Node API rather than map decoding (Go maps would
// lose the order).
//
//	repositories:
//	  inventory:
//	    sourceName: invSource
//	    options:
//	      cacheName:
//	        value: "x"

// LoadFile reads a YAML seed file into a new MemoryGraph.
func LoadFile(path string) (*MemoryGraph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read graph file %q: %w", path, err)
	}
	g, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse graph file %q: %w", path, err)
	}
	return g, nil
}

// Parse builds a MemoryGraph from YAML seed data.
func Parse(data []byte) (*MemoryGraph, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	g := NewMemoryGraph()
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return g, nil // empty document, empty graph
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("graph document root must be a mapping, got %s", kindName(root.Kind))
	}
	if err := buildNode(g, RootPath(), root); err != nil {
		return nil, err
	}
	return g, nil
}

func buildNode(g *MemoryGraph, at Path, mapping *yaml.Node) error {
	g.AddNode(at)

	// Mapping content alternates key, value.
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		key := mapping.Content[i]
		value := mapping.Content[i+1]

		switch value.Kind {
		case yaml.MappingNode:
			if err := buildNode(g, at.Child(key.Value), value); err != nil {
				return err
			}
		case yaml.ScalarNode:
			if value.Tag == "!!null" {
				g.AddNode(at.Child(key.Value)) // bare key, childless node
				continue
			}
			g.SetProperty(at, key.Value, value.Value)
		case yaml.SequenceNode:
			values, err := scalarSequence(value)
			if err != nil {
				return fmt.Errorf("property %q at %s: %w", key.Value, at, err)
			}
			g.SetProperty(at, key.Value, values...)
		default:
			return fmt.Errorf("unsupported YAML node kind %s for %q at %s", kindName(value.Kind), key.Value, at)
		}
	}
	return nil
}

func scalarSequence(seq *yaml.Node) ([]string, error) {
	values := make([]string, 0, len(seq.Content))
	for _, item := range seq.Content {
		if item.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("multi-valued properties must contain scalars only, got %s", kindName(item.Kind))
		}
		values = append(values, item.Value)
	}
	return values, nil
}

func kindName(kind yaml.Kind) string {
	switch kind {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "unknown"
	}
}
