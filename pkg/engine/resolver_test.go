package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/lodestone-io/lodestone/pkg/graph"
	"github.com/lodestone-io/lodestone/pkg/repository"
)

const resolverSeed = `
repositories:
  inventory:
    sourceName: main-store
    options:
      ReadOnly:
        value: "true"
      sessionIdleTimeout:
        value: 5m
      unknownFlag:
        value: "7"
      cacheName:
        description: value property missing, skipped
    descriptors:
      vendor:
        value: Lodestone
      unknownFlag:
        value: "7"
    namespaces:
      inv:
        uri: http://example.com/inventory
    node-types:
      base:
        abstract: "true"
  blankSource:
    sourceName: "   "
`

func parseResolver(t *testing.T) *Resolver {
	t.Helper()
	g, err := graph.Parse([]byte(resolverSeed))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return NewResolver(g)
}

func TestResolveOptionsVocabulary(t *testing.T) {
	r := parseResolver(t)

	res, err := r.Resolve(context.Background(), "inventory")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	desc := res.Descriptor

	// Option names match case-insensitively.
	if got := desc.Options[repository.OptionReadOnly]; got != "true" {
		t.Errorf("readOnly option = %q, want %q", got, "true")
	}
	if got := desc.Options[repository.OptionSessionIdleTimeout]; got != "5m" {
		t.Errorf("sessionIdleTimeout option = %q, want %q", got, "5m")
	}

	// Outside the vocabulary: dropped from options, kept in descriptors.
	if _, ok := desc.Options[repository.OptionKey("unknownFlag")]; ok {
		t.Error("unrecognized option name leaked into options")
	}
	if got := desc.Descriptors["unknownFlag"]; got != "7" {
		t.Errorf("descriptor unknownFlag = %q, want %q", got, "7")
	}

	// A child without a value property contributes nothing.
	if _, ok := desc.Options[repository.OptionCacheName]; ok {
		t.Error("value-less option node contributed a value")
	}
}

func TestResolveDescriptorsVerbatim(t *testing.T) {
	r := parseResolver(t)

	res, err := r.Resolve(context.Background(), "inventory")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got := res.Descriptor.Descriptors["vendor"]; got != "Lodestone" {
		t.Errorf("descriptor vendor = %q, want %q", got, "Lodestone")
	}
}

func TestResolveNamespacesLiveView(t *testing.T) {
	g, err := graph.Parse([]byte(resolverSeed))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	r := NewResolver(g)
	ctx := context.Background()

	res, err := r.Resolve(ctx, "inventory")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	ns := res.Descriptor.Namespaces
	if ns == nil {
		t.Fatal("expected a namespaces view")
	}

	uri, ok, err := ns.URIForPrefix(ctx, "inv")
	if err != nil {
		t.Fatalf("URIForPrefix failed: %v", err)
	}
	if !ok || uri != "http://example.com/inventory" {
		t.Errorf("uri = %q, bound = %v", uri, ok)
	}

	// A binding added after resolution is visible without re-resolving.
	late := graph.ParsePath("repositories/inventory/namespaces/ship")
	g.SetProperty(late, "uri", "http://example.com/shipping")

	uri, ok, err = ns.URIForPrefix(ctx, "ship")
	if err != nil {
		t.Fatalf("URIForPrefix after update failed: %v", err)
	}
	if !ok || uri != "http://example.com/shipping" {
		t.Errorf("late-bound uri = %q, bound = %v", uri, ok)
	}
}

func TestResolveNodeTypesLocation(t *testing.T) {
	r := parseResolver(t)

	res, err := r.Resolve(context.Background(), "inventory")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	at := res.Descriptor.TypeDefinitionsAt
	if at == nil {
		t.Fatal("expected a node-types location")
	}
	if at.String() != "/repositories/inventory/node-types" {
		t.Errorf("TypeDefinitionsAt = %q", at.String())
	}
	if res.Subgraph.NodeAt(*at) == nil {
		t.Error("node-types subtree missing from resolution subgraph")
	}
}

func TestResolveBlankSourceName(t *testing.T) {
	r := parseResolver(t)

	_, err := r.Resolve(context.Background(), "blankSource")
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Resolve = %v, want ConfigurationError", err)
	}
}

func TestResolveMissingRepository(t *testing.T) {
	r := parseResolver(t)

	_, err := r.Resolve(context.Background(), "ghost")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Resolve = %v, want ErrNotFound", err)
	}
}

func TestNamesEmptyGraph(t *testing.T) {
	r := NewResolver(graph.NewMemoryGraph())

	names, err := r.Names(context.Background())
	if err != nil {
		t.Fatalf("Names failed: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("names = %v, want none", names)
	}
}
