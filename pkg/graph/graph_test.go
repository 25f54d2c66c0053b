package graph

import (
	"context"
	"errors"
	"testing"
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/repositories/inventory", "/repositories/inventory"},
		{"repositories/inventory/", "/repositories/inventory"},
		{"a//b", "/a/b"},
		{"/", "/"},
		{"", "/"},
	}
	for _, tt := range tests {
		if got := ParsePath(tt.in).String(); got != tt.want {
			t.Errorf("ParsePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPathChildDoesNotMutateReceiver(t *testing.T) {
	base := NewPath("repositories")
	a := base.Child("a")
	b := base.Child("b")

	if a.String() != "/repositories/a" || b.String() != "/repositories/b" {
		t.Errorf("Child mutated shared state: a=%s b=%s", a, b)
	}
}

func TestPathRelativeTo(t *testing.T) {
	p := ParsePath("/repositories/inventory/options")

	rel, ok := p.RelativeTo(ParsePath("/repositories/inventory"))
	if !ok || len(rel) != 1 || rel[0] != "options" {
		t.Errorf("RelativeTo = %v, %v", rel, ok)
	}

	if _, ok := p.RelativeTo(ParsePath("/other")); ok {
		t.Error("RelativeTo accepted a non-ancestor")
	}
}

func TestChildrenOfPreservesInsertionOrder(t *testing.T) {
	g := NewMemoryGraph()
	root := ParsePath("/repositories")
	for _, name := range []string{"zeta", "alpha", "mid"} {
		g.AddNode(root.Child(name))
	}

	children, err := g.ChildrenOf(context.Background(), root)
	if err != nil {
		t.Fatalf("ChildrenOf failed: %v", err)
	}

	want := []string{"zeta", "alpha", "mid"}
	if len(children) != len(want) {
		t.Fatalf("got %d children, want %d", len(children), len(want))
	}
	for i, ref := range children {
		if ref.Name != want[i] {
			t.Errorf("child[%d] = %q, want %q", i, ref.Name, want[i])
		}
	}
}

func TestChildrenOfMissingPath(t *testing.T) {
	g := NewMemoryGraph()
	_, err := g.ChildrenOf(context.Background(), ParsePath("/nope"))
	if !errors.Is(err, ErrPathNotFound) {
		t.Errorf("err = %v, want ErrPathNotFound", err)
	}
}

func TestSubgraphDepthBound(t *testing.T) {
	g := NewMemoryGraph()
	g.SetProperty(ParsePath("/a/b/c/d"), "deep", "value")

	sub, err := g.SubgraphAt(context.Background(), ParsePath("/a"), 2)
	if err != nil {
		t.Fatalf("SubgraphAt failed: %v", err)
	}

	if sub.Node("b") == nil || sub.Node("b", "c") == nil {
		t.Error("nodes within the depth bound are missing")
	}
	if sub.Node("b", "c", "d") != nil {
		t.Error("node beyond the depth bound leaked into the subgraph")
	}
}

func TestSubgraphIsSnapshot(t *testing.T) {
	g := NewMemoryGraph()
	repo := ParsePath("/repositories/inventory")
	g.SetProperty(repo, "sourceName", "invSource")

	sub, err := g.SubgraphAt(context.Background(), repo, 6)
	if err != nil {
		t.Fatalf("SubgraphAt failed: %v", err)
	}

	g.SetProperty(repo, "sourceName", "changed")

	prop, ok := sub.Root().Property("sourceName")
	if !ok || prop.FirstValue() != "invSource" {
		t.Errorf("subgraph reflected a later write: %q", prop.FirstValue())
	}
}

func TestNodeAt(t *testing.T) {
	g := NewMemoryGraph()
	p := ParsePath("/repositories/archive")
	g.SetProperty(p, "sourceName", "arc", "secondary")

	node, err := g.NodeAt(context.Background(), p)
	if err != nil {
		t.Fatalf("NodeAt failed: %v", err)
	}
	prop, ok := node.Property("sourceName")
	if !ok {
		t.Fatal("property missing")
	}
	if prop.FirstValue() != "arc" {
		t.Errorf("FirstValue = %q, want arc", prop.FirstValue())
	}
	if len(prop.Values()) != 2 {
		t.Errorf("Values() = %v, want two values", prop.Values())
	}
}

func TestContextCancellation(t *testing.T) {
	g := NewMemoryGraph()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := g.ChildrenOf(ctx, RootPath()); err == nil {
		t.Error("ChildrenOf ignored a cancelled context")
	}
}
