package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lodestone-io/lodestone/pkg/graph"
	"github.com/lodestone-io/lodestone/pkg/repository"
	"github.com/lodestone-io/lodestone/pkg/source"
	"github.com/lodestone-io/lodestone/pkg/source/memory"
)

const engineSeed = `
repositories:
  inventory:
    sourceName: main-store
    options:
      readOnly:
        value: "true"
    descriptors:
      vendor:
        value: Lodestone
  archive:
    sourceName: cold-store
  broken:
    description: no source configured
`

func newTestEngine(t *testing.T, opts Options) *Engine {
	t.Helper()

	g, err := graph.Parse([]byte(engineSeed))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	sources := source.NewRegistry()
	if err := sources.Register(memory.New("main-store")); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	t.Cleanup(func() { _ = sources.Close() })

	return New(g, sources, opts)
}

func startedEngine(t *testing.T) *Engine {
	t.Helper()
	e := newTestEngine(t, Options{})
	if err := e.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(func() { _ = e.Shutdown() })
	return e
}

func TestGetRepositoryConstructsLazily(t *testing.T) {
	ctx := context.Background()
	e := startedEngine(t)

	repo, err := e.GetRepository(ctx, "inventory")
	if err != nil {
		t.Fatalf("GetRepository failed: %v", err)
	}
	if repo.Name() != "inventory" {
		t.Errorf("Name = %q, want %q", repo.Name(), "inventory")
	}
	if repo.SourceName() != "main-store" {
		t.Errorf("SourceName = %q, want %q", repo.SourceName(), "main-store")
	}
	if !repo.Capabilities().Updatable {
		t.Error("expected capabilities from the registered source")
	}
}

func TestGetRepositoryReturnsSameInstance(t *testing.T) {
	ctx := context.Background()
	e := startedEngine(t)

	first, err := e.GetRepository(ctx, "inventory")
	if err != nil {
		t.Fatalf("GetRepository failed: %v", err)
	}
	second, err := e.GetRepository(ctx, "inventory")
	if err != nil {
		t.Fatalf("GetRepository failed: %v", err)
	}
	if first != second {
		t.Error("expected the identical instance on repeat requests")
	}
}

func TestGetRepositoryConcurrentCallersShareInstance(t *testing.T) {
	ctx := context.Background()
	e := startedEngine(t)

	const callers = 32
	repos := make([]*repository.Repository, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	var start sync.WaitGroup
	start.Add(1)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			start.Wait()
			repos[i], errs[i] = e.GetRepository(ctx, "inventory")
		}(i)
	}
	start.Done()
	wg.Wait()

	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d got error: %v", i, errs[i])
		}
		if repos[i] != repos[0] {
			t.Fatalf("caller %d received a different instance", i)
		}
	}
}

func TestGetRepositoryEmptyName(t *testing.T) {
	e := startedEngine(t)

	for _, name := range []string{"", "   "} {
		if _, err := e.GetRepository(context.Background(), name); !errors.Is(err, ErrInvalidName) {
			t.Errorf("GetRepository(%q) = %v, want ErrInvalidName", name, err)
		}
	}
}

func TestGetRepositoryUnknownName(t *testing.T) {
	e := startedEngine(t)

	_, err := e.GetRepository(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetRepository(unknown) = %v, want ErrNotFound", err)
	}
}

func TestGetRepositoryMissingSourceName(t *testing.T) {
	e := startedEngine(t)

	_, err := e.GetRepository(context.Background(), "broken")
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("GetRepository(broken) = %v, want ConfigurationError", err)
	}
	if cfgErr.Repository != "broken" {
		t.Errorf("ConfigurationError.Repository = %q, want %q", cfgErr.Repository, "broken")
	}

	// The failure must not poison the registry.
	if _, err := e.GetRepository(context.Background(), "inventory"); err != nil {
		t.Errorf("healthy repository unavailable after failed construction: %v", err)
	}
}

func TestGetRepositoryUnregisteredSource(t *testing.T) {
	ctx := context.Background()
	e := startedEngine(t)

	// archive names a source nobody registered; construction still
	// succeeds with empty capabilities.
	repo, err := e.GetRepository(ctx, "archive")
	if err != nil {
		t.Fatalf("GetRepository failed: %v", err)
	}
	if repo.Capabilities() != (source.Capabilities{}) {
		t.Errorf("Capabilities = %+v, want zero value", repo.Capabilities())
	}
}

func TestGetRepositoryBeforeStart(t *testing.T) {
	e := newTestEngine(t, Options{})

	if _, err := e.GetRepository(context.Background(), "inventory"); !errors.Is(err, ErrNotRunning) {
		t.Errorf("GetRepository before Start = %v, want ErrNotRunning", err)
	}
	if _, err := e.GetRepositoryNames(context.Background()); !errors.Is(err, ErrNotRunning) {
		t.Errorf("GetRepositoryNames before Start = %v, want ErrNotRunning", err)
	}
}

func TestGetRepositoryNamesIndependentOfConstruction(t *testing.T) {
	ctx := context.Background()
	e := startedEngine(t)

	names, err := e.GetRepositoryNames(ctx)
	if err != nil {
		t.Fatalf("GetRepositoryNames failed: %v", err)
	}
	want := []string{"archive", "broken", "inventory"}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names = %v, want %v", names, want)
		}
	}
}

func TestStartTwice(t *testing.T) {
	e := newTestEngine(t, Options{})
	if err := e.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer func() { _ = e.Shutdown() }()

	if err := e.Start(); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Start = %v, want ErrAlreadyStarted", err)
	}
}

func TestStartAfterShutdown(t *testing.T) {
	e := newTestEngine(t, Options{})
	if err := e.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := e.Shutdown(); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	if err := e.Start(); !errors.Is(err, ErrShutDown) {
		t.Errorf("Start after Shutdown = %v, want ErrShutDown", err)
	}
}

func TestShutdownClosesRepositoriesAndIsTerminal(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, Options{})
	if err := e.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	repo, err := e.GetRepository(ctx, "inventory")
	if err != nil {
		t.Fatalf("GetRepository failed: %v", err)
	}
	session, err := repo.Login(ctx)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if err := e.Shutdown(); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if e.State() != StateStopped {
		t.Errorf("State = %v, want stopped", e.State())
	}
	if session.Active() {
		t.Error("session still active after engine shutdown")
	}

	if _, err := e.GetRepository(ctx, "inventory"); !errors.Is(err, ErrNotRunning) {
		t.Errorf("GetRepository after Shutdown = %v, want ErrNotRunning", err)
	}
	if _, err := e.GetRepositoryNames(ctx); !errors.Is(err, ErrNotRunning) {
		t.Errorf("GetRepositoryNames after Shutdown = %v, want ErrNotRunning", err)
	}

	// Repeat shutdowns are harmless.
	if err := e.Shutdown(); err != nil {
		t.Errorf("second Shutdown = %v, want nil", err)
	}
}

func TestAwaitTermination(t *testing.T) {
	e := newTestEngine(t, Options{})
	if err := e.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// Not shut down yet, so a short wait must report failure.
	if e.AwaitTermination(20 * time.Millisecond) {
		t.Error("AwaitTermination reported completion before Shutdown")
	}

	if err := e.Shutdown(); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if !e.AwaitTermination(time.Second) {
		t.Error("AwaitTermination timed out after Shutdown completed")
	}
}

func TestResolveDescriptorDoesNotConstruct(t *testing.T) {
	ctx := context.Background()
	e := startedEngine(t)

	desc, err := e.ResolveDescriptor(ctx, "inventory")
	if err != nil {
		t.Fatalf("ResolveDescriptor failed: %v", err)
	}
	if desc.SourceName != "main-store" {
		t.Errorf("SourceName = %q, want %q", desc.SourceName, "main-store")
	}
	if got := desc.Descriptors["vendor"]; got != "Lodestone" {
		t.Errorf("descriptor vendor = %q, want %q", got, "Lodestone")
	}

	if len(e.snapshotRepositories()) != 0 {
		t.Error("ResolveDescriptor constructed an instance")
	}
}
