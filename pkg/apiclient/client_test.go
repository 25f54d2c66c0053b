package apiclient

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/lodestone-io/lodestone/pkg/api"
	"github.com/lodestone-io/lodestone/pkg/engine"
	"github.com/lodestone-io/lodestone/pkg/graph"
	"github.com/lodestone-io/lodestone/pkg/source"
	"github.com/lodestone-io/lodestone/pkg/source/memory"
)

const clientSeed = `
repositories:
  inventory:
    sourceName: main-store
    options:
      readOnly:
        value: "true"
    namespaces:
      inv:
        uri: http://example.com/inventory
  broken:
    description: no source configured
`

func newTestClient(t *testing.T) *Client {
	t.Helper()

	g, err := graph.Parse([]byte(clientSeed))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	sources := source.NewRegistry()
	if err := sources.Register(memory.New("main-store")); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	eng := engine.New(g, sources, engine.Options{})
	if err := eng.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(func() {
		_ = eng.Shutdown()
		_ = sources.Close()
	})

	srv := httptest.NewServer(api.NewRouter(eng))
	t.Cleanup(srv.Close)
	return New(srv.URL)
}

func TestListRepositories(t *testing.T) {
	client := newTestClient(t)

	names, err := client.ListRepositories()
	if err != nil {
		t.Fatalf("ListRepositories failed: %v", err)
	}
	if len(names) != 2 {
		t.Fatalf("expected 2 repositories, got %v", names)
	}
}

func TestGetRepository(t *testing.T) {
	client := newTestClient(t)

	repo, err := client.GetRepository("inventory")
	if err != nil {
		t.Fatalf("GetRepository failed: %v", err)
	}
	if repo.Name != "inventory" {
		t.Errorf("name = %q, want inventory", repo.Name)
	}
	if repo.SourceName != "main-store" {
		t.Errorf("source = %q, want main-store", repo.SourceName)
	}
	if repo.Options["readOnly"] != "true" {
		t.Errorf("options = %v, want readOnly=true", repo.Options)
	}
	if repo.Live {
		t.Error("inspecting a repository must not construct it")
	}
}

func TestGetRepositoryNotFound(t *testing.T) {
	client := newTestClient(t)

	_, err := client.GetRepository("ghost")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if !apiErr.IsNotFound() {
		t.Errorf("status = %d, want 404", apiErr.StatusCode)
	}
}

func TestGetRepositoryInvalidConfiguration(t *testing.T) {
	client := newTestClient(t)

	_, err := client.GetRepository("broken")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if !apiErr.IsConfigurationError() {
		t.Errorf("status = %d, want 422", apiErr.StatusCode)
	}
}

func TestGetNamespaces(t *testing.T) {
	client := newTestClient(t)

	bindings, err := client.GetNamespaces("inventory")
	if err != nil {
		t.Fatalf("GetNamespaces failed: %v", err)
	}
	if bindings["inv"] != "http://example.com/inventory" {
		t.Errorf("bindings = %v", bindings)
	}
}

func TestSessionAndLockLifecycle(t *testing.T) {
	client := newTestClient(t)

	session, err := client.CreateSession("inventory")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if session.SessionID == "" {
		t.Fatal("expected a session ID")
	}

	lock, err := client.AcquireLock("inventory", session.SessionID, "orders/42")
	if err != nil {
		t.Fatalf("AcquireLock failed: %v", err)
	}
	if lock.Key != "orders/42" {
		t.Errorf("lock key = %q", lock.Key)
	}

	_, err = client.AcquireLock("inventory", session.SessionID, "orders/42")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || !apiErr.IsConflict() {
		t.Fatalf("expected a 409 conflict, got %v", err)
	}

	if err := client.RefreshLock("inventory", session.SessionID, lock.LockID); err != nil {
		t.Fatalf("RefreshLock failed: %v", err)
	}
	if err := client.ReleaseLock("inventory", session.SessionID, lock.LockID); err != nil {
		t.Fatalf("ReleaseLock failed: %v", err)
	}

	if err := client.CloseSession("inventory", session.SessionID); err != nil {
		t.Fatalf("CloseSession failed: %v", err)
	}
	err = client.CloseSession("inventory", session.SessionID)
	if !errors.As(err, &apiErr) || !apiErr.IsNotFound() {
		t.Fatalf("expected a 404 after logout, got %v", err)
	}
}

func TestHealth(t *testing.T) {
	client := newTestClient(t)

	health, err := client.Healthz()
	if err != nil {
		t.Fatalf("Healthz failed: %v", err)
	}
	if health.State != "running" {
		t.Errorf("state = %q, want running", health.State)
	}

	ready, err := client.Ready()
	if err != nil {
		t.Fatalf("Ready failed: %v", err)
	}
	if ready.State != "running" {
		t.Errorf("ready state = %q, want running", ready.State)
	}
}
