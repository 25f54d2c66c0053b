package badger_test

import (
	"context"
	"errors"
	"testing"

	"github.com/lodestone-io/lodestone/pkg/source"
	"github.com/lodestone-io/lodestone/pkg/source/badger"
)

func openTestSource(t *testing.T) *badger.Source {
	t.Helper()
	src, err := badger.Open("test", badger.Config{InMemory: true})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = src.Close() })
	return src
}

func TestRoundTrip(t *testing.T) {
	src := openTestSource(t)
	ctx := context.Background()

	conn, err := src.Connect(ctx)
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	if err := conn.Put(ctx, "repo/a", []byte("payload")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	got, err := conn.Get(ctx, "repo/a")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != "payload" {
		t.Errorf("Get = %q", got)
	}

	if err := conn.Delete(ctx, "repo/a"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := conn.Get(ctx, "repo/a"); !errors.Is(err, source.ErrKeyNotFound) {
		t.Errorf("Get after Delete err = %v, want ErrKeyNotFound", err)
	}
}

func TestPersistenceAcrossOpens(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	src, err := badger.Open("persist", badger.Config{Path: dir})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	conn, err := src.Connect(ctx)
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if err := conn.Put(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := src.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := badger.Open("persist", badger.Config{Path: dir})
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer func() { _ = reopened.Close() }()

	conn, err = reopened.Connect(ctx)
	if err != nil {
		t.Fatalf("Connect after reopen failed: %v", err)
	}
	got, err := conn.Get(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Errorf("Get after reopen = %q, %v", got, err)
	}
}

func TestClosedSource(t *testing.T) {
	src := openTestSource(t)
	ctx := context.Background()

	conn, err := src.Connect(ctx)
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if err := src.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if err := conn.Ping(ctx); !errors.Is(err, source.ErrClosed) {
		t.Errorf("Ping after Close err = %v, want ErrClosed", err)
	}
	if _, err := src.Connect(ctx); !errors.Is(err, source.ErrClosed) {
		t.Errorf("Connect after Close err = %v, want ErrClosed", err)
	}
}

func TestCapabilities(t *testing.T) {
	src := openTestSource(t)
	caps := src.Capabilities()
	if !caps.Updatable || !caps.Locking {
		t.Errorf("caps = %+v, want updatable and locking", caps)
	}
	if caps.Searchable {
		t.Error("badger source should not report searchable")
	}
}
