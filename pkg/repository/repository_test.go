package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lodestone-io/lodestone/pkg/source"
	"github.com/lodestone-io/lodestone/pkg/source/memory"
)

func testRepository(t *testing.T, window time.Duration) *Repository {
	t.Helper()

	sources := source.NewRegistry()
	if err := sources.Register(memory.New("testSource")); err != nil {
		t.Fatalf("failed to register source: %v", err)
	}

	repo := New(Config{
		Name:                "test",
		SourceName:          "testSource",
		ConnectionFactory:   sources,
		Sources:             sources,
		Capabilities:        source.Capabilities{Updatable: true, Locking: true},
		Descriptors:         map[string]string{"vendor": "acme"},
		Options:             map[OptionKey]string{OptionCacheName: "x"},
		LockExtensionWindow: window,
	})
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestDescriptorAndOptionAccess(t *testing.T) {
	repo := testRepository(t, 0)

	if v, ok := repo.Descriptor("vendor"); !ok || v != "acme" {
		t.Errorf("Descriptor(vendor) = %q, %v", v, ok)
	}
	if v, ok := repo.Option(OptionCacheName); !ok || v != "x" {
		t.Errorf("Option(cacheName) = %q, %v", v, ok)
	}
	if _, ok := repo.Option(OptionReadOnly); ok {
		t.Error("unset option reported present")
	}
}

func TestLoginLockLogout(t *testing.T) {
	repo := testRepository(t, 0)
	ctx := context.Background()

	s, err := repo.Login(ctx)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if repo.ActiveSessions() != 1 {
		t.Errorf("ActiveSessions = %d", repo.ActiveSessions())
	}

	lock, err := s.Lock(ctx, "/content/a")
	if err != nil {
		t.Fatalf("Lock failed: %v", err)
	}
	if repo.HeldLocks() != 1 {
		t.Errorf("HeldLocks = %d", repo.HeldLocks())
	}

	if err := s.RefreshLock(ctx, lock.ID); err != nil {
		t.Errorf("RefreshLock failed: %v", err)
	}

	s.Logout()
	if repo.ActiveSessions() != 0 || repo.HeldLocks() != 0 {
		t.Errorf("after Logout: sessions=%d locks=%d", repo.ActiveSessions(), repo.HeldLocks())
	}

	if _, err := s.Lock(ctx, "/content/b"); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("Lock after Logout err = %v, want ErrSessionClosed", err)
	}
}

func TestLockConflict(t *testing.T) {
	repo := testRepository(t, 0)
	ctx := context.Background()

	a, err := repo.Login(ctx)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	b, err := repo.Login(ctx)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if _, err := a.Lock(ctx, "/content/shared"); err != nil {
		t.Fatalf("first Lock failed: %v", err)
	}
	if _, err := b.Lock(ctx, "/content/shared"); !errors.Is(err, ErrLockConflict) {
		t.Errorf("conflicting Lock err = %v, want ErrLockConflict", err)
	}
}

func TestCleanUpLocksReclaimsExpired(t *testing.T) {
	repo := testRepository(t, 10*time.Millisecond)
	ctx := context.Background()

	s, err := repo.Login(ctx)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if _, err := s.Lock(ctx, "/content/a"); err != nil {
		t.Fatalf("Lock failed: %v", err)
	}

	time.Sleep(20 * time.Millisecond)

	reclaimed, err := repo.CleanUpLocks()
	if err != nil {
		t.Fatalf("CleanUpLocks failed: %v", err)
	}
	if reclaimed != 1 {
		t.Errorf("reclaimed = %d, want 1", reclaimed)
	}
	if repo.HeldLocks() != 0 {
		t.Errorf("HeldLocks = %d after sweep", repo.HeldLocks())
	}
}

func TestCleanUpLocksKeepsFreshLocks(t *testing.T) {
	repo := testRepository(t, time.Hour)
	ctx := context.Background()

	s, err := repo.Login(ctx)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if _, err := s.Lock(ctx, "/content/a"); err != nil {
		t.Fatalf("Lock failed: %v", err)
	}

	reclaimed, err := repo.CleanUpLocks()
	if err != nil {
		t.Fatalf("CleanUpLocks failed: %v", err)
	}
	if reclaimed != 0 || repo.HeldLocks() != 1 {
		t.Errorf("fresh lock swept: reclaimed=%d held=%d", reclaimed, repo.HeldLocks())
	}
}

func TestCloseTerminatesSessions(t *testing.T) {
	repo := testRepository(t, 0)
	ctx := context.Background()

	s, err := repo.Login(ctx)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if _, err := s.Lock(ctx, "/content/a"); err != nil {
		t.Fatalf("Lock failed: %v", err)
	}

	if err := repo.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if s.Active() {
		t.Error("session still active after repository Close")
	}
	if _, err := repo.Login(ctx); !errors.Is(err, ErrRepositoryClosed) {
		t.Errorf("Login after Close err = %v, want ErrRepositoryClosed", err)
	}
	if _, err := repo.CleanUpLocks(); !errors.Is(err, ErrRepositoryClosed) {
		t.Errorf("CleanUpLocks after Close err = %v, want ErrRepositoryClosed", err)
	}

	// Idempotent.
	if err := repo.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}

func TestConnect(t *testing.T) {
	repo := testRepository(t, 0)
	ctx := context.Background()

	conn, err := repo.Connect(ctx)
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if conn.SourceName() != "testSource" {
		t.Errorf("SourceName = %q", conn.SourceName())
	}
}

func TestFindOption(t *testing.T) {
	if key, ok := FindOption("CacheName"); !ok || key != OptionCacheName {
		t.Errorf("FindOption(CacheName) = %q, %v", key, ok)
	}
	if _, ok := FindOption("unknownFlag"); ok {
		t.Error("unknown option name recognized")
	}
}
