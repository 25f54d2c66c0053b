// Package engine implements the repository lifecycle core: a registry of
// lazily constructed repository instances resolved from a configuration
// graph, plus the periodic lock maintenance that keeps those instances
// healthy.
package engine

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lodestone-io/lodestone/internal/logger"
	"github.com/lodestone-io/lodestone/internal/telemetry"
	"github.com/lodestone-io/lodestone/pkg/graph"
	"github.com/lodestone-io/lodestone/pkg/repository"
	"github.com/lodestone-io/lodestone/pkg/source"
)

// State is the engine lifecycle state.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateDraining
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Options tunes engine behavior. The zero value uses defaults.
type Options struct {
	// SweepPeriod is the interval between lock maintenance cycles.
	// Defaults to DefaultSweepPeriod.
	SweepPeriod time.Duration

	// LockExtensionWindow is how long a session lock stays valid after
	// its last refresh. Defaults to repository.DefaultLockExtensionWindow.
	LockExtensionWindow time.Duration

	// Metrics receives lifecycle events; nil disables collection.
	Metrics Metrics
}

// Engine owns the repository registry and its maintenance. Repositories
// are constructed lazily on first request, cached by name, and closed
// together on shutdown. An engine runs at most once; after Shutdown it is
// terminal.
type Engine struct {
	resolver *Resolver
	factory  *Factory
	sources  *source.Registry
	metrics  Metrics
	sweeper  *sweeper

	mu           sync.Mutex
	state        State
	repositories map[string]*repository.Repository

	// doneCh closes once Shutdown has finished closing repositories.
	doneCh chan struct{}
}

// New builds an engine over the given configuration graph and source
// registry. The engine does nothing until Start.
func New(accessor graph.Accessor, sources *source.Registry, opts Options) *Engine {
	e := &Engine{
		resolver:     NewResolver(accessor),
		factory:      NewFactory(sources, opts.LockExtensionWindow),
		sources:      sources,
		metrics:      opts.Metrics,
		repositories: make(map[string]*repository.Repository),
		doneCh:       make(chan struct{}),
	}
	e.sweeper = newSweeper(opts.SweepPeriod, e.snapshotRepositories, opts.Metrics)
	return e
}

// Start transitions the engine to running and launches lock maintenance.
// Starting a running engine returns ErrAlreadyStarted; a shut-down engine
// never restarts and returns ErrShutDown.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case StateIdle:
	case StateRunning:
		return ErrAlreadyStarted
	default:
		return ErrShutDown
	}

	e.state = StateRunning
	e.sweeper.Start()
	logger.Info("engine started", logger.KeyState, e.state.String())
	return nil
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// GetRepository returns the named repository, constructing it on first
// request. Concurrent callers asking for the same name all receive the
// identical instance; a failed construction leaves the registry unchanged
// so a later call can retry against an updated configuration.
func (e *Engine) GetRepository(ctx context.Context, name string) (*repository.Repository, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrInvalidName
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateRunning {
		return nil, ErrNotRunning
	}

	if repo, ok := e.repositories[name]; ok {
		return repo, nil
	}

	ctx, span := telemetry.StartEngineSpan(ctx, "construct", name)
	defer span.End()

	res, err := e.resolver.Resolve(ctx, name)
	if err != nil {
		telemetry.RecordError(ctx, err)
		e.recordFailure(err)
		return nil, err
	}

	repo, err := e.factory.Create(ctx, res)
	if err != nil {
		telemetry.RecordError(ctx, err)
		e.recordFailure(err)
		return nil, err
	}

	e.repositories[name] = repo
	telemetry.SetAttributes(ctx, telemetry.Source(repo.SourceName()))
	if e.metrics != nil {
		e.metrics.RecordConstruction()
		e.metrics.SetLiveRepositories(len(e.repositories))
	}
	logger.Info("repository constructed",
		logger.Repository(name),
		logger.Source(repo.SourceName()))
	return repo, nil
}

// GetRepositoryNames lists the repository names currently configured in
// the graph, sorted. The list reflects configuration, not construction:
// a name appears whether or not its instance has been built.
func (e *Engine) GetRepositoryNames(ctx context.Context) ([]string, error) {
	e.mu.Lock()
	running := e.state == StateRunning
	e.mu.Unlock()
	if !running {
		return nil, ErrNotRunning
	}

	names, err := e.resolver.Names(ctx)
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// LiveRepositories returns the names of repositories that have been
// constructed, sorted.
func (e *Engine) LiveRepositories() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	names := make([]string, 0, len(e.repositories))
	for name := range e.repositories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolveDescriptor resolves the named repository's configuration without
// constructing or caching an instance. Inspection tooling uses this to
// look at options, descriptors and the source binding of repositories
// that have not been requested yet.
func (e *Engine) ResolveDescriptor(ctx context.Context, name string) (*repository.Descriptor, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrInvalidName
	}

	e.mu.Lock()
	running := e.state == StateRunning
	e.mu.Unlock()
	if !running {
		return nil, ErrNotRunning
	}

	res, err := e.resolver.Resolve(ctx, name)
	if err != nil {
		return nil, err
	}
	return res.Descriptor, nil
}

// Shutdown stops lock maintenance, closes every live repository and
// empties the registry. The engine is terminal afterwards. Shutdown is
// idempotent; calls after the first return nil immediately.
func (e *Engine) Shutdown() error {
	e.mu.Lock()
	switch e.state {
	case StateDraining, StateStopped:
		e.mu.Unlock()
		return nil
	}
	e.state = StateDraining
	e.mu.Unlock()

	logger.Info("engine draining")
	e.sweeper.Stop()

	e.mu.Lock()
	repos := make([]*repository.Repository, 0, len(e.repositories))
	for _, repo := range e.repositories {
		repos = append(repos, repo)
	}
	e.repositories = make(map[string]*repository.Repository)
	e.mu.Unlock()

	var errs []error
	for _, repo := range repos {
		if err := repo.Close(); err != nil {
			logger.Error("failed to close repository",
				logger.Repository(repo.Name()), logger.Err(err))
			errs = append(errs, err)
		}
	}
	if e.metrics != nil {
		e.metrics.SetLiveRepositories(0)
	}

	e.mu.Lock()
	e.state = StateStopped
	e.mu.Unlock()
	close(e.doneCh)

	logger.Info("engine stopped", logger.Count(len(repos)))
	return errors.Join(errs...)
}

// AwaitTermination blocks until shutdown has fully completed: first the
// maintenance loop exits, then the registry finishes closing. Returns
// true when both happened within the timeout, false otherwise. The
// timeout spans both waits.
func (e *Engine) AwaitTermination(timeout time.Duration) bool {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	if e.sweeper.Started() {
		select {
		case <-e.sweeper.Done():
		case <-deadline.C:
			return false
		}
	}

	select {
	case <-e.doneCh:
		return true
	case <-deadline.C:
		return false
	}
}

// snapshotRepositories copies the live registry for the sweeper, so a
// maintenance cycle runs without holding the registry lock.
func (e *Engine) snapshotRepositories() []maintainable {
	e.mu.Lock()
	defer e.mu.Unlock()

	repos := make([]maintainable, 0, len(e.repositories))
	for _, repo := range e.repositories {
		repos = append(repos, repo)
	}
	return repos
}

func (e *Engine) recordFailure(err error) {
	if e.metrics == nil {
		return
	}

	var cfgErr *ConfigurationError
	var conErr *ConstructionError
	switch {
	case errors.Is(err, ErrNotFound):
		e.metrics.RecordConstructionFailure(failureReasonNotFound)
	case errors.As(err, &cfgErr):
		e.metrics.RecordConstructionFailure(failureReasonConfiguration)
	case errors.As(err, &conErr):
		e.metrics.RecordConstructionFailure(failureReasonConstruction)
	}
}
