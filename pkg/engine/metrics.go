package engine

// Metrics receives engine lifecycle and lock-maintenance events.
//
// The Prometheus implementation lives in pkg/metrics/prometheus. A nil
// Metrics disables collection with zero overhead; the engine guards every
// call site.
type Metrics interface {
	// RecordConstruction records one successful repository construction.
	RecordConstruction()

	// RecordConstructionFailure records a failed construction attempt.
	// Reason is one of "configuration", "construction" or "not_found".
	RecordConstructionFailure(reason string)

	// SetLiveRepositories records the current registry size.
	SetLiveRepositories(n int)

	// RecordSweepCycle records one completed maintenance cycle.
	RecordSweepCycle()

	// RecordSweepFailure records a per-repository sweep failure.
	RecordSweepFailure(repository string)

	// RecordLocksReclaimed records locks reclaimed during one sweep.
	RecordLocksReclaimed(repository string, n int)
}

const (
	failureReasonConfiguration = "configuration"
	failureReasonConstruction  = "construction"
	failureReasonNotFound      = "not_found"
)
