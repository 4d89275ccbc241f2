package models

// Stage is the derived workflow label for a task. It is computed on
// demand from stored facts and never persisted.
type Stage string

const (
	StageProposed  Stage = "proposed"
	StageQueued    Stage = "queued"
	StageStalled   Stage = "stalled"
	StageActive    Stage = "active"
	StageExternal  Stage = "external"
	StageCompleted Stage = "completed"
	StageCancelled Stage = "cancelled"
)

// Facts are the independently mutable stored facts a stage is derived
// from. They are assembled by the ledger from the store; nothing here
// is computed.
type Facts struct {
	Lifecycle       Lifecycle
	Queued          bool
	QueuedAtHead    bool
	HasOpenSession  bool
	ExternalWaiting bool
	HasSessions     bool
}

// Classify derives the workflow stage from stored facts. It is total
// and pure: every combination of facts yields exactly one stage, by
// strict precedence (first match wins).
func Classify(f Facts) Stage {
	switch {
	case f.Lifecycle == LifecycleCancelled:
		return StageCancelled
	case f.Lifecycle == LifecycleCompleted:
		return StageCompleted
	case f.ExternalWaiting && !f.HasOpenSession:
		return StageExternal
	case f.HasOpenSession:
		return StageActive
	case f.Queued:
		return StageQueued
	case f.HasSessions:
		return StageStalled
	default:
		return StageProposed
	}
}
