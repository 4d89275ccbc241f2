// Package models defines the core domain types for tatl.
package models

import "time"

// Lifecycle is the explicit lifecycle state of a task. Completed and
// cancelled are terminal: no further mutation of lifecycle, sessions,
// or queue membership is permitted.
type Lifecycle string

const (
	LifecycleOpen      Lifecycle = "open"
	LifecycleCompleted Lifecycle = "completed"
	LifecycleCancelled Lifecycle = "cancelled"
)

// Valid reports whether the lifecycle is a known value.
func (l Lifecycle) Valid() bool {
	switch l {
	case LifecycleOpen, LifecycleCompleted, LifecycleCancelled:
		return true
	default:
		return false
	}
}

// Terminal reports whether the lifecycle permits no further mutation.
func (l Lifecycle) Terminal() bool {
	return l == LifecycleCompleted || l == LifecycleCancelled
}

// Task is a unit of work in the ledger.
type Task struct {
	ID          int64         `json:"id" yaml:"id"`
	UUID        string        `json:"uuid" yaml:"uuid"`
	Description string        `json:"description" yaml:"description"`
	Project     string        `json:"project,omitempty" yaml:"project,omitempty"`
	Tags        []string      `json:"tags,omitempty" yaml:"tags,omitempty"`
	Lifecycle   Lifecycle     `json:"lifecycle" yaml:"lifecycle"`
	Due         *time.Time    `json:"due,omitempty" yaml:"due,omitempty"`
	Scheduled   *time.Time    `json:"scheduled,omitempty" yaml:"scheduled,omitempty"`
	Wait        *time.Time    `json:"wait,omitempty" yaml:"wait,omitempty"`
	Alloc       time.Duration `json:"alloc,omitempty" yaml:"alloc,omitempty"`
	Recurrence  string        `json:"recurrence,omitempty" yaml:"recurrence,omitempty"`
	CreatedAt   time.Time     `json:"created_at" yaml:"created_at"`
	ModifiedAt  time.Time     `json:"modified_at" yaml:"modified_at"`
}

// Session is a contiguous interval of time spent on exactly one task.
// A nil End means the session is still running; at most one session
// system-wide may be running at a time.
type Session struct {
	ID     int64      `json:"id" yaml:"id"`
	TaskID int64      `json:"task_id" yaml:"task_id"`
	Start  time.Time  `json:"start" yaml:"start"`
	End    *time.Time `json:"end,omitempty" yaml:"end,omitempty"`
}

// Open reports whether the session has no end yet.
func (s Session) Open() bool { return s.End == nil }

// Duration returns the session length. Open sessions are measured up
// to now.
func (s Session) Duration(now time.Time) time.Duration {
	if s.End != nil {
		return s.End.Sub(s.Start)
	}
	return now.Sub(s.Start)
}

// ExternalWait records that a task has been handed off and is awaiting
// return. A task is external-waiting while CollectedAt is nil.
type ExternalWait struct {
	TaskID      int64      `json:"task_id" yaml:"task_id"`
	SentAt      time.Time  `json:"sent_at" yaml:"sent_at"`
	CollectedAt *time.Time `json:"collected_at,omitempty" yaml:"collected_at,omitempty"`
}

// Waiting reports whether the hand-off is still outstanding.
func (w ExternalWait) Waiting() bool { return w.CollectedAt == nil }

// JournalEntry is one row of the append-only mutation journal.
type JournalEntry struct {
	ID         int64     `json:"id" yaml:"id"`
	Op         string    `json:"op" yaml:"op"`
	TaskID     int64     `json:"task_id,omitempty" yaml:"task_id,omitempty"`
	Detail     string    `json:"detail,omitempty" yaml:"detail,omitempty"`
	InputsHash string    `json:"inputs_hash,omitempty" yaml:"inputs_hash,omitempty"`
	At         time.Time `json:"at" yaml:"at"`
}
