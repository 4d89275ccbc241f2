package ledger

import (
	"fmt"
	"time"

	"github.com/da11an/tatl-sub000/internal/interval"
	"github.com/da11an/tatl-sub000/internal/models"
)

// EffectKind labels one automatic side effect of a ledger operation.
type EffectKind string

const (
	// EffectSessionClosed reports a running session closed on the
	// caller's behalf, most often when the clock switches tasks.
	EffectSessionClosed EffectKind = "session_closed"
	// EffectSessionMerged reports a running session folded into the
	// adjacent session it continued.
	EffectSessionMerged EffectKind = "session_merged"
	// EffectSessionDiscarded reports a running session dropped for
	// being shorter than the micro-session threshold.
	EffectSessionDiscarded EffectKind = "session_discarded"
	// EffectEnqueuedHead reports a task inserted at the head of the
	// queue because its clock started.
	EffectEnqueuedHead EffectKind = "enqueued_at_head"
	// EffectMovedToHead reports a queued task promoted to the head of
	// the queue because its clock started.
	EffectMovedToHead EffectKind = "moved_to_head"
	// EffectDequeued reports a task removed from the queue.
	EffectDequeued EffectKind = "dequeued"
	// EffectExternalCollected reports an external wait closed out.
	EffectExternalCollected EffectKind = "external_collected"
	// EffectRespawned reports a recurring task spawning its next
	// occurrence.
	EffectRespawned EffectKind = "respawned"
)

// Effect is one side effect applied alongside the requested mutation.
// Operations never alter records silently; everything beyond the
// request itself comes back as an Effect.
type Effect struct {
	Kind      EffectKind
	TaskID    int64
	SessionID int64
	Duration  time.Duration
}

func (e Effect) String() string {
	switch e.Kind {
	case EffectSessionClosed:
		return fmt.Sprintf("closed session %d on task %d (%s)", e.SessionID, e.TaskID, e.Duration)
	case EffectSessionMerged:
		return fmt.Sprintf("merged running time into session %d on task %d", e.SessionID, e.TaskID)
	case EffectSessionDiscarded:
		return fmt.Sprintf("discarded %s micro-session on task %d", e.Duration, e.TaskID)
	case EffectEnqueuedHead:
		return fmt.Sprintf("enqueued task %d at the head of the queue", e.TaskID)
	case EffectMovedToHead:
		return fmt.Sprintf("moved task %d to the head of the queue", e.TaskID)
	case EffectDequeued:
		return fmt.Sprintf("removed task %d from the queue", e.TaskID)
	case EffectExternalCollected:
		return fmt.Sprintf("collected the external wait on task %d", e.TaskID)
	case EffectRespawned:
		return fmt.Sprintf("spawned task %d for the next occurrence", e.TaskID)
	default:
		return string(e.Kind)
	}
}

// OpCreate marks a session inserted whole, as opposed to a rewrite of
// an existing row.
const OpCreate interval.Op = "create"

// SessionChange describes one session rewritten or created by a
// history correction.
type SessionChange struct {
	Op        interval.Op
	SessionID int64
	TaskID    int64
	// Pieces holds the rows left behind, with their stored IDs. Empty
	// for a deletion.
	Pieces []models.Session
}

func (c SessionChange) String() string {
	switch c.Op {
	case interval.OpDelete:
		return fmt.Sprintf("deleted session %d (task %d)", c.SessionID, c.TaskID)
	case interval.OpTrimFront:
		return fmt.Sprintf("trimmed the front of session %d (task %d)", c.SessionID, c.TaskID)
	case interval.OpTrimBack:
		return fmt.Sprintf("trimmed the back of session %d (task %d)", c.SessionID, c.TaskID)
	case interval.OpSplit:
		return fmt.Sprintf("split session %d in two (task %d)", c.SessionID, c.TaskID)
	case OpCreate:
		return fmt.Sprintf("recorded session %d (task %d)", c.SessionID, c.TaskID)
	default:
		return string(c.Op)
	}
}

// ClockResult reports a session opened or closed.
type ClockResult struct {
	Task    *models.Task
	Session *models.Session
	// Outcome and Duration are set when a session was closed. Session
	// is the surviving row, nil when the time was discarded.
	Outcome  interval.CloseOp
	Duration time.Duration
	Effects  []Effect
}

// QueueResult reports the queue after a membership or order change.
type QueueResult struct {
	Queue   []int64
	Effects []Effect
}

// ExternalResult reports an external wait opened or collected.
type ExternalResult struct {
	Wait    *models.ExternalWait
	Effects []Effect
}

// HistoryResult reports the session rows rewritten by a correction.
type HistoryResult struct {
	Changes []SessionChange
}

// RespawnOutcome reports the follow-up task spawned when a recurring
// task reached a terminal lifecycle. A failed respawn never rolls the
// transition back; Reason says what went wrong instead.
type RespawnOutcome struct {
	Spawned *models.Task
	Reason  string
}

// TransitionResult reports a lifecycle transition and its cascade.
type TransitionResult struct {
	Task    *models.Task
	Effects []Effect
	// Respawn is nil when the task carries no recurrence rule.
	Respawn *RespawnOutcome
}

// DeleteResult reports everything removed along with a task.
type DeleteResult struct {
	Task            *models.Task
	SessionsRemoved int64
	Dequeued        bool
	ExternalCleared bool
}

// TaskView pairs a task with everything derived about it, for listing
// and board rendering.
type TaskView struct {
	Task  models.Task
	Stage models.Stage
	// Position is the queue position, -1 when the task is not queued.
	Position int
	// Open is the running session when this task holds the clock.
	Open *models.Session
	// Wait is the pending external wait, nil when none.
	Wait *models.ExternalWait
	// Logged is the total recorded time across closed sessions.
	Logged time.Duration
}
