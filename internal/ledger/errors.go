package ledger

import (
	"errors"
	"fmt"

	"github.com/da11an/tatl-sub000/internal/interval"
)

// Sentinel errors for ledger operations.
var (
	ErrTaskNotFound         = errors.New("task not found")
	ErrNoOpenSession        = errors.New("no session is running")
	ErrConfirmationRequired = errors.New("confirmation required: recorded sessions would be rewritten")
	ErrAlreadyQueued        = errors.New("task is already queued")
	ErrNotQueued            = errors.New("task is not queued")
	ErrAlreadyExternal      = errors.New("task is already waiting externally")
	ErrNotExternal          = errors.New("task is not waiting externally")
	ErrTerminalLifecycle    = errors.New("task lifecycle is terminal")
	ErrActiveTask           = errors.New("task has the running clock")
)

// ErrNoOverlap is the interval package's sentinel, re-exported so
// callers only ever import this package.
var ErrNoOverlap = interval.ErrNoOverlap

// ValidationError reports malformed input: an inverted window, a bad
// recurrence rule, an empty description. Never retried automatically.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid input: " + e.Reason
}

// InvariantError reports an operation rejected because committing it
// would leave the stored facts in a combination the classifier cannot
// interpret. The store is untouched when one is returned.
type InvariantError struct {
	Rule   string
	TaskID int64
	Detail string
}

func (e *InvariantError) Error() string {
	msg := "invariant violated: " + e.Rule
	if e.TaskID != 0 {
		msg += fmt.Sprintf(" (task %d)", e.TaskID)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}
