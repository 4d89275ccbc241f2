package interval

import (
	"fmt"
	"time"

	"github.com/da11an/tatl-sub000/internal/models"
)

// CloseOp classifies what happened to a session at close time.
type CloseOp string

const (
	// CloseRecorded keeps the session, now with an end.
	CloseRecorded CloseOp = "recorded"
	// CloseMerged folded a too-short session into the same-task session
	// ending exactly where it started.
	CloseMerged CloseOp = "merged"
	// CloseDiscarded dropped a too-short session with no adjacent
	// session to absorb it.
	CloseDiscarded CloseOp = "discarded"
)

// Close is the planned end of an open session.
type Close struct {
	Op       CloseOp
	Duration time.Duration
	// Closed is the open session with its end set (CloseRecorded).
	Closed *models.Session
	// MergedInto is the adjacent session with its end extended
	// (CloseMerged). The open row is dropped.
	MergedInto *models.Session
}

// PlanClose decides how the open session ends at the given instant.
// Sessions shorter than threshold are merged into an immediately
// adjacent same-task session when one exists, otherwise discarded, so
// accidental clock toggles never pollute the record. The rule runs
// once, here, never retroactively.
func PlanClose(open models.Session, siblings []models.Session, at time.Time, threshold time.Duration) (*Close, error) {
	if open.End != nil {
		return nil, fmt.Errorf("session %d is already closed", open.ID)
	}
	if at.Before(open.Start) {
		return nil, fmt.Errorf("close time %s before session start %s",
			at.Format(time.RFC3339), open.Start.Format(time.RFC3339))
	}

	d := at.Sub(open.Start)
	if d >= threshold {
		closed := open
		end := at
		closed.End = &end
		return &Close{Op: CloseRecorded, Duration: d, Closed: &closed}, nil
	}

	for _, sib := range siblings {
		if sib.ID == open.ID || sib.TaskID != open.TaskID || sib.End == nil {
			continue
		}
		if sib.End.Equal(open.Start) {
			merged := sib
			end := at
			merged.End = &end
			return &Close{Op: CloseMerged, Duration: d, MergedInto: &merged}, nil
		}
	}
	return &Close{Op: CloseDiscarded, Duration: d}, nil
}
