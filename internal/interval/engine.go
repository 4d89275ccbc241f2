// Package interval plans rewrites of recorded session history. Given a
// half-open target window it decides, per overlapped session, whether
// the row is deleted, trimmed, or split, so that applying the plan
// leaves no session covering the window. Planning is pure; the ledger
// applies plans inside a single store transaction.
package interval

import (
	"errors"
	"fmt"
	"time"

	"github.com/da11an/tatl-sub000/internal/models"
)

// ErrNoOverlap reports a removal window that touches no session.
var ErrNoOverlap = errors.New("no session overlaps the window")

// Op classifies how one session is rewritten.
type Op string

const (
	OpDelete    Op = "delete"
	OpTrimFront Op = "trim_front"
	OpTrimBack  Op = "trim_back"
	OpSplit     Op = "split"
)

// Edit is the planned rewrite of a single session. Replacements holds
// the surviving pieces in time order: none for a delete, one for a
// trim, two for a split. The first replacement reuses the original row;
// any further piece is a new row (ID zero). A split of an open session
// keeps the back piece open.
type Edit struct {
	Session      models.Session
	Op           Op
	Replacements []models.Session
}

// PlanRemove plans the removal of the window [t0, t1) from every
// overlapping session. Open sessions have an unbounded effective end.
// A zero-width window (t0 == t1) is a pure split point and matches
// only sessions strictly containing the instant. Returns ErrNoOverlap
// when nothing matches.
func PlanRemove(sessions []models.Session, t0, t1 time.Time) ([]Edit, error) {
	if t1.Before(t0) {
		return nil, fmt.Errorf("window end %s before start %s", t1.Format(time.RFC3339), t0.Format(time.RFC3339))
	}

	var edits []Edit
	for _, s := range sessions {
		if !overlaps(s, t0, t1) {
			continue
		}
		edits = append(edits, planOne(s, t0, t1))
	}
	if len(edits) == 0 {
		return nil, ErrNoOverlap
	}
	return edits, nil
}

func overlaps(s models.Session, t0, t1 time.Time) bool {
	if t0.Equal(t1) {
		// A split point divides only a session it falls strictly inside.
		return s.Start.Before(t0) && endsAfter(s, t0)
	}
	return s.Start.Before(t1) && endsAfter(s, t0)
}

// endsAfter reports whether the session's effective end is after t.
func endsAfter(s models.Session, t time.Time) bool {
	return s.End == nil || s.End.After(t)
}

// planOne picks exactly one rewrite for an overlapping session. The
// four cases are exhaustive and mutually exclusive: the window covers
// the whole session, its start only, its end only, or a strict
// interior slice. An open session is never fully covered, so it is
// never deleted.
func planOne(s models.Session, t0, t1 time.Time) Edit {
	coversStart := !t0.After(s.Start)
	coversEnd := s.End != nil && !s.End.After(t1)

	switch {
	case coversStart && coversEnd:
		return Edit{Session: s, Op: OpDelete}

	case coversStart:
		trimmed := s
		trimmed.Start = t1
		return Edit{Session: s, Op: OpTrimFront, Replacements: []models.Session{trimmed}}

	case coversEnd:
		trimmed := s
		end := t0
		trimmed.End = &end
		return Edit{Session: s, Op: OpTrimBack, Replacements: []models.Session{trimmed}}

	default:
		front := s
		frontEnd := t0
		front.End = &frontEnd
		back := s
		back.ID = 0
		back.Start = t1
		return Edit{Session: s, Op: OpSplit, Replacements: []models.Session{front, back}}
	}
}
