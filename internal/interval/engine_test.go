package interval

import (
	"errors"
	"testing"
	"time"

	"github.com/da11an/tatl-sub000/internal/models"
)

var day = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func at(h, m int) time.Time {
	return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func closed(id, taskID int64, start, end time.Time) models.Session {
	return models.Session{ID: id, TaskID: taskID, Start: start, End: &end}
}

func open(id, taskID int64, start time.Time) models.Session {
	return models.Session{ID: id, TaskID: taskID, Start: start}
}

func TestPlanRemoveSplit(t *testing.T) {
	// One workday session; a half-hour correction inside it.
	sessions := []models.Session{closed(1, 7, at(9, 0), at(17, 0))}

	edits, err := PlanRemove(sessions, at(14, 30), at(15, 0))
	if err != nil {
		t.Fatalf("PlanRemove() error = %v", err)
	}
	if len(edits) != 1 {
		t.Fatalf("expected 1 edit, got %d", len(edits))
	}

	e := edits[0]
	if e.Op != OpSplit {
		t.Fatalf("Op = %s, want split", e.Op)
	}
	if len(e.Replacements) != 2 {
		t.Fatalf("expected 2 replacement pieces, got %d", len(e.Replacements))
	}
	front, back := e.Replacements[0], e.Replacements[1]
	if !front.Start.Equal(at(9, 0)) || front.End == nil || !front.End.Equal(at(14, 30)) {
		t.Errorf("front piece = [%v, %v)", front.Start, front.End)
	}
	if !back.Start.Equal(at(15, 0)) || back.End == nil || !back.End.Equal(at(17, 0)) {
		t.Errorf("back piece = [%v, %v)", back.Start, back.End)
	}
	if front.TaskID != 7 || back.TaskID != 7 {
		t.Error("pieces must keep the session's task")
	}
	if back.ID != 0 {
		t.Errorf("back piece should be a new row, got id %d", back.ID)
	}
}

func TestPlanRemoveDeleteAndNeighbor(t *testing.T) {
	// Morning session fully covered, afternoon session starts exactly at
	// the window end and is untouched.
	sessions := []models.Session{
		closed(1, 7, at(9, 0), at(12, 0)),
		closed(2, 7, at(13, 0), at(17, 0)),
	}

	edits, err := PlanRemove(sessions, at(9, 0), at(13, 0))
	if err != nil {
		t.Fatalf("PlanRemove() error = %v", err)
	}
	if len(edits) != 1 {
		t.Fatalf("expected 1 edit, got %d", len(edits))
	}
	if edits[0].Session.ID != 1 || edits[0].Op != OpDelete {
		t.Errorf("edit = %s on session %d, want delete on 1", edits[0].Op, edits[0].Session.ID)
	}
	if len(edits[0].Replacements) != 0 {
		t.Errorf("delete should leave no pieces, got %d", len(edits[0].Replacements))
	}
}

func TestPlanRemoveTrims(t *testing.T) {
	tests := []struct {
		name      string
		t0, t1    time.Time
		wantOp    Op
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "window over the start trims the front",
			t0:        at(8, 0),
			t1:        at(10, 0),
			wantOp:    OpTrimFront,
			wantStart: at(10, 0),
			wantEnd:   at(17, 0),
		},
		{
			name:      "window over the end trims the back",
			t0:        at(16, 0),
			t1:        at(18, 0),
			wantOp:    OpTrimBack,
			wantStart: at(9, 0),
			wantEnd:   at(16, 0),
		},
		{
			name:      "window flush with the start trims the front",
			t0:        at(9, 0),
			t1:        at(10, 0),
			wantOp:    OpTrimFront,
			wantStart: at(10, 0),
			wantEnd:   at(17, 0),
		},
		{
			name:      "window flush with the end trims the back",
			t0:        at(16, 0),
			t1:        at(17, 0),
			wantOp:    OpTrimBack,
			wantStart: at(9, 0),
			wantEnd:   at(16, 0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sessions := []models.Session{closed(1, 7, at(9, 0), at(17, 0))}
			edits, err := PlanRemove(sessions, tt.t0, tt.t1)
			if err != nil {
				t.Fatalf("PlanRemove() error = %v", err)
			}
			if len(edits) != 1 || edits[0].Op != tt.wantOp {
				t.Fatalf("edits = %+v, want one %s", edits, tt.wantOp)
			}
			piece := edits[0].Replacements[0]
			if !piece.Start.Equal(tt.wantStart) || piece.End == nil || !piece.End.Equal(tt.wantEnd) {
				t.Errorf("piece = [%v, %v), want [%v, %v)", piece.Start, piece.End, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestPlanRemoveZeroWidth(t *testing.T) {
	sessions := []models.Session{closed(1, 7, at(9, 0), at(17, 0))}

	// A split point strictly inside divides the session with no time lost.
	edits, err := PlanRemove(sessions, at(12, 0), at(12, 0))
	if err != nil {
		t.Fatalf("PlanRemove() error = %v", err)
	}
	if len(edits) != 1 || edits[0].Op != OpSplit {
		t.Fatalf("edits = %+v, want one split", edits)
	}
	front, back := edits[0].Replacements[0], edits[0].Replacements[1]
	if front.End == nil || !front.End.Equal(at(12, 0)) || !back.Start.Equal(at(12, 0)) {
		t.Errorf("split pieces = [%v,%v) [%v,%v)", front.Start, front.End, back.Start, back.End)
	}

	// On a boundary the instant is not strictly contained.
	if _, err := PlanRemove(sessions, at(9, 0), at(9, 0)); !errors.Is(err, ErrNoOverlap) {
		t.Errorf("boundary split error = %v, want ErrNoOverlap", err)
	}
	if _, err := PlanRemove(sessions, at(17, 0), at(17, 0)); !errors.Is(err, ErrNoOverlap) {
		t.Errorf("end-boundary split error = %v, want ErrNoOverlap", err)
	}
}

func TestPlanRemoveOpenSession(t *testing.T) {
	running := []models.Session{open(1, 3, at(9, 0))}

	// Interior window splits: closed front, still-open back.
	edits, err := PlanRemove(running, at(10, 0), at(11, 0))
	if err != nil {
		t.Fatalf("PlanRemove() error = %v", err)
	}
	if len(edits) != 1 || edits[0].Op != OpSplit {
		t.Fatalf("edits = %+v, want one split", edits)
	}
	front, back := edits[0].Replacements[0], edits[0].Replacements[1]
	if front.End == nil || !front.End.Equal(at(10, 0)) {
		t.Errorf("front = [%v, %v), want closed at 10:00", front.Start, front.End)
	}
	if back.End != nil || !back.Start.Equal(at(11, 0)) {
		t.Errorf("back = [%v, %v), want open from 11:00", back.Start, back.End)
	}

	// Window over the start pushes the running start forward.
	edits, err = PlanRemove(running, at(8, 0), at(10, 0))
	if err != nil {
		t.Fatalf("PlanRemove() error = %v", err)
	}
	if len(edits) != 1 || edits[0].Op != OpTrimFront {
		t.Fatalf("edits = %+v, want one trim_front", edits)
	}
	piece := edits[0].Replacements[0]
	if piece.End != nil || !piece.Start.Equal(at(10, 0)) {
		t.Errorf("piece = [%v, %v), want open from 10:00", piece.Start, piece.End)
	}

	// An open session reaches any later window, and the clock keeps
	// running past it: the back piece stays open.
	edits, err = PlanRemove(running, at(20, 0), at(21, 0))
	if err != nil {
		t.Fatalf("PlanRemove() error = %v", err)
	}
	if len(edits) != 1 || edits[0].Op != OpSplit {
		t.Fatalf("edits = %+v, want one split", edits)
	}
	front, back = edits[0].Replacements[0], edits[0].Replacements[1]
	if front.End == nil || !front.End.Equal(at(20, 0)) {
		t.Errorf("front = [%v, %v), want closed at 20:00", front.Start, front.End)
	}
	if back.End != nil || !back.Start.Equal(at(21, 0)) {
		t.Errorf("back = [%v, %v), want open from 21:00", back.Start, back.End)
	}
}

func TestPlanRemoveAcrossTasks(t *testing.T) {
	sessions := []models.Session{
		closed(1, 7, at(9, 0), at(12, 0)),
		closed(2, 9, at(11, 0), at(14, 0)),
		closed(3, 9, at(15, 0), at(16, 0)),
	}

	edits, err := PlanRemove(sessions, at(10, 0), at(13, 0))
	if err != nil {
		t.Fatalf("PlanRemove() error = %v", err)
	}
	if len(edits) != 2 {
		t.Fatalf("expected 2 edits, got %d", len(edits))
	}
	if edits[0].Session.ID != 1 || edits[0].Op != OpTrimBack {
		t.Errorf("edit[0] = %s on %d, want trim_back on 1", edits[0].Op, edits[0].Session.ID)
	}
	if edits[1].Session.ID != 2 || edits[1].Op != OpTrimFront {
		t.Errorf("edit[1] = %s on %d, want trim_front on 2", edits[1].Op, edits[1].Session.ID)
	}
}

func TestPlanRemoveNoOverlap(t *testing.T) {
	sessions := []models.Session{closed(1, 7, at(9, 0), at(17, 0))}

	_, err := PlanRemove(sessions, at(18, 0), at(19, 0))
	if !errors.Is(err, ErrNoOverlap) {
		t.Errorf("PlanRemove() error = %v, want ErrNoOverlap", err)
	}

	// Adjacent windows share only a boundary instant.
	_, err = PlanRemove(sessions, at(17, 0), at(18, 0))
	if !errors.Is(err, ErrNoOverlap) {
		t.Errorf("flush-after window error = %v, want ErrNoOverlap", err)
	}
	_, err = PlanRemove(sessions, at(8, 0), at(9, 0))
	if !errors.Is(err, ErrNoOverlap) {
		t.Errorf("flush-before window error = %v, want ErrNoOverlap", err)
	}
}

func TestPlanRemoveBadWindow(t *testing.T) {
	sessions := []models.Session{closed(1, 7, at(9, 0), at(17, 0))}
	_, err := PlanRemove(sessions, at(15, 0), at(14, 0))
	if err == nil || errors.Is(err, ErrNoOverlap) {
		t.Errorf("inverted window error = %v, want a plain error", err)
	}
}

// TestPlanRemoveCoverage sweeps session/window pairs on an hour grid
// and checks that the surviving pieces cover exactly the session minus
// the window, probing at half-hour points so no probe sits on a bound.
func TestPlanRemoveCoverage(t *testing.T) {
	const horizon = 8

	inPieces := func(pieces []models.Session, p time.Time) bool {
		for _, piece := range pieces {
			if !piece.Start.After(p) && endsAfter(piece, p) {
				return true
			}
		}
		return false
	}

	for a := 0; a < horizon; a++ {
		for b := a + 1; b <= horizon; b++ {
			for t0 := 0; t0 <= horizon; t0++ {
				for t1 := t0; t1 <= horizon; t1++ {
					sess := closed(1, 7, at(a, 0), at(b, 0))
					edits, err := PlanRemove([]models.Session{sess}, at(t0, 0), at(t1, 0))

					var pieces []models.Session
					switch {
					case errors.Is(err, ErrNoOverlap):
						pieces = []models.Session{sess}
					case err != nil:
						t.Fatalf("session [%d,%d) window [%d,%d): %v", a, b, t0, t1, err)
					default:
						pieces = edits[0].Replacements
					}

					for _, piece := range pieces {
						if piece.End != nil && !piece.Start.Before(*piece.End) {
							t.Fatalf("session [%d,%d) window [%d,%d): invalid piece [%v,%v)",
								a, b, t0, t1, piece.Start, piece.End)
						}
					}

					for h := 0; h < horizon; h++ {
						p := at(h, 30)
						inSession := !sess.Start.After(p) && endsAfter(sess, p)
						inWindow := t0 != t1 && !at(t0, 0).After(p) && at(t1, 0).After(p)
						want := inSession && !inWindow
						if got := inPieces(pieces, p); got != want {
							t.Fatalf("session [%d,%d) window [%d,%d) probe %d:30: covered=%v want %v",
								a, b, t0, t1, h, got, want)
						}
					}
				}
			}
		}
	}
}
