package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/da11an/tatl-sub000/internal/interval"
	"github.com/da11an/tatl-sub000/internal/models"
)

func at(h, m int) time.Time {
	return time.Date(2026, 3, 2, h, m, 0, 0, time.UTC)
}

// mustInsert records a closed session through the public correction
// path, which needs no confirmation in empty space.
func mustInsert(t *testing.T, svc *Service, taskID int64, from, to time.Time) {
	t.Helper()
	if _, err := svc.InsertInterval(taskID, from, to, false); err != nil {
		t.Fatalf("insert [%s, %s): %v", from, to, err)
	}
}

func TestInsertIntervalEmptySpaceNeedsNoConfirmation(t *testing.T) {
	svc, _ := newTestService(t)
	task := mustCreate(t, svc, "yesterday's work")

	res, err := svc.InsertInterval(task.ID, at(9, 0), at(11, 0), false)
	if err != nil {
		t.Fatalf("InsertInterval: %v", err)
	}
	if len(res.Changes) != 1 || res.Changes[0].Op != OpCreate {
		t.Fatalf("changes = %+v, want one create", res.Changes)
	}
	sessions, _ := svc.Sessions(task.ID)
	if len(sessions) != 1 || !sessions[0].Start.Equal(at(9, 0)) || !sessions[0].End.Equal(at(11, 0)) {
		t.Errorf("sessions = %+v", sessions)
	}
	mustStage(t, svc, task.ID, models.StageStalled)
}

func TestRemoveIntervalSplitsAroundLunch(t *testing.T) {
	svc, _ := newTestService(t)
	task := mustCreate(t, svc, "long day")
	mustInsert(t, svc, task.ID, at(9, 0), at(17, 0))

	// Without confirmation: the plan comes back, nothing changes.
	res, err := svc.RemoveInterval(at(12, 0), at(12, 30), false)
	if !errors.Is(err, ErrConfirmationRequired) {
		t.Fatalf("err = %v, want ErrConfirmationRequired", err)
	}
	if len(res.Changes) != 1 || res.Changes[0].Op != interval.OpSplit {
		t.Fatalf("planned changes = %+v, want one split", res.Changes)
	}
	sessions, _ := svc.Sessions(task.ID)
	if len(sessions) != 1 {
		t.Fatalf("dry run altered the store: %+v", sessions)
	}

	// With confirmation: the session splits around the window.
	res, err = svc.RemoveInterval(at(12, 0), at(12, 30), true)
	if err != nil {
		t.Fatalf("RemoveInterval: %v", err)
	}
	if len(res.Changes) != 1 || len(res.Changes[0].Pieces) != 2 {
		t.Fatalf("changes = %+v, want one split into two pieces", res.Changes)
	}
	sessions, _ = svc.Sessions(task.ID)
	if len(sessions) != 2 {
		t.Fatalf("sessions = %+v, want two", sessions)
	}
	if !sessions[0].End.Equal(at(12, 0)) || !sessions[1].Start.Equal(at(12, 30)) {
		t.Errorf("pieces [%s] and [%s], want gap over lunch",
			sessions[0].End, sessions[1].Start)
	}
}

func TestInsertIntervalOverExistingNeedsConfirmation(t *testing.T) {
	svc, _ := newTestService(t)
	a := mustCreate(t, svc, "logged wrong")
	b := mustCreate(t, svc, "actually this")
	mustInsert(t, svc, a.ID, at(13, 30), at(14, 0))

	// The covered session would be deleted, so a token is required.
	res, err := svc.InsertInterval(b.ID, at(13, 0), at(15, 0), false)
	if !errors.Is(err, ErrConfirmationRequired) {
		t.Fatalf("err = %v, want ErrConfirmationRequired", err)
	}
	var ops []interval.Op
	for _, c := range res.Changes {
		ops = append(ops, c.Op)
	}
	if len(ops) != 2 || ops[0] != interval.OpDelete || ops[1] != OpCreate {
		t.Fatalf("planned ops = %v, want [delete create]", ops)
	}

	res, err = svc.InsertInterval(b.ID, at(13, 0), at(15, 0), true)
	if err != nil {
		t.Fatalf("InsertInterval: %v", err)
	}
	if len(res.Changes) != 2 {
		t.Fatalf("changes = %+v", res.Changes)
	}
	if got, _ := svc.Sessions(a.ID); len(got) != 0 {
		t.Errorf("task a sessions = %+v, want none", got)
	}
	got, _ := svc.Sessions(b.ID)
	if len(got) != 1 || !got[0].Start.Equal(at(13, 0)) || !got[0].End.Equal(at(15, 0)) {
		t.Errorf("task b sessions = %+v", got)
	}
}

func TestInsertThenRemoveLeavesNoResidue(t *testing.T) {
	svc, _ := newTestService(t)
	edge := mustCreate(t, svc, "runs into the window")
	inside := mustCreate(t, svc, "inside the window")
	outside := mustCreate(t, svc, "outside the window")
	scratch := mustCreate(t, svc, "replacement work")

	mustInsert(t, svc, edge.ID, at(9, 0), at(13, 0))
	mustInsert(t, svc, inside.ID, at(14, 0), at(14, 30))
	mustInsert(t, svc, outside.ID, at(16, 0), at(17, 0))

	if _, err := svc.InsertInterval(scratch.ID, at(12, 0), at(15, 0), true); err != nil {
		t.Fatalf("InsertInterval: %v", err)
	}
	if _, err := svc.RemoveInterval(at(12, 0), at(15, 0), true); err != nil {
		t.Fatalf("RemoveInterval: %v", err)
	}

	// The inserted session leaves no trace; outside the window every
	// record reads as it did before the insert.
	if got, _ := svc.Sessions(scratch.ID); len(got) != 0 {
		t.Errorf("scratch sessions = %+v, want none", got)
	}
	got, _ := svc.Sessions(edge.ID)
	if len(got) != 1 || !got[0].Start.Equal(at(9, 0)) || !got[0].End.Equal(at(12, 0)) {
		t.Errorf("edge sessions = %+v, want trimmed at the window", got)
	}
	if got, _ := svc.Sessions(inside.ID); len(got) != 0 {
		t.Errorf("inside sessions = %+v, want none", got)
	}
	got, _ = svc.Sessions(outside.ID)
	if len(got) != 1 || !got[0].Start.Equal(at(16, 0)) || !got[0].End.Equal(at(17, 0)) {
		t.Errorf("outside sessions = %+v, want untouched", got)
	}
}

func TestRemoveIntervalZeroWidthSplits(t *testing.T) {
	svc, _ := newTestService(t)
	task := mustCreate(t, svc, "split me")
	mustInsert(t, svc, task.ID, at(9, 0), at(12, 0))

	res, err := svc.RemoveInterval(at(10, 0), at(10, 0), true)
	if err != nil {
		t.Fatalf("RemoveInterval: %v", err)
	}
	if len(res.Changes) != 1 || res.Changes[0].Op != interval.OpSplit {
		t.Fatalf("changes = %+v, want one split", res.Changes)
	}
	sessions, _ := svc.Sessions(task.ID)
	if len(sessions) != 2 {
		t.Fatalf("sessions = %+v, want two", sessions)
	}
	if !sessions[0].End.Equal(at(10, 0)) || !sessions[1].Start.Equal(at(10, 0)) {
		t.Errorf("split not at 10:00: %+v", sessions)
	}

	// At a session boundary the instant is inside nothing.
	if _, err := svc.RemoveInterval(at(9, 0), at(9, 0), true); !errors.Is(err, ErrNoOverlap) {
		t.Errorf("boundary split = %v, want ErrNoOverlap", err)
	}
}

func TestRemoveIntervalNoOverlap(t *testing.T) {
	svc, _ := newTestService(t)
	task := mustCreate(t, svc, "quiet day")
	mustInsert(t, svc, task.ID, at(9, 0), at(10, 0))

	if _, err := svc.RemoveInterval(at(11, 0), at(12, 0), true); !errors.Is(err, ErrNoOverlap) {
		t.Errorf("err = %v, want ErrNoOverlap", err)
	}
}

func TestRemoveIntervalAcrossTasks(t *testing.T) {
	svc, _ := newTestService(t)
	a := mustCreate(t, svc, "morning")
	b := mustCreate(t, svc, "afternoon")
	mustInsert(t, svc, a.ID, at(9, 0), at(11, 0))
	mustInsert(t, svc, b.ID, at(11, 0), at(13, 0))

	res, err := svc.RemoveInterval(at(10, 30), at(11, 30), true)
	if err != nil {
		t.Fatalf("RemoveInterval: %v", err)
	}
	if len(res.Changes) != 2 {
		t.Fatalf("changes = %+v, want two", res.Changes)
	}
	got, _ := svc.Sessions(a.ID)
	if len(got) != 1 || !got[0].End.Equal(at(10, 30)) {
		t.Errorf("task a sessions = %+v", got)
	}
	got, _ = svc.Sessions(b.ID)
	if len(got) != 1 || !got[0].Start.Equal(at(11, 30)) {
		t.Errorf("task b sessions = %+v", got)
	}
}

func TestRemoveIntervalKeepsClockRunning(t *testing.T) {
	svc, now := newTestService(t)
	task := mustCreate(t, svc, "interrupted morning")

	if _, err := svc.OpenSession(task.ID); err != nil {
		t.Fatal(err)
	}
	*now = now.Add(3 * time.Hour)

	// Cutting an hour out of the running session leaves a closed
	// front piece and the clock still running from the window's end.
	res, err := svc.RemoveInterval(base.Add(time.Hour), base.Add(2*time.Hour), true)
	if err != nil {
		t.Fatalf("RemoveInterval: %v", err)
	}
	if len(res.Changes) != 1 || res.Changes[0].Op != interval.OpSplit {
		t.Fatalf("changes = %+v, want one split", res.Changes)
	}
	sessions, _ := svc.Sessions(task.ID)
	if len(sessions) != 2 {
		t.Fatalf("sessions = %+v, want two", sessions)
	}
	if sessions[0].Open() || !sessions[0].End.Equal(base.Add(time.Hour)) {
		t.Errorf("front = %+v, want closed at %s", sessions[0], base.Add(time.Hour))
	}
	if !sessions[1].Open() || !sessions[1].Start.Equal(base.Add(2*time.Hour)) {
		t.Errorf("back = %+v, want open from %s", sessions[1], base.Add(2*time.Hour))
	}
	mustStage(t, svc, task.ID, models.StageActive)
}

func TestRemoveIntervalValidation(t *testing.T) {
	svc, _ := newTestService(t)

	var verr *ValidationError
	if _, err := svc.RemoveInterval(at(12, 0), at(11, 0), true); !errors.As(err, &verr) {
		t.Errorf("inverted window = %v, want ValidationError", err)
	}
	if _, err := svc.RemoveInterval(time.Time{}, at(11, 0), true); !errors.As(err, &verr) {
		t.Errorf("zero start = %v, want ValidationError", err)
	}
	if _, err := svc.InsertInterval(1, at(11, 0), at(11, 0), true); !errors.As(err, &verr) {
		t.Errorf("zero-width insert = %v, want ValidationError", err)
	}
}

func TestInsertIntervalMissingTask(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.InsertInterval(42, at(9, 0), at(10, 0), false); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("err = %v, want ErrTaskNotFound", err)
	}
}

func TestInsertIntervalAdjacentTouchIsNotOverlap(t *testing.T) {
	svc, _ := newTestService(t)
	task := mustCreate(t, svc, "back to back")
	mustInsert(t, svc, task.ID, at(9, 0), at(10, 0))

	// [10:00, 11:00) touches [9:00, 10:00) only at the boundary.
	res, err := svc.InsertInterval(task.ID, at(10, 0), at(11, 0), false)
	if err != nil {
		t.Fatalf("InsertInterval: %v", err)
	}
	if len(res.Changes) != 1 || res.Changes[0].Op != OpCreate {
		t.Fatalf("changes = %+v, want a bare create", res.Changes)
	}
	sessions, _ := svc.Sessions(task.ID)
	if len(sessions) != 2 {
		t.Errorf("sessions = %+v, want two", sessions)
	}
}
