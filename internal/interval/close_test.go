package interval

import (
	"testing"
	"time"

	"github.com/da11an/tatl-sub000/internal/models"
)

const threshold = time.Minute

func TestPlanCloseRecorded(t *testing.T) {
	running := open(5, 3, at(9, 0))

	plan, err := PlanClose(running, nil, at(9, 45), threshold)
	if err != nil {
		t.Fatalf("PlanClose() error = %v", err)
	}
	if plan.Op != CloseRecorded {
		t.Fatalf("Op = %s, want recorded", plan.Op)
	}
	if plan.Duration != 45*time.Minute {
		t.Errorf("Duration = %v, want 45m", plan.Duration)
	}
	if plan.Closed == nil || plan.Closed.End == nil || !plan.Closed.End.Equal(at(9, 45)) {
		t.Errorf("Closed = %+v, want end 09:45", plan.Closed)
	}
	if plan.Closed.ID != 5 {
		t.Errorf("Closed.ID = %d, want the open row", plan.Closed.ID)
	}
}

func TestPlanCloseExactlyThreshold(t *testing.T) {
	running := open(5, 3, at(9, 0))

	plan, err := PlanClose(running, nil, at(9, 1), threshold)
	if err != nil {
		t.Fatalf("PlanClose() error = %v", err)
	}
	if plan.Op != CloseRecorded {
		t.Errorf("Op = %s, want recorded at exactly the threshold", plan.Op)
	}
}

func TestPlanCloseMerged(t *testing.T) {
	// The clock was toggled off and straight back on: the short tail is
	// folded into the session that ends where it starts.
	siblings := []models.Session{
		closed(1, 3, at(8, 0), at(9, 0)),
		closed(2, 4, at(7, 0), at(8, 0)),
	}
	running := open(5, 3, at(9, 0))

	plan, err := PlanClose(running, siblings, at(9, 0).Add(30*time.Second), threshold)
	if err != nil {
		t.Fatalf("PlanClose() error = %v", err)
	}
	if plan.Op != CloseMerged {
		t.Fatalf("Op = %s, want merged", plan.Op)
	}
	if plan.MergedInto == nil || plan.MergedInto.ID != 1 {
		t.Fatalf("MergedInto = %+v, want session 1", plan.MergedInto)
	}
	if plan.MergedInto.End == nil || !plan.MergedInto.End.Equal(at(9, 0).Add(30*time.Second)) {
		t.Errorf("merged end = %v, want 09:00:30", plan.MergedInto.End)
	}
	if plan.Duration != 30*time.Second {
		t.Errorf("Duration = %v, want 30s", plan.Duration)
	}
}

func TestPlanCloseMergeIgnoresOtherTasks(t *testing.T) {
	// The adjacent session belongs to a different task; nothing absorbs
	// the short tail.
	siblings := []models.Session{closed(1, 4, at(8, 0), at(9, 0))}
	running := open(5, 3, at(9, 0))

	plan, err := PlanClose(running, siblings, at(9, 0).Add(10*time.Second), threshold)
	if err != nil {
		t.Fatalf("PlanClose() error = %v", err)
	}
	if plan.Op != CloseDiscarded {
		t.Errorf("Op = %s, want discarded", plan.Op)
	}
}

func TestPlanCloseDiscarded(t *testing.T) {
	siblings := []models.Session{closed(1, 3, at(7, 0), at(8, 0))}
	running := open(5, 3, at(9, 0))

	plan, err := PlanClose(running, siblings, at(9, 0).Add(10*time.Second), threshold)
	if err != nil {
		t.Fatalf("PlanClose() error = %v", err)
	}
	if plan.Op != CloseDiscarded {
		t.Fatalf("Op = %s, want discarded", plan.Op)
	}
	if plan.Closed != nil || plan.MergedInto != nil {
		t.Errorf("discard should carry no rewrite, got %+v", plan)
	}
}

func TestPlanCloseZeroDuration(t *testing.T) {
	running := open(5, 3, at(9, 0))

	plan, err := PlanClose(running, nil, at(9, 0), threshold)
	if err != nil {
		t.Fatalf("PlanClose() error = %v", err)
	}
	if plan.Op != CloseDiscarded || plan.Duration != 0 {
		t.Errorf("plan = %s/%v, want discarded with zero duration", plan.Op, plan.Duration)
	}
}

func TestPlanCloseErrors(t *testing.T) {
	running := open(5, 3, at(9, 0))
	if _, err := PlanClose(running, nil, at(8, 59), threshold); err == nil {
		t.Error("close before start should error")
	}

	alreadyClosed := closed(6, 3, at(7, 0), at(8, 0))
	if _, err := PlanClose(alreadyClosed, nil, at(9, 0), threshold); err == nil {
		t.Error("closing a closed session should error")
	}
}
