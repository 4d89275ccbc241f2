package board

import (
	"strings"
	"testing"
	"time"

	"github.com/da11an/tatl-sub000/internal/ledger"
	"github.com/da11an/tatl-sub000/internal/models"
)

var base = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func view(id int64, desc string, stage models.Stage, pos int) ledger.TaskView {
	return ledger.TaskView{
		Task:     models.Task{ID: id, Description: desc},
		Stage:    stage,
		Position: pos,
	}
}

func ids(views []ledger.TaskView) []int64 {
	out := make([]int64, len(views))
	for i, v := range views {
		out[i] = v.Task.ID
	}
	return out
}

func TestSortViewsBoardOrder(t *testing.T) {
	views := []ledger.TaskView{
		view(1, "done long ago", models.StageCompleted, -1),
		view(2, "third in line", models.StageQueued, 2),
		view(3, "just an idea", models.StageProposed, -1),
		view(4, "being timed", models.StageActive, 0),
		view(5, "next up", models.StageQueued, 1),
		view(6, "out for review", models.StageExternal, -1),
		view(7, "touched once", models.StageStalled, -1),
	}

	sortViews(views)

	want := []int64{4, 5, 2, 6, 7, 3, 1}
	got := ids(views)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestFilterViews(t *testing.T) {
	views := []ledger.TaskView{
		view(1, "a", models.StageQueued, 0),
		view(2, "b", models.StageProposed, -1),
		view(3, "c", models.StageQueued, 1),
	}

	if got := filterViews(views, ""); len(got) != 3 {
		t.Fatalf("unfiltered len = %d, want 3", len(got))
	}
	queued := filterViews(views, models.StageQueued)
	if len(queued) != 2 || queued[0].Task.ID != 1 || queued[1].Task.ID != 3 {
		t.Fatalf("queued = %v", ids(queued))
	}
}

func TestRowTextActive(t *testing.T) {
	start := base
	v := ledger.TaskView{
		Task:     models.Task{ID: 12, Description: "write the report", Project: "acme"},
		Stage:    models.StageActive,
		Position: 0,
		Open:     &models.Session{ID: 1, TaskID: 12, Start: start},
		Logged:   90 * time.Minute,
	}

	line := rowText(v, start.Add(25*time.Minute))

	for _, want := range []string{"●", "active", "#12", "write the report", "q0", "now 25m", "1h30m", "@acme"} {
		if !strings.Contains(line, want) {
			t.Errorf("row %q missing %q", line, want)
		}
	}
}

func TestRowTextProposedIsBare(t *testing.T) {
	line := rowText(view(3, "just an idea", models.StageProposed, -1), base)

	if !strings.Contains(line, "○") || !strings.Contains(line, "just an idea") {
		t.Fatalf("row = %q", line)
	}
	for _, stray := range []string{"q", "now", "@", "•"} {
		if strings.Contains(line, stray) {
			t.Errorf("row %q has unexpected %q", line, stray)
		}
	}
}

func TestFormatSpan(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{0, "0s"},
		{45 * time.Second, "45s"},
		{time.Minute, "1m"},
		{90 * time.Minute, "1h30m"},
		{25*time.Hour + 5*time.Minute, "25h05m"},
		{-time.Second, "0s"},
	}
	for _, c := range cases {
		if got := formatSpan(c.d); got != c.want {
			t.Errorf("formatSpan(%v) = %q, want %q", c.d, got, c.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 48); got != "short" {
		t.Fatalf("truncate = %q", got)
	}
	long := strings.Repeat("ä", 60)
	got := truncate(long, 48)
	if r := []rune(got); len(r) != 48 || r[47] != '…' {
		t.Fatalf("truncated to %d runes ending %q", len(r), string(r[len(r)-1]))
	}
}

func TestStageGlyphsDistinct(t *testing.T) {
	stages := []models.Stage{
		models.StageProposed, models.StageQueued, models.StageStalled,
		models.StageActive, models.StageExternal,
		models.StageCompleted, models.StageCancelled,
	}
	seen := map[string]models.Stage{}
	for _, st := range stages {
		g := stageGlyph(st)
		if g == "?" {
			t.Errorf("no glyph for %s", st)
		}
		if prev, dup := seen[g]; dup {
			t.Errorf("glyph %q shared by %s and %s", g, prev, st)
		}
		seen[g] = st
	}
}
