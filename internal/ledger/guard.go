package ledger

import (
	"fmt"
	"sort"

	"github.com/da11an/tatl-sub000/internal/models"
	"github.com/da11an/tatl-sub000/internal/store"
)

// CheckInvariants audits the whole store and returns every violation
// found. A healthy store returns none. The doctor command surfaces
// this; every mutation re-runs it before commit.
func (s *Service) CheckInvariants() ([]InvariantError, error) {
	var out []InvariantError
	err := s.store.WithTx(func(tx *store.Tx) error {
		var err error
		out, err = checkInvariants(tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// checkInvariants re-derives every structural rule from the stored
// facts.
func checkInvariants(tx *store.Tx) ([]InvariantError, error) {
	var out []InvariantError

	tasks, err := tx.ListTasks("")
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*models.Task, len(tasks))
	for i := range tasks {
		byID[tasks[i].ID] = &tasks[i]
	}

	queue, err := tx.Queue()
	if err != nil {
		return nil, err
	}
	queuedAt := make(map[int64]int, len(queue))
	for i, id := range queue {
		queuedAt[id] = i
		if byID[id] == nil {
			out = append(out, InvariantError{Rule: "queued tasks must exist", TaskID: id})
		}
	}

	positions, err := tx.QueuePositions()
	if err != nil {
		return nil, err
	}
	for id, pos := range positions {
		if pos < 0 || pos >= int64(len(positions)) {
			out = append(out, InvariantError{
				Rule:   "queue positions run 0..N-1 with no gaps",
				TaskID: id,
				Detail: fmt.Sprintf("position %d of %d", pos, len(positions)),
			})
		}
	}

	opens, err := tx.OpenSessions()
	if err != nil {
		return nil, err
	}
	if len(opens) > 1 {
		out = append(out, InvariantError{
			Rule:   "at most one session runs at a time",
			TaskID: opens[1].TaskID,
			Detail: fmt.Sprintf("%d sessions open", len(opens)),
		})
	}
	openBy := make(map[int64]bool, len(opens))
	for _, open := range opens {
		openBy[open.TaskID] = true
		if pos, ok := queuedAt[open.TaskID]; !ok || pos != 0 {
			out = append(out, InvariantError{
				Rule:   "the actively timed task sits at the head of the queue",
				TaskID: open.TaskID,
			})
		}
	}

	waiting, err := tx.WaitingTaskIDs()
	if err != nil {
		return nil, err
	}
	waitingIDs := make([]int64, 0, len(waiting))
	for id := range waiting {
		waitingIDs = append(waitingIDs, id)
	}
	sort.Slice(waitingIDs, func(i, j int) bool { return waitingIDs[i] < waitingIDs[j] })
	for _, id := range waitingIDs {
		if byID[id] == nil {
			out = append(out, InvariantError{Rule: "external waits reference existing tasks", TaskID: id})
		}
		if _, queued := queuedAt[id]; queued && !openBy[id] {
			out = append(out, InvariantError{
				Rule:   "a task waiting externally is queued only while actively timed",
				TaskID: id,
			})
		}
	}

	for _, task := range tasks {
		if !task.Lifecycle.Terminal() {
			continue
		}
		if _, queued := queuedAt[task.ID]; queued {
			out = append(out, InvariantError{Rule: "terminal tasks leave the queue", TaskID: task.ID})
		}
		if waiting[task.ID] {
			out = append(out, InvariantError{Rule: "terminal tasks have no pending external wait", TaskID: task.ID})
		}
	}

	sessions, err := tx.AllSessions()
	if err != nil {
		return nil, err
	}
	byTask := make(map[int64][]models.Session)
	for _, sess := range sessions {
		if byID[sess.TaskID] == nil {
			out = append(out, InvariantError{
				Rule:   "sessions reference existing tasks",
				TaskID: sess.TaskID,
				Detail: fmt.Sprintf("session %d", sess.ID),
			})
		}
		if sess.End != nil && !sess.Start.Before(*sess.End) {
			out = append(out, InvariantError{
				Rule:   "closed sessions end after they start",
				TaskID: sess.TaskID,
				Detail: fmt.Sprintf("session %d", sess.ID),
			})
		}
		byTask[sess.TaskID] = append(byTask[sess.TaskID], sess)
	}

	taskIDs := make([]int64, 0, len(byTask))
	for id := range byTask {
		taskIDs = append(taskIDs, id)
	}
	sort.Slice(taskIDs, func(i, j int) bool { return taskIDs[i] < taskIDs[j] })
	for _, id := range taskIDs {
		list := byTask[id]
		sort.Slice(list, func(i, j int) bool { return list[i].Start.Before(list[j].Start) })
		for i := 1; i < len(list); i++ {
			prev := list[i-1]
			if prev.End == nil || prev.End.After(list[i].Start) {
				out = append(out, InvariantError{
					Rule:   "sessions of one task never overlap",
					TaskID: id,
					Detail: fmt.Sprintf("sessions %d and %d", prev.ID, list[i].ID),
				})
			}
		}
	}

	return out, nil
}
