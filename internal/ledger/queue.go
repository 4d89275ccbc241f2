package ledger

import (
	"fmt"

	"github.com/da11an/tatl-sub000/internal/store"
)

// --- Queue Operations ---

// Enqueue appends a task to the tail of the queue.
func (s *Service) Enqueue(taskID int64) (*QueueResult, error) {
	var res QueueResult
	err := s.guarded(func(tx *store.Tx) error {
		task, err := tx.GetTask(taskID)
		if err != nil {
			return err
		}
		if task == nil {
			return ErrTaskNotFound
		}
		if task.Lifecycle.Terminal() {
			return ErrTerminalLifecycle
		}

		queue, err := tx.Queue()
		if err != nil {
			return err
		}
		for _, id := range queue {
			if id == taskID {
				return ErrAlreadyQueued
			}
		}

		wait, err := tx.ExternalWait(taskID)
		if err != nil {
			return err
		}
		if wait != nil && wait.Waiting() {
			return &InvariantError{
				Rule:   "a task waiting externally cannot be queued",
				TaskID: taskID,
				Detail: "collect it first",
			}
		}

		queue = append(queue, taskID)
		if err := tx.SetQueue(queue); err != nil {
			return err
		}
		res.Queue = queue
		return s.journal.Record(tx, "queue.add", taskID, queue, task.Description, s.now())
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Dequeue removes a task from the queue. The task holding the running
// clock keeps the head until the clock stops.
func (s *Service) Dequeue(taskID int64) (*QueueResult, error) {
	var res QueueResult
	err := s.guarded(func(tx *store.Tx) error {
		task, err := tx.GetTask(taskID)
		if err != nil {
			return err
		}
		if task == nil {
			return ErrTaskNotFound
		}

		open, err := tx.OpenSession()
		if err != nil {
			return err
		}
		if open != nil && open.TaskID == taskID {
			return ErrActiveTask
		}

		dequeued, err := dequeueIfPresent(tx, taskID)
		if err != nil {
			return err
		}
		if !dequeued {
			return ErrNotQueued
		}

		queue, err := tx.Queue()
		if err != nil {
			return err
		}
		res.Queue = queue
		return s.journal.Record(tx, "queue.remove", taskID, queue, task.Description, s.now())
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Reorder replaces the queue order. The new order must name exactly
// the queued tasks, and the task holding the running clock stays at
// the head.
func (s *Service) Reorder(ids []int64) (*QueueResult, error) {
	var res QueueResult
	err := s.guarded(func(tx *store.Tx) error {
		queue, err := tx.Queue()
		if err != nil {
			return err
		}
		if err := samePermutation(queue, ids); err != nil {
			return err
		}

		open, err := tx.OpenSession()
		if err != nil {
			return err
		}
		if open != nil && (len(ids) == 0 || ids[0] != open.TaskID) {
			return &InvariantError{
				Rule:   "the actively timed task stays at the head of the queue",
				TaskID: open.TaskID,
			}
		}

		if err := tx.SetQueue(ids); err != nil {
			return err
		}
		res.Queue = ids
		return s.journal.Record(tx, "queue.reorder", 0, ids, "", s.now())
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// samePermutation checks that proposed names each task in current
// exactly once.
func samePermutation(current, proposed []int64) error {
	if len(current) != len(proposed) {
		return &ValidationError{
			Reason: fmt.Sprintf("reorder names %d tasks, the queue holds %d", len(proposed), len(current)),
		}
	}
	queued := make(map[int64]bool, len(current))
	for _, id := range current {
		queued[id] = true
	}
	seen := make(map[int64]bool, len(proposed))
	for _, id := range proposed {
		if !queued[id] {
			return &ValidationError{Reason: fmt.Sprintf("task %d is not queued", id)}
		}
		if seen[id] {
			return &ValidationError{Reason: fmt.Sprintf("task %d named twice", id)}
		}
		seen[id] = true
	}
	return nil
}

// dequeueIfPresent drops taskID from the queue, keeping positions
// dense. Reports whether the task was there.
func dequeueIfPresent(tx *store.Tx, taskID int64) (bool, error) {
	queue, err := tx.Queue()
	if err != nil {
		return false, err
	}
	next := make([]int64, 0, len(queue))
	found := false
	for _, id := range queue {
		if id == taskID {
			found = true
			continue
		}
		next = append(next, id)
	}
	if !found {
		return false, nil
	}
	return true, tx.SetQueue(next)
}
