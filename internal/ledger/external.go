package ledger

import (
	"time"

	"github.com/da11an/tatl-sub000/internal/models"
	"github.com/da11an/tatl-sub000/internal/store"
)

// --- External Operations ---

// MarkExternal records that a task was handed off at the given
// instant, now when zero. A queued task loses its slot unless its
// clock is running; timing work on an external task keeps its place.
func (s *Service) MarkExternal(taskID int64, at time.Time) (*ExternalResult, error) {
	at = s.at(at)
	var res ExternalResult
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

		wait, err := tx.ExternalWait(taskID)
		if err != nil {
			return err
		}
		if wait != nil && wait.Waiting() {
			return ErrAlreadyExternal
		}

		open, err := tx.OpenSession()
		if err != nil {
			return err
		}
		active := open != nil && open.TaskID == taskID
		if !active {
			dequeued, err := dequeueIfPresent(tx, taskID)
			if err != nil {
				return err
			}
			if dequeued {
				res.Effects = append(res.Effects, Effect{Kind: EffectDequeued, TaskID: taskID})
			}
		}

		next := &models.ExternalWait{TaskID: taskID, SentAt: at}
		if err := tx.PutExternalWait(next); err != nil {
			return err
		}
		res.Wait = next
		return s.journal.Record(tx, "external.send", taskID, next, task.Description, s.now())
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// CollectExternal closes out a task's external wait at the given
// instant, now when zero. The task is not re-queued; enqueue it again
// when it needs attention.
func (s *Service) CollectExternal(taskID int64, at time.Time) (*ExternalResult, error) {
	at = s.at(at)
	var res ExternalResult
	err := s.guarded(func(tx *store.Tx) error {
		task, err := tx.GetTask(taskID)
		if err != nil {
			return err
		}
		if task == nil {
			return ErrTaskNotFound
		}

		wait, err := tx.ExternalWait(taskID)
		if err != nil {
			return err
		}
		if wait == nil || !wait.Waiting() {
			return ErrNotExternal
		}
		if at.Before(wait.SentAt) {
			return &ValidationError{Reason: "collection time before the hand-off"}
		}

		collected := at
		wait.CollectedAt = &collected
		if err := tx.PutExternalWait(wait); err != nil {
			return err
		}
		res.Wait = wait
		return s.journal.Record(tx, "external.collect", taskID, wait, task.Description, s.now())
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}
