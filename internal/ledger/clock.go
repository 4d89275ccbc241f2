package ledger

import (
	"time"

	"github.com/da11an/tatl-sub000/internal/interval"
	"github.com/da11an/tatl-sub000/internal/models"
	"github.com/da11an/tatl-sub000/internal/store"
)

// --- Clock Operations ---

// OpenSession starts the clock on a task. At most one session runs
// system-wide, so a session already running on another task is closed
// at the new start first. The task moves to the head of the queue,
// enqueued there when absent.
func (s *Service) OpenSession(taskID int64) (*ClockResult, error) {
	now := s.now()
	var res ClockResult
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

		open, err := tx.OpenSession()
		if err != nil {
			return err
		}
		if open != nil {
			if open.TaskID == taskID {
				return ErrActiveTask
			}
			_, _, effects, err := s.closeOpen(tx, open, now, true)
			if err != nil {
				return err
			}
			res.Effects = append(res.Effects, effects...)
		}

		queue, err := tx.Queue()
		if err != nil {
			return err
		}
		next, moved := promote(queue, taskID)
		if moved != "" {
			if err := tx.SetQueue(next); err != nil {
				return err
			}
			res.Effects = append(res.Effects, Effect{Kind: moved, TaskID: taskID})
		}

		sess := &models.Session{TaskID: taskID, Start: now}
		if err := tx.CreateSession(sess); err != nil {
			return err
		}

		res.Task = task
		res.Session = sess
		return s.journal.Record(tx, "clock.start", taskID, sess, task.Description, now)
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// CloseSession stops the running clock at the given instant, now when
// zero. A session shorter than the micro threshold merges into the
// adjacent session it continued, or is dropped.
func (s *Service) CloseSession(at time.Time) (*ClockResult, error) {
	at = s.at(at)
	var res ClockResult
	err := s.guarded(func(tx *store.Tx) error {
		open, err := tx.OpenSession()
		if err != nil {
			return err
		}
		if open == nil {
			return ErrNoOpenSession
		}
		task, err := tx.GetTask(open.TaskID)
		if err != nil {
			return err
		}

		plan, survivor, effects, err := s.closeOpen(tx, open, at, false)
		if err != nil {
			return err
		}

		res = ClockResult{
			Task:     task,
			Session:  survivor,
			Outcome:  plan.Op,
			Duration: plan.Duration,
			Effects:  effects,
		}
		detail := ""
		if task != nil {
			detail = task.Description
		}
		inputs := map[string]any{"at": at, "outcome": plan.Op}
		return s.journal.Record(tx, "clock.stop", open.TaskID, inputs, detail, s.now())
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// closeOpen ends the running session at the given instant, applying
// the micro-session rule, then drops the task from the queue when it
// is waiting externally with no clock left. implicit controls whether
// a plain recorded close is reported as an effect; merges, discards,
// and dequeues always are.
func (s *Service) closeOpen(tx *store.Tx, open *models.Session, at time.Time, implicit bool) (*interval.Close, *models.Session, []Effect, error) {
	siblings, err := tx.SessionsForTask(open.TaskID)
	if err != nil {
		return nil, nil, nil, err
	}
	plan, err := interval.PlanClose(*open, siblings, at, s.micro)
	if err != nil {
		return nil, nil, nil, &ValidationError{Reason: err.Error()}
	}

	var survivor *models.Session
	var effects []Effect
	switch plan.Op {
	case interval.CloseRecorded:
		if err := tx.UpdateSession(plan.Closed); err != nil {
			return nil, nil, nil, err
		}
		survivor = plan.Closed
		if implicit {
			effects = append(effects, Effect{
				Kind:      EffectSessionClosed,
				TaskID:    open.TaskID,
				SessionID: open.ID,
				Duration:  plan.Duration,
			})
		}
	case interval.CloseMerged:
		if err := tx.UpdateSession(plan.MergedInto); err != nil {
			return nil, nil, nil, err
		}
		if err := tx.DeleteSession(open.ID); err != nil {
			return nil, nil, nil, err
		}
		survivor = plan.MergedInto
		effects = append(effects, Effect{
			Kind:      EffectSessionMerged,
			TaskID:    open.TaskID,
			SessionID: plan.MergedInto.ID,
			Duration:  plan.Duration,
		})
	case interval.CloseDiscarded:
		if err := tx.DeleteSession(open.ID); err != nil {
			return nil, nil, nil, err
		}
		effects = append(effects, Effect{
			Kind:      EffectSessionDiscarded,
			TaskID:    open.TaskID,
			SessionID: open.ID,
			Duration:  plan.Duration,
		})
	}

	// A task waiting externally keeps its queue slot only while its
	// clock runs.
	wait, err := tx.ExternalWait(open.TaskID)
	if err != nil {
		return nil, nil, nil, err
	}
	if wait != nil && wait.Waiting() {
		dequeued, err := dequeueIfPresent(tx, open.TaskID)
		if err != nil {
			return nil, nil, nil, err
		}
		if dequeued {
			effects = append(effects, Effect{Kind: EffectDequeued, TaskID: open.TaskID})
		}
	}
	return plan, survivor, effects, nil
}

// promote returns the queue with taskID at the head, and which effect
// that took: empty when the task already sat there.
func promote(queue []int64, taskID int64) ([]int64, EffectKind) {
	if len(queue) > 0 && queue[0] == taskID {
		return queue, ""
	}
	next := make([]int64, 0, len(queue)+1)
	next = append(next, taskID)
	found := false
	for _, id := range queue {
		if id == taskID {
			found = true
			continue
		}
		next = append(next, id)
	}
	if found {
		return next, EffectMovedToHead
	}
	return next, EffectEnqueuedHead
}
