package ledger

import (
	"fmt"
	"time"

	"github.com/da11an/tatl-sub000/internal/models"
	"github.com/da11an/tatl-sub000/internal/respawn"
	"github.com/da11an/tatl-sub000/internal/store"
)

// --- Lifecycle Transitions ---

// Transition marks a task completed or cancelled at the given instant,
// now when zero. The cascade closes the task's running session,
// removes it from the queue, collects its external wait, and spawns
// the next occurrence when the task recurs. Terminal is final.
func (s *Service) Transition(taskID int64, to models.Lifecycle, at time.Time) (*TransitionResult, error) {
	if !to.Terminal() {
		return nil, &ValidationError{
			Reason: fmt.Sprintf("transitions go to %s or %s", models.LifecycleCompleted, models.LifecycleCancelled),
		}
	}
	at = s.at(at)

	var res TransitionResult
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
		if open != nil && open.TaskID == taskID {
			_, _, effects, err := s.closeOpen(tx, open, at, true)
			if err != nil {
				return err
			}
			res.Effects = append(res.Effects, effects...)
		}

		dequeued, err := dequeueIfPresent(tx, taskID)
		if err != nil {
			return err
		}
		if dequeued {
			res.Effects = append(res.Effects, Effect{Kind: EffectDequeued, TaskID: taskID})
		}

		wait, err := tx.ExternalWait(taskID)
		if err != nil {
			return err
		}
		if wait != nil && wait.Waiting() {
			collected := at
			wait.CollectedAt = &collected
			if err := tx.PutExternalWait(wait); err != nil {
				return err
			}
			res.Effects = append(res.Effects, Effect{Kind: EffectExternalCollected, TaskID: taskID})
		}

		task.Lifecycle = to
		task.ModifiedAt = s.now()
		if err := tx.UpdateTask(task); err != nil {
			return err
		}
		res.Task = task

		// A recurring task spawns its successor off the transition
		// instant. Rule trouble is reported, never rolled back into
		// the transition.
		if task.Recurrence != "" {
			outcome := &RespawnOutcome{}
			rule, err := models.ParseRecurrence(task.Recurrence)
			if err != nil {
				outcome.Reason = fmt.Sprintf("recurrence %q: %v", task.Recurrence, err)
			} else if due, ok := respawn.Next(rule, at); !ok {
				outcome.Reason = fmt.Sprintf("recurrence %q yields no occurrence after %s",
					task.Recurrence, at.Format("2006-01-02"))
			} else {
				next := respawn.Spawn(task, due, s.now())
				if err := tx.CreateTask(next); err != nil {
					return err
				}
				outcome.Spawned = next
				res.Effects = append(res.Effects, Effect{Kind: EffectRespawned, TaskID: next.ID})
			}
			res.Respawn = outcome
		}

		op := "task.complete"
		if to == models.LifecycleCancelled {
			op = "task.cancel"
		}
		inputs := map[string]any{"to": to, "at": at}
		return s.journal.Record(tx, op, taskID, inputs, task.Description, s.now())
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}
