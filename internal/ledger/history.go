package ledger

import (
	"errors"
	"time"

	"github.com/da11an/tatl-sub000/internal/interval"
	"github.com/da11an/tatl-sub000/internal/models"
	"github.com/da11an/tatl-sub000/internal/store"
)

// --- History Corrections ---

// RemoveInterval deletes the window [t0, t1) from every session that
// overlaps it, across all tasks. Sessions inside the window are
// deleted, sessions spanning it are split, the rest are trimmed. A
// zero-width window splits the session containing the instant. The
// running session is never ended by a removal: its open tail survives
// past the window.
//
// Without confirm the result describes the rewrite that would run,
// nothing is stored, and the error is ErrConfirmationRequired.
func (s *Service) RemoveInterval(t0, t1 time.Time, confirm bool) (*HistoryResult, error) {
	if t0.IsZero() || t1.IsZero() {
		return nil, &ValidationError{Reason: "a window needs both ends"}
	}
	t0, t1 = t0.UTC().Truncate(time.Second), t1.UTC().Truncate(time.Second)
	if t1.Before(t0) {
		return nil, &ValidationError{Reason: "window ends before it starts"}
	}

	var res HistoryResult
	err := s.guarded(func(tx *store.Tx) error {
		changes, err := s.removeWindow(tx, t0, t1, confirm, false)
		res.Changes = changes
		if err != nil {
			return err
		}
		inputs := map[string]any{"from": t0, "to": t1}
		return s.journal.Record(tx, "history.remove", 0, inputs, "", s.now())
	})
	if errors.Is(err, ErrConfirmationRequired) {
		return &res, err
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// InsertInterval records a closed session [t0, t1) for a task, first
// clearing the window so sessions never overlap. Inserting into empty
// space needs no confirmation; rewriting what is already there does,
// and without confirm the result describes the rewrite alongside
// ErrConfirmationRequired.
func (s *Service) InsertInterval(taskID int64, t0, t1 time.Time, confirm bool) (*HistoryResult, error) {
	if t0.IsZero() || t1.IsZero() {
		return nil, &ValidationError{Reason: "a window needs both ends"}
	}
	t0, t1 = t0.UTC().Truncate(time.Second), t1.UTC().Truncate(time.Second)
	if !t0.Before(t1) {
		return nil, &ValidationError{Reason: "window must have positive width"}
	}

	var res HistoryResult
	err := s.guarded(func(tx *store.Tx) error {
		task, err := tx.GetTask(taskID)
		if err != nil {
			return err
		}
		if task == nil {
			return ErrTaskNotFound
		}

		end := t1
		changes, err := s.removeWindow(tx, t0, t1, confirm, true)
		if err != nil {
			if errors.Is(err, ErrConfirmationRequired) {
				res.Changes = append(changes, SessionChange{
					Op:     OpCreate,
					TaskID: taskID,
					Pieces: []models.Session{{TaskID: taskID, Start: t0, End: &end}},
				})
			}
			return err
		}

		sess := &models.Session{TaskID: taskID, Start: t0, End: &end}
		if err := tx.CreateSession(sess); err != nil {
			return err
		}
		res.Changes = append(changes, SessionChange{
			Op:        OpCreate,
			SessionID: sess.ID,
			TaskID:    taskID,
			Pieces:    []models.Session{*sess},
		})
		inputs := map[string]any{"from": t0, "to": t1}
		return s.journal.Record(tx, "history.insert", taskID, inputs, task.Description, s.now())
	})
	if errors.Is(err, ErrConfirmationRequired) {
		return &res, err
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// removeWindow plans and applies the removal of [t0, t1). With
// allowEmpty set, a window overlapping nothing produces no changes
// instead of ErrNoOverlap. Without confirm a non-empty plan comes
// back described but unapplied, with ErrConfirmationRequired.
func (s *Service) removeWindow(tx *store.Tx, t0, t1 time.Time, confirm, allowEmpty bool) ([]SessionChange, error) {
	overlapping, err := tx.SessionsOverlapping(t0.Unix(), t1.Unix())
	if err != nil {
		return nil, err
	}
	edits, err := interval.PlanRemove(overlapping, t0, t1)
	if errors.Is(err, interval.ErrNoOverlap) {
		if allowEmpty {
			return nil, nil
		}
		return nil, err
	}
	if err != nil {
		return nil, &ValidationError{Reason: err.Error()}
	}

	if !confirm {
		planned := make([]SessionChange, 0, len(edits))
		for _, edit := range edits {
			change := SessionChange{Op: edit.Op, SessionID: edit.Session.ID, TaskID: edit.Session.TaskID}
			for i, piece := range edit.Replacements {
				if i == 0 {
					piece.ID = edit.Session.ID
				} else {
					piece.ID = 0
				}
				change.Pieces = append(change.Pieces, piece)
			}
			planned = append(planned, change)
		}
		return planned, ErrConfirmationRequired
	}

	var changes []SessionChange
	for _, edit := range edits {
		change := SessionChange{Op: edit.Op, SessionID: edit.Session.ID, TaskID: edit.Session.TaskID}
		if len(edit.Replacements) == 0 {
			if err := tx.DeleteSession(edit.Session.ID); err != nil {
				return nil, err
			}
			changes = append(changes, change)
			continue
		}

		first := edit.Replacements[0]
		first.ID = edit.Session.ID
		if err := tx.UpdateSession(&first); err != nil {
			return nil, err
		}
		change.Pieces = append(change.Pieces, first)
		for _, piece := range edit.Replacements[1:] {
			p := piece
			p.ID = 0
			if err := tx.CreateSession(&p); err != nil {
				return nil, err
			}
			change.Pieces = append(change.Pieces, p)
		}
		changes = append(changes, change)
	}
	return changes, nil
}
