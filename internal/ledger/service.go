// Package ledger implements the mutation surface of tatl. Every write
// to tasks, sessions, queue, and external waits goes through a Service
// method, runs inside a single transaction, and reports each automatic
// side effect back to the caller. Nothing is altered silently: side
// effects come back as Effects, history rewrites as SessionChanges,
// and anything the cascade rules cannot resolve is an error.
package ledger

import (
	"strings"
	"time"

	"github.com/da11an/tatl-sub000/internal/audit"
	"github.com/da11an/tatl-sub000/internal/models"
	"github.com/da11an/tatl-sub000/internal/store"
)

// DefaultMicroThreshold is the shortest session worth recording on its
// own. A session closed sooner merges into the adjacent session it
// continued, or is dropped.
const DefaultMicroThreshold = time.Minute

// Service owns all mutations of the ledger.
type Service struct {
	store   *store.Store
	journal *audit.Writer
	micro   time.Duration
	clock   func() time.Time
}

// NewService wires a Service over an open store. A micro threshold of
// zero or less falls back to DefaultMicroThreshold.
func NewService(st *store.Store, journal *audit.Writer, micro time.Duration) *Service {
	if micro <= 0 {
		micro = DefaultMicroThreshold
	}
	return &Service{
		store:   st,
		journal: journal,
		micro:   micro,
		clock:   time.Now,
	}
}

// now returns the current instant at second resolution, UTC.
func (s *Service) now() time.Time {
	return s.clock().UTC().Truncate(time.Second)
}

// at normalizes a caller-supplied instant, defaulting to now.
func (s *Service) at(t time.Time) time.Time {
	if t.IsZero() {
		return s.now()
	}
	return t.UTC().Truncate(time.Second)
}

// guarded runs fn in one transaction and re-checks every structural
// rule before commit. Any violation aborts the whole operation.
func (s *Service) guarded(fn func(tx *store.Tx) error) error {
	return s.store.WithTx(func(tx *store.Tx) error {
		if err := fn(tx); err != nil {
			return err
		}
		violations, err := checkInvariants(tx)
		if err != nil {
			return err
		}
		if len(violations) > 0 {
			v := violations[0]
			return &v
		}
		return nil
	})
}

// --- Task Operations ---

// CreateTask validates and stores a new task. Identity fields on the
// draft are ignored; the store assigns them.
func (s *Service) CreateTask(draft models.Task) (*models.Task, error) {
	if strings.TrimSpace(draft.Description) == "" {
		return nil, &ValidationError{Reason: "description must not be empty"}
	}
	if draft.Lifecycle == "" {
		draft.Lifecycle = models.LifecycleOpen
	}
	if draft.Lifecycle != models.LifecycleOpen {
		return nil, &ValidationError{Reason: "new tasks start open"}
	}
	if draft.Recurrence != "" {
		if _, err := models.ParseRecurrence(draft.Recurrence); err != nil {
			return nil, &ValidationError{Reason: err.Error()}
		}
	}
	if draft.Alloc < 0 {
		return nil, &ValidationError{Reason: "allocation must not be negative"}
	}

	now := s.now()
	task := draft
	task.ID = 0
	task.UUID = ""
	task.CreatedAt = now
	task.ModifiedAt = now

	err := s.guarded(func(tx *store.Tx) error {
		if err := tx.CreateTask(&task); err != nil {
			return err
		}
		return s.journal.Record(tx, "task.create", task.ID, task, task.Description, now)
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateTask rewrites a task's free attributes: description, project,
// tags, dates, allocation, recurrence. Lifecycle never changes here;
// Transition owns it.
func (s *Service) UpdateTask(updated models.Task) (*models.Task, error) {
	if strings.TrimSpace(updated.Description) == "" {
		return nil, &ValidationError{Reason: "description must not be empty"}
	}
	if updated.Recurrence != "" {
		if _, err := models.ParseRecurrence(updated.Recurrence); err != nil {
			return nil, &ValidationError{Reason: err.Error()}
		}
	}
	if updated.Alloc < 0 {
		return nil, &ValidationError{Reason: "allocation must not be negative"}
	}

	var task *models.Task
	err := s.guarded(func(tx *store.Tx) error {
		current, err := tx.GetTask(updated.ID)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrTaskNotFound
		}
		next := updated
		next.UUID = current.UUID
		next.Lifecycle = current.Lifecycle
		next.CreatedAt = current.CreatedAt
		next.ModifiedAt = s.now()
		if err := tx.UpdateTask(&next); err != nil {
			return err
		}
		task = &next
		return s.journal.Record(tx, "task.modify", next.ID, next, next.Description, next.ModifiedAt)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// DeleteTask removes a task and every record that references it. This
// is the correction path for tasks entered by mistake; finished work
// should transition instead so its history survives.
func (s *Service) DeleteTask(id int64) (*DeleteResult, error) {
	var res DeleteResult
	err := s.guarded(func(tx *store.Tx) error {
		task, err := tx.GetTask(id)
		if err != nil {
			return err
		}
		if task == nil {
			return ErrTaskNotFound
		}

		removed, err := tx.DeleteSessionsForTask(id)
		if err != nil {
			return err
		}
		dequeued, err := dequeueIfPresent(tx, id)
		if err != nil {
			return err
		}
		wait, err := tx.ExternalWait(id)
		if err != nil {
			return err
		}
		if wait != nil {
			if err := tx.DeleteExternalWait(id); err != nil {
				return err
			}
		}
		if err := tx.DeleteTask(id); err != nil {
			return err
		}

		res = DeleteResult{
			Task:            task,
			SessionsRemoved: removed,
			Dequeued:        dequeued,
			ExternalCleared: wait != nil && wait.Waiting(),
		}
		return s.journal.Record(tx, "task.delete", id, task, task.Description, s.now())
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// --- Classification ---

// ClassifyTask derives the current stage of one task from its stored
// facts.
func (s *Service) ClassifyTask(id int64) (models.Stage, error) {
	var stage models.Stage
	err := s.store.WithTx(func(tx *store.Tx) error {
		task, err := tx.GetTask(id)
		if err != nil {
			return err
		}
		if task == nil {
			return ErrTaskNotFound
		}
		facts, err := gatherFacts(tx, task)
		if err != nil {
			return err
		}
		stage = models.Classify(facts)
		return nil
	})
	if err != nil {
		return "", err
	}
	return stage, nil
}

// gatherFacts assembles the stored facts the classifier derives from.
func gatherFacts(tx *store.Tx, task *models.Task) (models.Facts, error) {
	facts := models.Facts{Lifecycle: task.Lifecycle}

	queue, err := tx.Queue()
	if err != nil {
		return facts, err
	}
	for i, id := range queue {
		if id == task.ID {
			facts.Queued = true
			facts.QueuedAtHead = i == 0
		}
	}

	sessions, err := tx.SessionsForTask(task.ID)
	if err != nil {
		return facts, err
	}
	facts.HasSessions = len(sessions) > 0
	for _, sess := range sessions {
		if sess.Open() {
			facts.HasOpenSession = true
		}
	}

	wait, err := tx.ExternalWait(task.ID)
	if err != nil {
		return facts, err
	}
	facts.ExternalWaiting = wait != nil && wait.Waiting()
	return facts, nil
}

// Overview assembles one classified TaskView per task, in creation
// order. Listing and board rendering build on this.
func (s *Service) Overview() ([]TaskView, error) {
	var views []TaskView
	err := s.store.WithTx(func(tx *store.Tx) error {
		tasks, err := tx.ListTasks("")
		if err != nil {
			return err
		}
		queue, err := tx.Queue()
		if err != nil {
			return err
		}
		positions := make(map[int64]int, len(queue))
		for i, id := range queue {
			positions[id] = i
		}
		sessions, err := tx.AllSessions()
		if err != nil {
			return err
		}
		logged := make(map[int64]time.Duration, len(tasks))
		openBy := make(map[int64]models.Session)
		for _, sess := range sessions {
			if sess.Open() {
				openBy[sess.TaskID] = sess
				continue
			}
			logged[sess.TaskID] += sess.End.Sub(sess.Start)
		}
		waiting, err := tx.WaitingTaskIDs()
		if err != nil {
			return err
		}

		views = make([]TaskView, 0, len(tasks))
		for _, task := range tasks {
			view := TaskView{Task: task, Position: -1, Logged: logged[task.ID]}
			if i, ok := positions[task.ID]; ok {
				view.Position = i
			}
			if open, ok := openBy[task.ID]; ok {
				o := open
				view.Open = &o
			}
			if waiting[task.ID] {
				wait, err := tx.ExternalWait(task.ID)
				if err != nil {
					return err
				}
				view.Wait = wait
			}
			hasSessions := view.Open != nil || logged[task.ID] > 0
			view.Stage = models.Classify(models.Facts{
				Lifecycle:       task.Lifecycle,
				Queued:          view.Position >= 0,
				QueuedAtHead:    view.Position == 0,
				HasOpenSession:  view.Open != nil,
				ExternalWaiting: view.Wait != nil && view.Wait.Waiting(),
				HasSessions:     hasSessions,
			})
			views = append(views, view)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return views, nil
}

// --- Reads ---

// GetTask loads one task.
func (s *Service) GetTask(id int64) (*models.Task, error) {
	task, err := s.store.GetTask(id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, ErrTaskNotFound
	}
	return task, nil
}

// Tasks lists tasks, filtered to one lifecycle when given.
func (s *Service) Tasks(lifecycle models.Lifecycle) ([]models.Task, error) {
	return s.store.ListTasks(lifecycle)
}

// Sessions lists a task's sessions in start order.
func (s *Service) Sessions(taskID int64) ([]models.Session, error) {
	return s.store.SessionsForTask(taskID)
}

// SessionsIn lists the sessions overlapping [t0, t1), across all
// tasks, in start order.
func (s *Service) SessionsIn(t0, t1 time.Time) ([]models.Session, error) {
	var out []models.Session
	err := s.store.WithTx(func(tx *store.Tx) error {
		var err error
		out, err = tx.SessionsOverlapping(t0.Unix(), t1.Unix())
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
