package store

import (
	"database/sql"
	"fmt"

	"github.com/da11an/tatl-sub000/internal/models"
)

// CreateSession inserts a session and assigns its id. A nil End means
// the session is open.
func (t *Tx) CreateSession(sess *models.Session) error {
	res, err := t.tx.Exec(
		`INSERT INTO sessions (task_id, start_ts, end_ts) VALUES (?, ?, ?)`,
		sess.TaskID, toEpoch(sess.Start), nullEpoch(sess.End),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	sess.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("session id: %w", err)
	}
	return nil
}

// GetSession retrieves a session by id. Returns nil without error when
// it does not exist.
func (t *Tx) GetSession(id int64) (*models.Session, error) {
	row := t.tx.QueryRow(`SELECT id, task_id, start_ts, end_ts FROM sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query session: %w", err)
	}
	return sess, nil
}

// UpdateSession rewrites a session's interval.
func (t *Tx) UpdateSession(sess *models.Session) error {
	_, err := t.tx.Exec(
		`UPDATE sessions SET task_id = ?, start_ts = ?, end_ts = ? WHERE id = ?`,
		sess.TaskID, toEpoch(sess.Start), nullEpoch(sess.End), sess.ID,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

// DeleteSession removes a session.
func (t *Tx) DeleteSession(id int64) error {
	_, err := t.tx.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteSessionsForTask removes every session of a task, returning how
// many were removed.
func (t *Tx) DeleteSessionsForTask(taskID int64) (int64, error) {
	res, err := t.tx.Exec(`DELETE FROM sessions WHERE task_id = ?`, taskID)
	if err != nil {
		return 0, fmt.Errorf("delete sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// SessionsForTask returns a task's sessions ordered by start time.
func (t *Tx) SessionsForTask(taskID int64) ([]models.Session, error) {
	rows, err := t.tx.Query(
		`SELECT id, task_id, start_ts, end_ts FROM sessions WHERE task_id = ? ORDER BY start_ts`,
		taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	return collectSessions(rows)
}

// AllSessions returns every session ordered by task then start time.
func (t *Tx) AllSessions() ([]models.Session, error) {
	rows, err := t.tx.Query(`SELECT id, task_id, start_ts, end_ts FROM sessions ORDER BY task_id, start_ts`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	return collectSessions(rows)
}

// SessionsOverlapping returns every session, across all tasks, whose
// half-open interval intersects [t0, t1). Open sessions have an
// unbounded effective end. With t0 == t1 the predicate degenerates to
// strict containment of the instant.
func (t *Tx) SessionsOverlapping(t0, t1 int64) ([]models.Session, error) {
	rows, err := t.tx.Query(
		`SELECT id, task_id, start_ts, end_ts FROM sessions
		 WHERE start_ts < ? AND (end_ts IS NULL OR end_ts > ?)
		 ORDER BY start_ts`,
		t1, t0,
	)
	if err != nil {
		return nil, fmt.Errorf("query overlapping sessions: %w", err)
	}
	return collectSessions(rows)
}

// OpenSessions returns every session with no end. At most one row
// should ever come back; callers that want the singleton check the
// length, the invariant audit wants them all.
func (t *Tx) OpenSessions() ([]models.Session, error) {
	rows, err := t.tx.Query(`SELECT id, task_id, start_ts, end_ts FROM sessions WHERE end_ts IS NULL ORDER BY start_ts`)
	if err != nil {
		return nil, fmt.Errorf("query open sessions: %w", err)
	}
	return collectSessions(rows)
}

// OpenSession returns the running session, or nil when the clock is
// stopped.
func (t *Tx) OpenSession() (*models.Session, error) {
	open, err := t.OpenSessions()
	if err != nil {
		return nil, err
	}
	if len(open) == 0 {
		return nil, nil
	}
	return &open[0], nil
}

// TaskIDsWithSessions returns the set of task ids that own at least one
// session.
func (t *Tx) TaskIDsWithSessions() (map[int64]bool, error) {
	rows, err := t.tx.Query(`SELECT DISTINCT task_id FROM sessions`)
	if err != nil {
		return nil, fmt.Errorf("query session owners: %w", err)
	}
	defer rows.Close()

	ids := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan task id: %w", err)
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

func collectSessions(rows *sql.Rows) ([]models.Session, error) {
	defer rows.Close()
	var sessions []models.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, *sess)
	}
	return sessions, rows.Err()
}

func scanSession(row scanner) (*models.Session, error) {
	var sess models.Session
	var startTS int64
	var endTS sql.NullInt64
	if err := row.Scan(&sess.ID, &sess.TaskID, &startTS, &endTS); err != nil {
		return nil, err
	}
	sess.Start = fromEpoch(startTS)
	sess.End = epochPtr(endTS)
	return &sess, nil
}

// --- Store-level read conveniences ---

// SessionsForTask returns a task's sessions ordered by start time.
func (s *Store) SessionsForTask(taskID int64) ([]models.Session, error) {
	var sessions []models.Session
	err := s.WithTx(func(tx *Tx) error {
		var err error
		sessions, err = tx.SessionsForTask(taskID)
		return err
	})
	return sessions, err
}

// OpenSession returns the running session, or nil when the clock is
// stopped.
func (s *Store) OpenSession() (*models.Session, error) {
	var sess *models.Session
	err := s.WithTx(func(tx *Tx) error {
		var err error
		sess, err = tx.OpenSession()
		return err
	})
	return sess, err
}
