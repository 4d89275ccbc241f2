package store

import (
	"database/sql"
	"fmt"

	"github.com/da11an/tatl-sub000/internal/models"
)

// ExternalWait returns a task's hand-off record, or nil when the task
// was never sent out.
func (t *Tx) ExternalWait(taskID int64) (*models.ExternalWait, error) {
	var w models.ExternalWait
	var sentTS int64
	var collectedTS sql.NullInt64

	err := t.tx.QueryRow(
		`SELECT task_id, sent_ts, collected_ts FROM external_waits WHERE task_id = ?`,
		taskID,
	).Scan(&w.TaskID, &sentTS, &collectedTS)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query external wait: %w", err)
	}

	w.SentAt = fromEpoch(sentTS)
	w.CollectedAt = epochPtr(collectedTS)
	return &w, nil
}

// PutExternalWait inserts or replaces a task's hand-off record. A task
// has at most one.
func (t *Tx) PutExternalWait(w *models.ExternalWait) error {
	_, err := t.tx.Exec(
		`INSERT INTO external_waits (task_id, sent_ts, collected_ts) VALUES (?, ?, ?)
		 ON CONFLICT(task_id) DO UPDATE SET sent_ts = excluded.sent_ts, collected_ts = excluded.collected_ts`,
		w.TaskID, toEpoch(w.SentAt), nullEpoch(w.CollectedAt),
	)
	if err != nil {
		return fmt.Errorf("put external wait: %w", err)
	}
	return nil
}

// DeleteExternalWait removes a task's hand-off record.
func (t *Tx) DeleteExternalWait(taskID int64) error {
	_, err := t.tx.Exec(`DELETE FROM external_waits WHERE task_id = ?`, taskID)
	if err != nil {
		return fmt.Errorf("delete external wait: %w", err)
	}
	return nil
}

// WaitingTaskIDs returns the set of task ids with an outstanding
// hand-off (collected_ts still null).
func (t *Tx) WaitingTaskIDs() (map[int64]bool, error) {
	rows, err := t.tx.Query(`SELECT task_id FROM external_waits WHERE collected_ts IS NULL`)
	if err != nil {
		return nil, fmt.Errorf("query waiting tasks: %w", err)
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
