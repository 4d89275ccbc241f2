package store

import (
	"database/sql"
	"fmt"

	"github.com/da11an/tatl-sub000/internal/models"
)

// AppendJournal writes one row to the append-only mutation journal.
func (t *Tx) AppendJournal(e *models.JournalEntry) error {
	taskID := sql.NullInt64{Int64: e.TaskID, Valid: e.TaskID != 0}
	res, err := t.tx.Exec(
		`INSERT INTO journal (op, task_id, detail, inputs_hash, ts) VALUES (?, ?, ?, ?, ?)`,
		e.Op, taskID, e.Detail, e.InputsHash, toEpoch(e.At),
	)
	if err != nil {
		return fmt.Errorf("insert journal entry: %w", err)
	}
	e.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("journal id: %w", err)
	}
	return nil
}

// Journal returns the most recent journal entries, newest first.
func (s *Store) Journal(limit int) ([]models.JournalEntry, error) {
	var entries []models.JournalEntry
	err := s.WithTx(func(tx *Tx) error {
		rows, err := tx.tx.Query(
			`SELECT id, op, task_id, detail, inputs_hash, ts FROM journal ORDER BY id DESC LIMIT ?`,
			limit,
		)
		if err != nil {
			return fmt.Errorf("query journal: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var e models.JournalEntry
			var taskID sql.NullInt64
			var ts int64
			if err := rows.Scan(&e.ID, &e.Op, &taskID, &e.Detail, &e.InputsHash, &ts); err != nil {
				return fmt.Errorf("scan journal entry: %w", err)
			}
			if taskID.Valid {
				e.TaskID = taskID.Int64
			}
			e.At = fromEpoch(ts)
			entries = append(entries, e)
		}
		return rows.Err()
	})
	return entries, err
}
