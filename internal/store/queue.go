package store

import "fmt"

// Queue returns the queued task ids in order; index 0 is the head.
func (t *Tx) Queue() ([]int64, error) {
	rows, err := t.tx.Query(`SELECT task_id FROM queue ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query queue: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan queue entry: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SetQueue replaces the whole queue ordering. Positions are assigned
// densely from 0 in slice order.
func (t *Tx) SetQueue(ids []int64) error {
	if _, err := t.tx.Exec(`DELETE FROM queue`); err != nil {
		return fmt.Errorf("clear queue: %w", err)
	}
	for pos, id := range ids {
		if _, err := t.tx.Exec(`INSERT INTO queue (position, task_id) VALUES (?, ?)`, pos, id); err != nil {
			return fmt.Errorf("insert queue entry %d: %w", pos, err)
		}
	}
	return nil
}

// QueuePositions returns the raw position -> task id mapping as stored.
// The ledger's invariant audit uses it to detect gaps or duplicates
// without the densifying effect of Queue's ordered read.
func (t *Tx) QueuePositions() (map[int64]int64, error) {
	rows, err := t.tx.Query(`SELECT position, task_id FROM queue`)
	if err != nil {
		return nil, fmt.Errorf("query queue positions: %w", err)
	}
	defer rows.Close()

	entries := make(map[int64]int64)
	for rows.Next() {
		var pos, id int64
		if err := rows.Scan(&pos, &id); err != nil {
			return nil, fmt.Errorf("scan queue position: %w", err)
		}
		entries[pos] = id
	}
	return entries, rows.Err()
}

// Queue returns the queued task ids in order outside any caller
// transaction.
func (s *Store) Queue() ([]int64, error) {
	var ids []int64
	err := s.WithTx(func(tx *Tx) error {
		var err error
		ids, err = tx.Queue()
		return err
	})
	return ids, err
}
