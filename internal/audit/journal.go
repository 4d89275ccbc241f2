// Package audit appends one journal row per ledger mutation. The
// journal is the answer to "what did I change and when": append-only,
// carrying the operation name, the affected task, a digest of the
// inputs, and a short human detail.
package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/da11an/tatl-sub000/internal/models"
	"github.com/da11an/tatl-sub000/internal/store"
)

// Writer records ledger mutations in the journal.
type Writer struct {
	store *store.Store
}

// NewWriter creates a journal writer over the store.
func NewWriter(st *store.Store) *Writer {
	return &Writer{store: st}
}

// Record appends one journal row inside the caller's transaction, so
// the row commits or rolls back with the mutation it describes. A
// taskID of zero means the operation was not about one task.
func (w *Writer) Record(tx *store.Tx, op string, taskID int64, inputs any, detail string, at time.Time) error {
	entry := &models.JournalEntry{
		Op:         op,
		TaskID:     taskID,
		Detail:     detail,
		InputsHash: hashInputs(inputs),
		At:         at,
	}
	return tx.AppendJournal(entry)
}

// Tail returns the most recent entries, newest first.
func (w *Writer) Tail(limit int) ([]models.JournalEntry, error) {
	return w.store.Journal(limit)
}

// hashInputs digests the operation inputs for tamper-evident replay
// checks. Unmarshalable inputs hash to a fixed marker rather than
// failing the mutation.
func hashInputs(inputs any) string {
	raw, err := json.Marshal(inputs)
	if err != nil {
		return "hash_error"
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
