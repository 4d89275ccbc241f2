package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/da11an/tatl-sub000/internal/models"
	"github.com/google/uuid"
)

const taskColumns = `id, uuid, description, project, tags, lifecycle, due_ts, scheduled_ts, wait_ts, alloc_seconds, recurrence, created_ts, modified_ts`

// CreateTask inserts a new task and assigns its id. A missing UUID is
// generated here.
func (t *Tx) CreateTask(task *models.Task) error {
	if task.UUID == "" {
		task.UUID = uuid.New().String()
	}
	tags, err := json.Marshal(task.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}

	res, err := t.tx.Exec(
		`INSERT INTO tasks (uuid, description, project, tags, lifecycle, due_ts, scheduled_ts, wait_ts, alloc_seconds, recurrence, created_ts, modified_ts)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.UUID, task.Description, task.Project, string(tags), task.Lifecycle,
		nullEpoch(task.Due), nullEpoch(task.Scheduled), nullEpoch(task.Wait),
		int64(task.Alloc/time.Second), task.Recurrence,
		toEpoch(task.CreatedAt), toEpoch(task.ModifiedAt),
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	task.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("task id: %w", err)
	}
	return nil
}

// GetTask retrieves a task by id. Returns nil without error when the
// task does not exist.
func (t *Tx) GetTask(id int64) (*models.Task, error) {
	row := t.tx.QueryRow(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	task, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query task: %w", err)
	}
	return task, nil
}

// ListTasks returns tasks ordered by id, optionally filtered by
// lifecycle.
func (t *Tx) ListTasks(lifecycle models.Lifecycle) ([]models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`
	var args []any
	if lifecycle != "" {
		query += ` WHERE lifecycle = ?`
		args = append(args, lifecycle)
	}
	query += ` ORDER BY id`

	rows, err := t.tx.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

// UpdateTask rewrites every mutable column of a task.
func (t *Tx) UpdateTask(task *models.Task) error {
	tags, err := json.Marshal(task.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}

	_, err = t.tx.Exec(
		`UPDATE tasks SET description = ?, project = ?, tags = ?, lifecycle = ?, due_ts = ?, scheduled_ts = ?, wait_ts = ?, alloc_seconds = ?, recurrence = ?, modified_ts = ? WHERE id = ?`,
		task.Description, task.Project, string(tags), task.Lifecycle,
		nullEpoch(task.Due), nullEpoch(task.Scheduled), nullEpoch(task.Wait),
		int64(task.Alloc/time.Second), task.Recurrence,
		toEpoch(task.ModifiedAt), task.ID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return nil
}

// DeleteTask removes the task row itself. Sessions, queue membership,
// and external-waiting records are separate rows and must be removed by
// the caller; the store never cascades.
func (t *Tx) DeleteTask(id int64) error {
	_, err := t.tx.Exec(`DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (*models.Task, error) {
	var task models.Task
	var tags string
	var due, scheduled, wait sql.NullInt64
	var allocSec, createdTS, modifiedTS int64

	err := row.Scan(&task.ID, &task.UUID, &task.Description, &task.Project, &tags,
		&task.Lifecycle, &due, &scheduled, &wait, &allocSec, &task.Recurrence,
		&createdTS, &modifiedTS)
	if err != nil {
		return nil, err
	}

	if tags != "" {
		if err := json.Unmarshal([]byte(tags), &task.Tags); err != nil {
			return nil, fmt.Errorf("unmarshal tags: %w", err)
		}
	}
	task.Due = epochPtr(due)
	task.Scheduled = epochPtr(scheduled)
	task.Wait = epochPtr(wait)
	task.Alloc = time.Duration(allocSec) * time.Second
	task.CreatedAt = fromEpoch(createdTS)
	task.ModifiedAt = fromEpoch(modifiedTS)
	return &task, nil
}

// --- Store-level read conveniences ---

// GetTask retrieves a task by id outside any caller transaction.
func (s *Store) GetTask(id int64) (*models.Task, error) {
	var task *models.Task
	err := s.WithTx(func(tx *Tx) error {
		var err error
		task, err = tx.GetTask(id)
		return err
	})
	return task, err
}

// ListTasks returns tasks ordered by id, optionally filtered by
// lifecycle.
func (s *Store) ListTasks(lifecycle models.Lifecycle) ([]models.Task, error) {
	var tasks []models.Task
	err := s.WithTx(func(tx *Tx) error {
		var err error
		tasks, err = tx.ListTasks(lifecycle)
		return err
	})
	return tasks, err
}
