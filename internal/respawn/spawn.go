package respawn

import (
	"time"

	"github.com/da11an/tatl-sub000/internal/models"
)

// Spawn builds the replacement for a recurring task that just reached
// a terminal lifecycle. The result is a fresh entity: description,
// project, tags, allocation, and the recurrence rule carry over; due is
// the computed occurrence; identity, sessions, queue membership,
// external hand-offs, and the old scheduled/wait dates do not.
func Spawn(src *models.Task, due time.Time, now time.Time) *models.Task {
	return &models.Task{
		Description: src.Description,
		Project:     src.Project,
		Tags:        append([]string(nil), src.Tags...),
		Lifecycle:   models.LifecycleOpen,
		Due:         &due,
		Alloc:       src.Alloc,
		Recurrence:  src.Recurrence,
		CreatedAt:   now.UTC(),
		ModifiedAt:  now.UTC(),
	}
}
