package project

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusDone       Status = "done"
	StatusInProgress Status = "inprogress"
	StatusPaused     Status = "paused"
	StatusBacklog    Status = "backlog"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDone, StatusInProgress, StatusPaused, StatusBacklog:
		return true
	}
	return false
}

// Project is the canonical identity task log entries allocate time to.
// ID never changes; Name is the current canonical label.
type Project struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Description string     `json:"description" db:"description"`
	Status      Status     `json:"status" db:"status"`
	IsDeleted   bool       `json:"is_deleted" db:"is_deleted"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// CreateProjectRequest captures payload for creating a project
type CreateProjectRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=200"`
	Description string `json:"description,omitempty" validate:"max=1000"`
	Status      Status `json:"status,omitempty"`
}

// UpdateProjectRequest captures payload for updating a project
type UpdateProjectRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=2,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=1000"`
	Status      *Status `json:"status,omitempty"`
}
