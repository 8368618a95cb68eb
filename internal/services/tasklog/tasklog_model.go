package tasklog

import (
	"time"

	"github.com/curaious/timesheet/internal/entry"
	"github.com/curaious/timesheet/internal/services/user"
	"github.com/google/uuid"
)

// TaskLog is the single record of a user's day. (UserID, Date) is unique.
type TaskLog struct {
	ID         uuid.UUID     `json:"id" db:"id"`
	UserID     uuid.UUID     `json:"user_id" db:"user_id"`
	Date       time.Time     `json:"date" db:"date"`
	TotalHours float64       `json:"total_hours" db:"total_hours"`
	Entries    entry.Entries `json:"entries" db:"entries"`
	IsDeleted  bool          `json:"-" db:"is_deleted"`
	CreatedAt  time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at" db:"updated_at"`
}

// AuthoredLog is a task log joined with its (non-deleted) owner.
type AuthoredLog struct {
	TaskLog
	UserName string    `db:"user_name"`
	UserRole user.Role `db:"user_role"`
}

// EntryRequest is an entry as received from callers, before validation.
type EntryRequest struct {
	ProjectID   *string  `json:"project_id,omitempty"`
	ProjectName *string  `json:"project_name,omitempty"`
	Description string   `json:"description,omitempty"`
	Hours       *float64 `json:"hours"`
}

// CreateOrUpdateRequest captures payload for writing a user's day
type CreateOrUpdateRequest struct {
	UserID     string         `json:"user_id"`
	Date       string         `json:"date"`
	TotalHours *float64       `json:"total_hours"`
	Entries    []EntryRequest `json:"entries"`
}

// UpdateRequest captures payload for updating a task log by id
type UpdateRequest struct {
	TotalHours *float64        `json:"total_hours,omitempty"`
	Entries    *[]EntryRequest `json:"entries,omitempty"`
}

// ListRequest filters task logs. Empty fields are ignored.
type ListRequest struct {
	UserID      string
	StartDate   string
	EndDate     string
	ProjectName string
}

// WriteResult is a persisted log plus whether it replaced an existing one.
type WriteResult struct {
	*TaskLog
	IsUpdate bool `json:"is_update"`
}

// DeleteResult is returned by DeleteByID.
type DeleteResult struct {
	Deleted bool `json:"deleted"`
}
