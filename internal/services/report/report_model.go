package report

import (
	"time"

	"github.com/curaious/timesheet/internal/entry"
	"github.com/curaious/timesheet/internal/services/user"
	"github.com/google/uuid"
)

// Unassigned is the bucket for entries with neither a known project nor a stored name.
const Unassigned = "Unassigned"

// RoleHours always carries every report role, zero when nothing was logged.
type RoleHours struct {
	QA     float64 `json:"QA"`
	DESIGN float64 `json:"DESIGN"`
	DEV    float64 `json:"DEV"`
	PM     float64 `json:"PM"`
}

// add books hours against role. Roles without a column, Admin included, are ignored.
func (h *RoleHours) add(role user.Role, hours float64) {
	switch role {
	case user.RoleQA:
		h.QA += hours
	case user.RoleDesign:
		h.DESIGN += hours
	case user.RoleDev:
		h.DEV += hours
	case user.RolePM:
		h.PM += hours
	}
}

func (h *RoleHours) merge(o RoleHours) {
	h.QA += o.QA
	h.DESIGN += o.DESIGN
	h.DEV += o.DEV
	h.PM += o.PM
}

// ProjectRow is one project of the grand report. TotalHours also counts
// hours of users whose role has no column. ProjectID is set only when every
// entry in the row points at the same live project.
type ProjectRow struct {
	Project    string     `json:"project"`
	ProjectID  *uuid.UUID `json:"project_id,omitempty"`
	TotalHours float64    `json:"total_hours"`
	RoleHours
}

type Totals struct {
	TotalHours float64 `json:"total_hours"`
	RoleHours
}

type DateRange struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type GrandReport struct {
	Projects      []ProjectRow `json:"projects"`
	Totals        Totals       `json:"totals"`
	DateRange     DateRange    `json:"date_range"`
	TotalProjects int          `json:"total_projects"`
}

type UserLog struct {
	ID         uuid.UUID     `json:"id"`
	Date       time.Time     `json:"date"`
	TotalHours float64       `json:"total_hours"`
	Entries    entry.Entries `json:"entries"`
}

// UserLogs is one roster member with the logs they wrote in range.
type UserLogs struct {
	UserID     uuid.UUID `json:"user_id"`
	Name       string    `json:"name"`
	Role       user.Role `json:"role"`
	TotalHours float64   `json:"total_hours"`
	Logs       []UserLog `json:"logs"`
}

type ProjectUsersReport struct {
	GrandReport GrandReport `json:"grand_report"`
	UsersLogs   []UserLogs  `json:"users_logs"`
}
