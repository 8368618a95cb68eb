package testutil

import (
	"github.com/curaious/timesheet/internal/entry"
	"github.com/curaious/timesheet/internal/services/project"
)

func Float(v float64) *float64 { return &v }

func String(v string) *string { return &v }

// OnProject is an entry already resolved against p.
func OnProject(p *project.Project, hours float64) entry.Entry {
	return entry.New(entry.Resolved{ID: p.ID, Name: p.Name}, hours, "")
}

// NamedOnly is a legacy entry that only carries a project name.
func NamedOnly(name string, hours float64) entry.Entry {
	return entry.New(entry.ByName{Name: name}, hours, "")
}
