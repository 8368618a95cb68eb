// Package resolve normalises task log entries against the project directory.
//
// Resolution only ever enriches an entry: it never drops or rejects one and
// never writes to the directory. A miss leaves the entry as it was and is
// reported as a Warning.
package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/curaious/timesheet/internal/entry"
	"github.com/curaious/timesheet/internal/services/project"
	"github.com/google/uuid"
)

type Method string

const (
	MethodID         Method = "id"
	MethodExact      Method = "exact"
	MethodMapping    Method = "mapping"
	MethodFuzzy      Method = "fuzzy"
	MethodOrphaned   Method = "orphaned"
	MethodUnresolved Method = "unresolved"
)

// Outcome describes how one entry was resolved.
type Outcome struct {
	Method  Method
	Project *project.Project
	// Changed is true when the returned entry differs from the input.
	Changed bool
	Warning *Warning
}

// Warning is a non-fatal resolution miss.
type Warning struct {
	Ref    entry.Ref
	Reason string
}

func (w *Warning) Error() string {
	switch r := w.Ref.(type) {
	case entry.ByID:
		return fmt.Sprintf("project %s: %s", r.ID, w.Reason)
	case entry.ByName:
		return fmt.Sprintf("project %q: %s", r.Name, w.Reason)
	case entry.Resolved:
		return fmt.Sprintf("project %s (%q): %s", r.ID, r.Name, w.Reason)
	case entry.None:
		return w.Reason
	}
	return w.Reason
}

type Resolver struct {
	mapping *Mapping
	now     func() time.Time
}

// New returns a resolver. mapping may be nil.
func New(mapping *Mapping) *Resolver {
	return &Resolver{mapping: mapping, now: time.Now}
}

// WithClock overrides the time rename rules are evaluated at.
func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	r.now = now
	return r
}

// ForWrite resolves an entry before it is persisted: ids gain their name,
// names gain their id on an exact match, and cached names are refreshed.
func (r *Resolver) ForWrite(dir *project.Directory, e entry.Entry) (entry.Entry, Outcome) {
	switch ref := e.Ref().(type) {
	case entry.ByID:
		return r.byID(dir, e, ref.ID, "")
	case entry.Resolved:
		return r.byID(dir, e, ref.ID, ref.Name)
	case entry.ByName:
		if p, ok := dir.FindByName(ref.Name); ok {
			return withProject(e, p, MethodExact)
		}
		return e, unresolved(ref, "no project with this exact name")
	case entry.None:
		return e, unresolved(ref, "entry has no project reference")
	}
	return e, Outcome{Method: MethodUnresolved}
}

// Refresh re-resolves a stored entry for reading. The id is authoritative
// whenever the directory knows it; name-only entries fall back from an exact
// match to the rename mapping and finally to fuzzy matching.
func (r *Resolver) Refresh(dir *project.Directory, e entry.Entry) (entry.Entry, Outcome) {
	switch ref := e.Ref().(type) {
	case entry.ByID:
		return r.byID(dir, e, ref.ID, "")
	case entry.Resolved:
		return r.byID(dir, e, ref.ID, ref.Name)
	case entry.ByName:
		if p, ok := dir.FindByName(ref.Name); ok {
			return withProject(e, p, MethodExact)
		}
		if p, ok := r.FindMapped(dir, ref.Name); ok {
			return withProject(e, p, MethodMapping)
		}
		if p, ok := FindFuzzy(dir, ref.Name); ok {
			return withProject(e, p, MethodFuzzy)
		}
		return e, unresolved(ref, "no matching project")
	case entry.None:
		return e, unresolved(ref, "entry has no project reference")
	}
	return e, Outcome{Method: MethodUnresolved}
}

// RefreshAll refreshes entries into a new slice and logs every warning.
func (r *Resolver) RefreshAll(ctx context.Context, dir *project.Directory, entries entry.Entries) entry.Entries {
	out := make(entry.Entries, len(entries))
	for i, e := range entries {
		resolved, outcome := r.Refresh(dir, e)
		if outcome.Warning != nil {
			slog.WarnContext(ctx, "Unable to resolve task entry project", slog.String("warning", outcome.Warning.Error()), slog.String("method", string(outcome.Method)))
		}
		out[i] = resolved
	}
	return out
}

// FindMapped follows the rename mapping from name; the target must exist in dir.
func (r *Resolver) FindMapped(dir *project.Directory, name string) (*project.Project, bool) {
	newName, ok := r.mapping.Lookup(name, r.now())
	if !ok {
		return nil, false
	}
	return dir.FindByName(newName)
}

// FindFuzzy returns the first project, in directory order, whose name contains
// name or is contained by it, ignoring case. This is a heuristic: when several
// projects match, the first one in name order is chosen, which is repeatable
// but not necessarily right.
func FindFuzzy(dir *project.Directory, name string) (*project.Project, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return nil, false
	}
	for _, p := range dir.List() {
		candidate := strings.ToLower(p.Name)
		if candidate == "" {
			continue
		}
		if strings.Contains(candidate, needle) || strings.Contains(needle, candidate) {
			return p, true
		}
	}
	return nil, false
}

func (r *Resolver) byID(dir *project.Directory, e entry.Entry, id uuid.UUID, cached string) (entry.Entry, Outcome) {
	p, ok := dir.FindByID(id)
	if !ok {
		ref := e.Ref()
		if cached == "" {
			return e, unresolved(ref, "project id not in directory")
		}
		return e, Outcome{Method: MethodOrphaned, Warning: &Warning{Ref: ref, Reason: "project id not in directory, keeping last known name"}}
	}
	return withProject(e, p, MethodID)
}

func withProject(e entry.Entry, p *project.Project, method Method) (entry.Entry, Outcome) {
	before := e.Ref()
	after := entry.Resolved{ID: p.ID, Name: p.Name}
	return e.WithRef(after), Outcome{
		Method:  method,
		Project: p,
		Changed: before != entry.Ref(after),
	}
}

func unresolved(ref entry.Ref, reason string) Outcome {
	return Outcome{Method: MethodUnresolved, Warning: &Warning{Ref: ref, Reason: reason}}
}
