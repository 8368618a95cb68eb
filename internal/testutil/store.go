// Package testutil provides in-memory repositories and fixtures for service tests.
package testutil

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/curaious/timesheet/internal/entry"
	"github.com/curaious/timesheet/internal/period"
	"github.com/curaious/timesheet/internal/services/project"
	"github.com/curaious/timesheet/internal/services/tasklog"
	"github.com/curaious/timesheet/internal/services/user"
	"github.com/google/uuid"
)

// Store keeps projects, users and task logs in memory. Its Projects, Users
// and TaskLogs views implement the matching repository interfaces.
//
// Hooks run before the store takes its lock, so they may call back into it.
type Store struct {
	mu       sync.Mutex
	projects map[uuid.UUID]*project.Project
	users    map[uuid.UUID]*user.User
	logs     map[uuid.UUID]*tasklog.TaskLog
	ticks    int

	// InsertHook runs before every task log insert; a non-nil error is returned as is.
	InsertHook func(ctx context.Context, log *tasklog.TaskLog) error

	// UpdateEntriesHook runs before every optimistic entries update.
	UpdateEntriesHook func(ctx context.Context, id uuid.UUID) error

	// ListAuthoredHook runs before every report query.
	ListAuthoredHook func(ctx context.Context) error
}

func NewStore() *Store {
	return &Store{
		projects: map[uuid.UUID]*project.Project{},
		users:    map[uuid.UUID]*user.User{},
		logs:     map[uuid.UUID]*tasklog.TaskLog{},
	}
}

// now is a strictly increasing clock so every write gets a distinct updated_at.
func (s *Store) now() time.Time {
	s.ticks++
	return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(s.ticks) * time.Millisecond)
}

func (s *Store) Projects() *ProjectRepo { return &ProjectRepo{s: s} }
func (s *Store) Users() *UserRepo { return &UserRepo{s: s} }
func (s *Store) TaskLogs() *TaskLogRepo { return &TaskLogRepo{s: s} }

// =============================================================================
// Fixtures
// =============================================================================

func (s *Store) AddProject(t *testing.T, name string) *project.Project {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.now()
	p := &project.Project{ID: uuid.New(), Name: name, Status: project.StatusInProgress, CreatedAt: ts, UpdatedAt: ts}
	s.projects[p.ID] = p
	return copyProject(p)
}

// RenameProject changes a project's name without going through a service.
func (s *Store) RenameProject(t *testing.T, id uuid.UUID, name string) {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[id]
	if !ok {
		t.Fatalf("unknown project %s", id)
	}
	p.Name = name
	p.UpdatedAt = s.now()
}

func (s *Store) DeleteProject(t *testing.T, id uuid.UUID) {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[id]
	if !ok {
		t.Fatalf("unknown project %s", id)
	}
	ts := s.now()
	p.IsDeleted = true
	p.DeletedAt = &ts
}

func (s *Store) AddUser(t *testing.T, name string, role user.Role, active bool) *user.User {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.now()
	u := &user.User{
		ID:        uuid.New(),
		Name:      name,
		Email:     strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com",
		Role:      role,
		Active:    active,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	s.users[u.ID] = u
	cp := *u
	return &cp
}

func (s *Store) DeleteUser(t *testing.T, id uuid.UUID) {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		t.Fatalf("unknown user %s", id)
	}
	u.IsDeleted = true
}

// AddLog stores a task log as is, without validation or resolution.
func (s *Store) AddLog(t *testing.T, userID uuid.UUID, day string, totalHours float64, entries ...entry.Entry) *tasklog.TaskLog {
	t.Helper()
	date, err := period.ParseDay(day)
	if err != nil {
		t.Fatalf("bad fixture date %q: %v", day, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, l := range s.logs {
		if l.UserID == userID && l.Date.Equal(date) {
			t.Fatalf("fixture log for %s on %s already exists", userID, day)
		}
	}
	ts := s.now()
	l := &tasklog.TaskLog{
		ID:         uuid.New(),
		UserID:     userID,
		Date:       date,
		TotalHours: totalHours,
		Entries:    entry.Entries(entries).Clone(),
		CreatedAt:  ts,
		UpdatedAt:  ts,
	}
	if l.Entries == nil {
		l.Entries = entry.Entries{}
	}
	s.logs[l.ID] = l
	return copyLog(l)
}

// SoftDeleteLog flags a log deleted the way legacy rows are.
func (s *Store) SoftDeleteLog(t *testing.T, id uuid.UUID) {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.logs[id]
	if !ok {
		t.Fatalf("unknown task log %s", id)
	}
	l.IsDeleted = true
}

// Log returns a copy of a stored log, deleted or not, or nil.
func (s *Store) Log(id uuid.UUID) *tasklog.TaskLog {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.logs[id]
	if !ok {
		return nil
	}
	return copyLog(l)
}

// LogCount counts every stored log, deleted ones included.
func (s *Store) LogCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.logs)
}

func copyProject(p *project.Project) *project.Project {
	cp := *p
	return &cp
}

func copyLog(l *tasklog.TaskLog) *tasklog.TaskLog {
	cp := *l
	cp.Entries = l.Entries.Clone()
	return &cp
}

func sortByID(logs []*tasklog.TaskLog) {
	sort.Slice(logs, func(i, j int) bool {
		return bytes.Compare(logs[i].ID[:], logs[j].ID[:]) < 0
	})
}
