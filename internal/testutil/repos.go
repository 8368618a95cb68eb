package testutil

import (
	"bytes"
	"context"
	"sort"
	"time"

	"github.com/curaious/timesheet/internal/entry"
	"github.com/curaious/timesheet/internal/period"
	"github.com/curaious/timesheet/internal/services/project"
	"github.com/curaious/timesheet/internal/services/tasklog"
	"github.com/curaious/timesheet/internal/services/user"
	"github.com/google/uuid"
)

var (
	_ project.Repository = (*ProjectRepo)(nil)
	_ user.Repository    = (*UserRepo)(nil)
	_ tasklog.Repository = (*TaskLogRepo)(nil)
)

// =============================================================================
// Projects
// =============================================================================

type ProjectRepo struct {
	s *Store
}

func (r *ProjectRepo) Create(_ context.Context, req *project.CreateProjectRequest) (*project.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ts := r.s.now()
	p := &project.Project{
		ID:          uuid.New(),
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	r.s.projects[p.ID] = p
	return copyProject(p), nil
}

func (r *ProjectRepo) GetByID(_ context.Context, id uuid.UUID) (*project.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.projects[id]
	if !ok {
		return nil, project.ErrProjectNotFound
	}
	return copyProject(p), nil
}

func (r *ProjectRepo) GetActiveByName(_ context.Context, name string) (*project.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, p := range r.s.projects {
		if !p.IsDeleted && p.Name == name {
			return copyProject(p), nil
		}
	}
	return nil, project.ErrProjectNotFound
}

func (r *ProjectRepo) List(_ context.Context, includeDeleted bool) ([]*project.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]*project.Project, 0, len(r.s.projects))
	for _, p := range r.s.projects {
		if p.IsDeleted && !includeDeleted {
			continue
		}
		out = append(out, copyProject(p))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return bytes.Compare(out[i].ID[:], out[j].ID[:]) < 0
	})
	return out, nil
}

func (r *ProjectRepo) Update(_ context.Context, id uuid.UUID, req *project.UpdateProjectRequest) (*project.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.projects[id]
	if !ok {
		return nil, project.ErrProjectNotFound
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Status != nil {
		p.Status = *req.Status
	}
	p.UpdatedAt = r.s.now()
	return copyProject(p), nil
}

func (r *ProjectRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.projects[id]
	if !ok || p.IsDeleted {
		return project.ErrProjectNotFound
	}
	ts := r.s.now()
	p.IsDeleted = true
	p.DeletedAt = &ts
	p.UpdatedAt = ts
	return nil
}

// =============================================================================
// Users
// =============================================================================

type UserRepo struct {
	s *Store
}

func (r *UserRepo) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *UserRepo) ListNonDeleted(_ context.Context) ([]*user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]*user.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		if u.IsDeleted {
			continue
		}
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return bytes.Compare(out[i].ID[:], out[j].ID[:]) < 0
	})
	return out, nil
}

func (r *UserRepo) UserIDsWithLogs(_ context.Context, ids []uuid.UUID, rng period.Range) ([]uuid.UUID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	wanted := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	seen := map[uuid.UUID]bool{}
	var out []uuid.UUID
	for _, l := range r.s.logs {
		if l.IsDeleted || !wanted[l.UserID] || seen[l.UserID] || !rng.Contains(l.Date) {
			continue
		}
		seen[l.UserID] = true
		out = append(out, l.UserID)
	}
	return out, nil
}

// =============================================================================
// Task logs
// =============================================================================

type TaskLogRepo struct {
	s *Store
}

func (r *TaskLogRepo) GetByID(_ context.Context, id uuid.UUID) (*tasklog.TaskLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	l, ok := r.s.logs[id]
	if !ok || l.IsDeleted {
		return nil, tasklog.ErrTaskLogNotFound
	}
	return copyLog(l), nil
}

func (r *TaskLogRepo) GetByUserAndDate(_ context.Context, userID uuid.UUID, day time.Time) (*tasklog.TaskLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	day = period.Day(day)
	for _, l := range r.s.logs {
		if l.UserID == userID && l.Date.Equal(day) {
			return copyLog(l), nil
		}
	}
	return nil, tasklog.ErrTaskLogNotFound
}

func (r *TaskLogRepo) Insert(ctx context.Context, log *tasklog.TaskLog) (*tasklog.TaskLog, error) {
	if r.s.InsertHook != nil {
		if err := r.s.InsertHook(ctx, log); err != nil {
			return nil, err
		}
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	day := period.Day(log.Date)
	for _, l := range r.s.logs {
		if l.UserID == log.UserID && l.Date.Equal(day) {
			return nil, tasklog.ErrTaskLogConflict
		}
	}
	ts := r.s.now()
	created := &tasklog.TaskLog{
		ID:         uuid.New(),
		UserID:     log.UserID,
		Date:       day,
		TotalHours: log.TotalHours,
		Entries:    log.Entries.Clone(),
		CreatedAt:  ts,
		UpdatedAt:  ts,
	}
	r.s.logs[created.ID] = created
	return copyLog(created), nil
}

func (r *TaskLogRepo) Replace(_ context.Context, id uuid.UUID, totalHours float64, entries entry.Entries) (*tasklog.TaskLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	l, ok := r.s.logs[id]
	if !ok {
		return nil, tasklog.ErrTaskLogNotFound
	}
	l.TotalHours = totalHours
	l.Entries = entries.Clone()
	l.IsDeleted = false
	l.UpdatedAt = r.s.now()
	return copyLog(l), nil
}

func (r *TaskLogRepo) UpdateEntries(ctx context.Context, id uuid.UUID, entries entry.Entries, expectedUpdatedAt time.Time) (bool, error) {
	if r.s.UpdateEntriesHook != nil {
		if err := r.s.UpdateEntriesHook(ctx, id); err != nil {
			return false, err
		}
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	l, ok := r.s.logs[id]
	if !ok || l.IsDeleted || !l.UpdatedAt.Equal(expectedUpdatedAt) {
		return false, nil
	}
	l.Entries = entries.Clone()
	l.UpdatedAt = r.s.now()
	return true, nil
}

func (r *TaskLogRepo) List(_ context.Context, filter tasklog.Filter) ([]*tasklog.TaskLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*tasklog.TaskLog
	for _, l := range r.s.logs {
		if l.IsDeleted || !filter.Range.Contains(l.Date) {
			continue
		}
		if filter.UserID != nil && l.UserID != *filter.UserID {
			continue
		}
		if filter.Limit > 0 && filter.AfterID != nil && bytes.Compare(l.ID[:], filter.AfterID[:]) <= 0 {
			continue
		}
		out = append(out, copyLog(l))
	}

	if filter.Limit > 0 {
		sortByID(out)
		if len(out) > filter.Limit {
			out = out[:filter.Limit]
		}
		return out, nil
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *TaskLogRepo) ListByProjectID(_ context.Context, projectID uuid.UUID) ([]*tasklog.TaskLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*tasklog.TaskLog
	for _, l := range r.s.logs {
		if l.IsDeleted {
			continue
		}
		for _, e := range l.Entries {
			if e.ProjectID != nil && *e.ProjectID == projectID {
				out = append(out, copyLog(l))
				break
			}
		}
	}
	sortByID(out)
	return out, nil
}

func (r *TaskLogRepo) ListAuthored(ctx context.Context, rng period.Range) ([]*tasklog.AuthoredLog, error) {
	if r.s.ListAuthoredHook != nil {
		if err := r.s.ListAuthoredHook(ctx); err != nil {
			return nil, err
		}
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*tasklog.AuthoredLog
	for _, l := range r.s.logs {
		if l.IsDeleted || !rng.Contains(l.Date) {
			continue
		}
		u, ok := r.s.users[l.UserID]
		if !ok || u.IsDeleted {
			continue
		}
		out = append(out, &tasklog.AuthoredLog{TaskLog: *copyLog(l), UserName: u.Name, UserRole: u.Role})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return bytes.Compare(out[i].ID[:], out[j].ID[:]) < 0
	})
	return out, nil
}

func (r *TaskLogRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if l, ok := r.s.logs[id]; !ok || l.IsDeleted {
		return tasklog.ErrTaskLogNotFound
	}
	delete(r.s.logs, id)
	return nil
}
