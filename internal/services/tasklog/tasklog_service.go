package tasklog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/curaious/timesheet/internal/entry"
	"github.com/curaious/timesheet/internal/period"
	"github.com/curaious/timesheet/internal/perrors"
	"github.com/curaious/timesheet/internal/resolve"
	"github.com/curaious/timesheet/internal/services/project"
	"github.com/curaious/timesheet/internal/services/user"
	"github.com/google/uuid"
)

const (
	maxEntryHours     = 24
	maxProjectNameLen = 200
	maxDescriptionLen = 1000
)

// UserFinder looks up the owner of a task log.
type UserFinder interface {
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

// TaskLogService contains business logic for task logs. Entries are resolved
// against the project directory before they are saved and refreshed again
// whenever they are read.
type TaskLogService struct {
	repo      Repository
	users     UserFinder
	directory project.DirectorySource
	resolver  *resolve.Resolver
}

// NewTaskLogService constructs a new TaskLogService
func NewTaskLogService(repo Repository, users UserFinder, directory project.DirectorySource, resolver *resolve.Resolver) *TaskLogService {
	return &TaskLogService{
		repo:      repo,
		users:     users,
		directory: directory,
		resolver:  resolver,
	}
}

// CreateOrUpdate writes the single log of a user's day, replacing the hours
// and entries of an existing one. A concurrent create for the same day is
// retried once as a replace before ErrTaskLogConflict is returned.
func (s *TaskLogService) CreateOrUpdate(ctx context.Context, req *CreateOrUpdateRequest) (*WriteResult, error) {
	userID, err := uuid.Parse(strings.TrimSpace(req.UserID))
	if err != nil {
		return nil, perrors.NewValidationError("user_id", "must be a valid id")
	}
	if strings.TrimSpace(req.Date) == "" {
		return nil, perrors.NewValidationError("date", "is required")
	}
	day, err := period.ParseDay(req.Date)
	if err != nil {
		return nil, perrors.NewValidationError("date", err.Error())
	}
	if err := validateTotalHours(req.TotalHours); err != nil {
		return nil, err
	}
	entries, err := parseEntries(req.Entries)
	if err != nil {
		return nil, err
	}

	owner, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, user.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if owner.IsDeleted {
		return nil, user.ErrUserNotFound
	}

	entries = s.resolveForWrite(ctx, entries)

	result, err := s.write(ctx, userID, day, *req.TotalHours, entries)
	if errors.Is(err, ErrTaskLogConflict) {
		slog.WarnContext(ctx, "Concurrent task log write, retrying",
			slog.String("user_id", userID.String()), slog.String("date", day.Format(period.DayLayout)))
		result, err = s.write(ctx, userID, day, *req.TotalHours, entries)
	}
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (s *TaskLogService) write(ctx context.Context, userID uuid.UUID, day time.Time, totalHours float64, entries entry.Entries) (*WriteResult, error) {
	existing, err := s.repo.GetByUserAndDate(ctx, userID, day)
	switch {
	case err == nil:
		log, err := s.repo.Replace(ctx, existing.ID, totalHours, entries)
		if err != nil {
			if errors.Is(err, ErrTaskLogNotFound) {
				// Removed between the read and the replace.
				return nil, ErrTaskLogConflict
			}
			return nil, fmt.Errorf("failed to update task log: %w", err)
		}
		return &WriteResult{TaskLog: log, IsUpdate: !existing.IsDeleted}, nil

	case errors.Is(err, ErrTaskLogNotFound):
		log, err := s.repo.Insert(ctx, &TaskLog{
			UserID:     userID,
			Date:       day,
			TotalHours: totalHours,
			Entries:    entries,
		})
		if err != nil {
			if errors.Is(err, ErrTaskLogConflict) {
				return nil, ErrTaskLogConflict
			}
			return nil, fmt.Errorf("failed to create task log: %w", err)
		}
		return &WriteResult{TaskLog: log}, nil

	default:
		return nil, fmt.Errorf("failed to get task log: %w", err)
	}
}

// List returns logs matching req, newest day first. ProjectName keeps the
// logs with at least one entry whose refreshed project name contains it,
// ignoring case.
func (s *TaskLogService) List(ctx context.Context, req ListRequest) ([]*TaskLog, error) {
	var filter Filter
	if raw := strings.TrimSpace(req.UserID); raw != "" {
		userID, err := uuid.Parse(raw)
		if err != nil {
			return nil, perrors.NewValidationError("userId", "must be a valid id")
		}
		filter.UserID = &userID
	}
	rng, err := period.NewRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	filter.Range = rng

	logs, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list task logs: %w", err)
	}

	s.refresh(ctx, logs...)

	needle := strings.ToLower(strings.TrimSpace(req.ProjectName))
	if needle == "" {
		return logs, nil
	}

	matched := make([]*TaskLog, 0, len(logs))
	for _, log := range logs {
		if mentionsProject(log.Entries, needle) {
			matched = append(matched, log)
		}
	}
	return matched, nil
}

// GetSingle returns the log of userID on date, or nil when there is none.
func (s *TaskLogService) GetSingle(ctx context.Context, userID, date string) (*TaskLog, error) {
	id, err := uuid.Parse(strings.TrimSpace(userID))
	if err != nil {
		return nil, perrors.NewValidationError("userId", "must be a valid id")
	}
	if strings.TrimSpace(date) == "" {
		return nil, perrors.NewValidationError("date", "is required")
	}
	day, err := period.ParseDay(date)
	if err != nil {
		return nil, perrors.NewValidationError("date", err.Error())
	}

	log, err := s.repo.GetByUserAndDate(ctx, id, day)
	if err != nil {
		if errors.Is(err, ErrTaskLogNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get task log: %w", err)
	}
	if log.IsDeleted {
		return nil, nil
	}

	s.refresh(ctx, log)
	return log, nil
}

// UpdateByID changes the hours and/or entries of an existing log.
func (s *TaskLogService) UpdateByID(ctx context.Context, id uuid.UUID, req *UpdateRequest) (*TaskLog, error) {
	if req.TotalHours == nil && req.Entries == nil {
		return nil, perrors.NewValidationError("", "at least one of total_hours or entries is required")
	}
	if req.TotalHours != nil {
		if err := validateTotalHours(req.TotalHours); err != nil {
			return nil, err
		}
	}
	var entries entry.Entries
	if req.Entries != nil {
		parsed, err := parseEntries(*req.Entries)
		if err != nil {
			return nil, err
		}
		entries = parsed
	}

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrTaskLogNotFound) {
			return nil, ErrTaskLogNotFound
		}
		return nil, fmt.Errorf("failed to get task log: %w", err)
	}

	totalHours := existing.TotalHours
	if req.TotalHours != nil {
		totalHours = *req.TotalHours
	}
	if entries != nil {
		entries = s.resolveForWrite(ctx, entries)
	} else {
		entries = existing.Entries
	}

	log, err := s.repo.Replace(ctx, id, totalHours, entries)
	if err != nil {
		if errors.Is(err, ErrTaskLogNotFound) {
			return nil, ErrTaskLogNotFound
		}
		return nil, fmt.Errorf("failed to update task log: %w", err)
	}

	s.refresh(ctx, log)
	return log, nil
}

// DeleteByID removes a log permanently.
func (s *TaskLogService) DeleteByID(ctx context.Context, id uuid.UUID) (*DeleteResult, error) {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrTaskLogNotFound) {
			return nil, ErrTaskLogNotFound
		}
		return nil, fmt.Errorf("failed to delete task log: %w", err)
	}
	return &DeleteResult{Deleted: true}, nil
}

// resolveForWrite never fails: without a directory the entries are saved as given.
func (s *TaskLogService) resolveForWrite(ctx context.Context, entries entry.Entries) entry.Entries {
	dir, err := s.directory.Directory(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Project directory unavailable, saving entries unresolved", slog.Any("error", err))
		return entries
	}

	out := make(entry.Entries, len(entries))
	for i, e := range entries {
		resolved, outcome := s.resolver.ForWrite(dir, e)
		if outcome.Warning != nil {
			slog.WarnContext(ctx, "Unable to resolve task entry project", slog.String("warning", outcome.Warning.Error()))
		}
		out[i] = resolved
	}
	return out
}

// refresh read-repairs the cached project names of logs in place.
func (s *TaskLogService) refresh(ctx context.Context, logs ...*TaskLog) {
	if len(logs) == 0 {
		return
	}
	dir, err := s.directory.Directory(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Project directory unavailable, returning cached project names", slog.Any("error", err))
		return
	}
	for _, log := range logs {
		log.Entries = s.resolver.RefreshAll(ctx, dir, log.Entries)
	}
}

func mentionsProject(entries entry.Entries, needle string) bool {
	for _, e := range entries {
		name, ok := entry.CachedName(e.Ref())
		if ok && strings.Contains(strings.ToLower(name), needle) {
			return true
		}
	}
	return false
}

func validateTotalHours(totalHours *float64) error {
	if totalHours == nil {
		return perrors.NewValidationError("total_hours", "is required")
	}
	if !(*totalHours >= 0) {
		return perrors.NewValidationError("total_hours", "cannot be negative")
	}
	return nil
}

// parseEntries validates raw entries; nothing is persisted when it fails.
func parseEntries(reqs []EntryRequest) (entry.Entries, error) {
	if len(reqs) == 0 {
		return nil, perrors.NewValidationError("entries", "at least one entry is required")
	}

	entries := make(entry.Entries, 0, len(reqs))
	for i, req := range reqs {
		field := fmt.Sprintf("entries[%d]", i)

		var rawID, name string
		if req.ProjectID != nil {
			rawID = strings.TrimSpace(*req.ProjectID)
		}
		if req.ProjectName != nil {
			name = strings.TrimSpace(*req.ProjectName)
		}
		if rawID == "" && name == "" {
			return nil, perrors.NewValidationError(field, "must have either project_id or project_name")
		}
		if req.Hours == nil {
			return nil, perrors.NewValidationError(field+".hours", "is required")
		}
		if h := *req.Hours; !(h >= 0 && h <= maxEntryHours) {
			return nil, perrors.NewValidationError(field+".hours", "must be between 0 and 24")
		}
		if utf8.RuneCountInString(name) > maxProjectNameLen {
			return nil, perrors.NewValidationError(field+".project_name", "cannot exceed 200 characters")
		}
		description := strings.TrimSpace(req.Description)
		if utf8.RuneCountInString(description) > maxDescriptionLen {
			return nil, perrors.NewValidationError(field+".description", "cannot exceed 1000 characters")
		}

		var ref entry.Ref
		switch {
		case rawID != "":
			id, err := uuid.Parse(rawID)
			if err != nil {
				return nil, perrors.NewValidationError(field+".project_id", "must be a valid id")
			}
			if name != "" {
				ref = entry.Resolved{ID: id, Name: name}
			} else {
				ref = entry.ByID{ID: id}
			}
		default:
			ref = entry.ByName{Name: name}
		}
		entries = append(entries, entry.New(ref, *req.Hours, description))
	}
	return entries, nil
}
