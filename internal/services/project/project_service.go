package project

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/curaious/timesheet/internal/perrors"
	"github.com/google/uuid"
)

var ErrProjectAlreadyExists = errors.New("project already exists")

// ProjectService contains business logic for projects
type ProjectService struct {
	repo Repository

	// invalidate is called after every successful mutation so cached directories reload.
	invalidate func()
}

// NewProjectService constructs a new ProjectService
func NewProjectService(repo Repository) *ProjectService {
	return &ProjectService{repo: repo, invalidate: func() {}}
}

// OnChange registers fn to run after projects are created, renamed or deleted.
func (s *ProjectService) OnChange(fn func()) {
	prev := s.invalidate
	s.invalidate = func() {
		prev()
		fn()
	}
}

// Create registers a new project ensuring name uniqueness among live projects
func (s *ProjectService) Create(ctx context.Context, req *CreateProjectRequest) (*Project, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if err := validateName(req.Name); err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(req.Description) > 1000 {
		return nil, perrors.NewValidationError("description", "cannot exceed 1000 characters")
	}
	if req.Status == "" {
		req.Status = StatusBacklog
	}
	if !req.Status.Valid() {
		return nil, perrors.NewValidationError("status", "must be one of: done, inprogress, paused, backlog")
	}

	if _, err := s.repo.GetActiveByName(ctx, req.Name); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrProjectAlreadyExists, req.Name)
	} else if !errors.Is(err, ErrProjectNotFound) {
		return nil, fmt.Errorf("failed to validate project name: %w", err)
	}

	project, err := s.repo.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	s.invalidate()
	return project, nil
}

// GetByID fetches a project by its identifier
func (s *ProjectService) GetByID(ctx context.Context, id uuid.UUID) (*Project, error) {
	project, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrProjectNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return project, nil
}

// List returns projects ordered by name
func (s *ProjectService) List(ctx context.Context, includeDeleted bool) ([]*Project, error) {
	projects, err := s.repo.List(ctx, includeDeleted)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	return projects, nil
}

// Update modifies mutable project fields. The returned bool reports a rename.
func (s *ProjectService) Update(ctx context.Context, id uuid.UUID, req *UpdateProjectRequest) (*Project, bool, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrProjectNotFound) {
			return nil, false, ErrProjectNotFound
		}
		return nil, false, fmt.Errorf("failed to get project: %w", err)
	}
	if existing.IsDeleted {
		return nil, false, ErrProjectNotFound
	}

	renamed := false
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		req.Name = &name
		if err := validateName(name); err != nil {
			return nil, false, err
		}
		if name != existing.Name {
			if other, err := s.repo.GetActiveByName(ctx, name); err == nil && other.ID != id {
				return nil, false, fmt.Errorf("%w: %s", ErrProjectAlreadyExists, name)
			} else if err != nil && !errors.Is(err, ErrProjectNotFound) {
				return nil, false, fmt.Errorf("failed to validate project name: %w", err)
			}
			renamed = true
		}
	}
	if req.Description != nil {
		desc := strings.TrimSpace(*req.Description)
		if utf8.RuneCountInString(desc) > 1000 {
			return nil, false, perrors.NewValidationError("description", "cannot exceed 1000 characters")
		}
		req.Description = &desc
	}
	if req.Status != nil && !req.Status.Valid() {
		return nil, false, perrors.NewValidationError("status", "must be one of: done, inprogress, paused, backlog")
	}

	project, err := s.repo.Update(ctx, id, req)
	if err != nil {
		if errors.Is(err, ErrProjectNotFound) {
			return nil, false, ErrProjectNotFound
		}
		return nil, false, fmt.Errorf("failed to update project: %w", err)
	}

	s.invalidate()
	return project, renamed, nil
}

// Delete soft deletes a project by ID
func (s *ProjectService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, ErrProjectNotFound) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("failed to delete project: %w", err)
	}

	s.invalidate()
	return nil
}

// Directory loads a fresh snapshot of the live projects.
func (s *ProjectService) Directory(ctx context.Context) (*Directory, error) {
	projects, err := s.repo.List(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("failed to load project directory: %w", err)
	}
	return NewDirectory(projects), nil
}

func validateName(name string) error {
	n := utf8.RuneCountInString(name)
	if n < 2 || n > 200 {
		return perrors.NewValidationError("name", "must be between 2 and 200 characters")
	}
	return nil
}
