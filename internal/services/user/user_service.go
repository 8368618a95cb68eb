package user

import (
	"context"
	"fmt"
	"sort"

	"github.com/curaious/timesheet/internal/period"
	"github.com/google/uuid"
)

type UserService struct {
	repo Repository
}

func NewUserService(repo Repository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// Roster returns the users a report over rng must account for: every active
// user, plus inactive users who logged time inside rng. Deleted users never
// appear. The result is ordered by name.
func (s *UserService) Roster(ctx context.Context, rng period.Range) ([]*User, error) {
	users, err := s.repo.ListNonDeleted(ctx)
	if err != nil {
		return nil, err
	}

	var inactive []uuid.UUID
	for _, u := range users {
		if !u.Active {
			inactive = append(inactive, u.ID)
		}
	}

	relevant := map[uuid.UUID]bool{}
	if len(inactive) > 0 {
		ids, err := s.repo.UserIDsWithLogs(ctx, inactive, rng)
		if err != nil {
			return nil, fmt.Errorf("failed to load roster: %w", err)
		}
		for _, id := range ids {
			relevant[id] = true
		}
	}

	roster := make([]*User, 0, len(users))
	for _, u := range users {
		if u.IsDeleted {
			continue
		}
		if u.Active || relevant[u.ID] {
			roster = append(roster, u)
		}
	}

	sort.SliceStable(roster, func(i, j int) bool {
		return roster[i].Name < roster[j].Name
	})
	return roster, nil
}
