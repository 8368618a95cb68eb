package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/curaious/timesheet/internal/period"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var ErrUserNotFound = errors.New("user not found")

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	ListNonDeleted(ctx context.Context) ([]*User, error)
	UserIDsWithLogs(ctx context.Context, ids []uuid.UUID, rng period.Range) ([]uuid.UUID, error)
}

type UserRepo struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	query := `
		SELECT id, name, email, role, active, is_deleted, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	var user User
	err := r.db.GetContext(ctx, &user, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *UserRepo) ListNonDeleted(ctx context.Context) ([]*User, error) {
	query := `
		SELECT id, name, email, role, active, is_deleted, created_at, updated_at
		FROM users
		WHERE is_deleted = false
		ORDER BY name, id
	`
	var users []*User
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// UserIDsWithLogs returns which of ids own at least one non-deleted task log in rng.
func (r *UserRepo) UserIDsWithLogs(ctx context.Context, ids []uuid.UUID, rng period.Range) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = id.String()
	}

	conditions := []string{"user_id = ANY($1::uuid[])", "is_deleted = false"}
	args := []interface{}{pq.Array(raw)}
	conditions, args = rng.SQL("date", conditions, args)

	query := `SELECT DISTINCT user_id FROM task_logs WHERE ` + strings.Join(conditions, " AND ")

	var found []uuid.UUID
	if err := r.db.SelectContext(ctx, &found, query, args...); err != nil {
		return nil, fmt.Errorf("failed to find users with logs: %w", err)
	}
	return found, nil
}
