package tasklog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	json "github.com/bytedance/sonic"
	"github.com/curaious/timesheet/internal/entry"
	"github.com/curaious/timesheet/internal/period"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	ErrTaskLogNotFound = errors.New("task log not found")
	ErrTaskLogConflict = errors.New("a task log for this user and date was written concurrently")
)

const taskLogColumns = `id, user_id, date, total_hours, entries, is_deleted, created_at, updated_at`

// Filter selects non-deleted task logs. With a Limit the result is a keyset
// page ordered by id, starting after AfterID; otherwise logs come newest day first.
type Filter struct {
	UserID  *uuid.UUID
	Range   period.Range
	AfterID *uuid.UUID
	Limit   int
}

// Repository is the task log store.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*TaskLog, error)
	// GetByUserAndDate returns the record holding (userID, day), deleted or not.
	GetByUserAndDate(ctx context.Context, userID uuid.UUID, day time.Time) (*TaskLog, error)
	Insert(ctx context.Context, log *TaskLog) (*TaskLog, error)
	Replace(ctx context.Context, id uuid.UUID, totalHours float64, entries entry.Entries) (*TaskLog, error)
	// UpdateEntries saves entries only if the record is still at expectedUpdatedAt.
	UpdateEntries(ctx context.Context, id uuid.UUID, entries entry.Entries, expectedUpdatedAt time.Time) (bool, error)
	List(ctx context.Context, filter Filter) ([]*TaskLog, error)
	ListByProjectID(ctx context.Context, projectID uuid.UUID) ([]*TaskLog, error)
	ListAuthored(ctx context.Context, rng period.Range) ([]*AuthoredLog, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// TaskLogRepo handles database operations for task logs
type TaskLogRepo struct {
	db *sqlx.DB
}

// NewTaskLogRepo creates a new task log repository
func NewTaskLogRepo(db *sqlx.DB) *TaskLogRepo {
	return &TaskLogRepo{db: db}
}

// GetByID retrieves a non-deleted task log
func (r *TaskLogRepo) GetByID(ctx context.Context, id uuid.UUID) (*TaskLog, error) {
	query := `SELECT ` + taskLogColumns + ` FROM task_logs WHERE id = $1 AND is_deleted = false`

	var log TaskLog
	err := r.db.GetContext(ctx, &log, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTaskLogNotFound
		}
		return nil, fmt.Errorf("failed to get task log: %w", err)
	}

	return &log, nil
}

func (r *TaskLogRepo) GetByUserAndDate(ctx context.Context, userID uuid.UUID, day time.Time) (*TaskLog, error) {
	query := `SELECT ` + taskLogColumns + ` FROM task_logs WHERE user_id = $1 AND date = $2`

	var log TaskLog
	err := r.db.GetContext(ctx, &log, query, userID, period.Day(day))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTaskLogNotFound
		}
		return nil, fmt.Errorf("failed to get task log: %w", err)
	}

	return &log, nil
}

// Insert creates a task log. A second insert for the same (user, date) fails with ErrTaskLogConflict.
func (r *TaskLogRepo) Insert(ctx context.Context, log *TaskLog) (*TaskLog, error) {
	query := `
        INSERT INTO task_logs (user_id, date, total_hours, entries)
        VALUES ($1, $2, $3, $4)
        RETURNING ` + taskLogColumns

	var created TaskLog
	err := r.db.GetContext(ctx, &created, query, log.UserID, period.Day(log.Date), log.TotalHours, log.Entries)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrTaskLogConflict
		}
		return nil, fmt.Errorf("failed to create task log: %w", err)
	}

	return &created, nil
}

// Replace overwrites the hours and entries of a record and revives it if it was deleted.
func (r *TaskLogRepo) Replace(ctx context.Context, id uuid.UUID, totalHours float64, entries entry.Entries) (*TaskLog, error) {
	query := `
        UPDATE task_logs
        SET total_hours = $2, entries = $3, is_deleted = false, updated_at = NOW()
        WHERE id = $1
        RETURNING ` + taskLogColumns

	var log TaskLog
	err := r.db.GetContext(ctx, &log, query, id, totalHours, entries)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTaskLogNotFound
		}
		return nil, fmt.Errorf("failed to update task log: %w", err)
	}

	return &log, nil
}

func (r *TaskLogRepo) UpdateEntries(ctx context.Context, id uuid.UUID, entries entry.Entries, expectedUpdatedAt time.Time) (bool, error) {
	query := `
        UPDATE task_logs
        SET entries = $2, updated_at = NOW()
        WHERE id = $1 AND updated_at = $3 AND is_deleted = false
    `

	result, err := r.db.ExecContext(ctx, query, id, entries, expectedUpdatedAt)
	if err != nil {
		return false, fmt.Errorf("failed to update task log entries: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected == 1, nil
}

// List retrieves non-deleted task logs matching filter
func (r *TaskLogRepo) List(ctx context.Context, filter Filter) ([]*TaskLog, error) {
	conditions := []string{"is_deleted = false"}
	args := []interface{}{}

	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)))
	}
	conditions, args = filter.Range.SQL("date", conditions, args)

	query := `SELECT ` + taskLogColumns + ` FROM task_logs WHERE `
	if filter.Limit > 0 {
		if filter.AfterID != nil {
			args = append(args, *filter.AfterID)
			conditions = append(conditions, fmt.Sprintf("id > $%d", len(args)))
		}
		args = append(args, filter.Limit)
		query += strings.Join(conditions, " AND ") + fmt.Sprintf(" ORDER BY id LIMIT $%d", len(args))
	} else {
		query += strings.Join(conditions, " AND ") + " ORDER BY date DESC, created_at DESC"
	}

	var logs []*TaskLog
	if err := r.db.SelectContext(ctx, &logs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list task logs: %w", err)
	}

	return logs, nil
}

// ListByProjectID retrieves non-deleted task logs with at least one entry pointing at projectID
func (r *TaskLogRepo) ListByProjectID(ctx context.Context, projectID uuid.UUID) ([]*TaskLog, error) {
	contains, err := json.Marshal([]map[string]string{{"project_id": projectID.String()}})
	if err != nil {
		return nil, fmt.Errorf("failed to encode project filter: %w", err)
	}

	query := `
        SELECT ` + taskLogColumns + `
        FROM task_logs
        WHERE is_deleted = false AND entries @> $1::jsonb
        ORDER BY id
    `

	var logs []*TaskLog
	if err := r.db.SelectContext(ctx, &logs, query, string(contains)); err != nil {
		return nil, fmt.Errorf("failed to list task logs by project: %w", err)
	}

	return logs, nil
}

// ListAuthored retrieves non-deleted logs in rng joined with their non-deleted owners
func (r *TaskLogRepo) ListAuthored(ctx context.Context, rng period.Range) ([]*AuthoredLog, error) {
	conditions := []string{"t.is_deleted = false", "u.is_deleted = false"}
	args := []interface{}{}
	conditions, args = rng.SQL("t.date", conditions, args)

	query := `
        SELECT t.id, t.user_id, t.date, t.total_hours, t.entries, t.is_deleted, t.created_at, t.updated_at,
               u.name AS user_name, u.role AS user_role
        FROM task_logs t
        JOIN users u ON u.id = t.user_id
        WHERE ` + strings.Join(conditions, " AND ") + `
        ORDER BY t.date, t.id`

	var logs []*AuthoredLog
	if err := r.db.SelectContext(ctx, &logs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list task logs for report: %w", err)
	}

	return logs, nil
}

// Delete removes a live task log permanently
func (r *TaskLogRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM task_logs WHERE id = $1 AND is_deleted = false`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task log: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrTaskLogNotFound
	}

	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation"
}
