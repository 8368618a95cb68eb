package user_test

import (
	"context"
	"testing"

	"github.com/curaious/timesheet/internal/services/user"
	"github.com/curaious/timesheet/internal/testutil"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func insertLogRow(t *testing.T, db *sqlx.DB, userID uuid.UUID, date string, deleted bool) {
	t.Helper()
	_, err := db.ExecContext(context.Background(), `
		INSERT INTO task_logs (user_id, date, total_hours, is_deleted)
		VALUES ($1, $2, 1, $3)
	`, userID, date, deleted)
	require.NoError(t, err)
}

// =============================================================================
// UserRepo (postgres)
// =============================================================================

func TestUserRepoUserIDsWithLogs(t *testing.T) {
	ctx := context.Background()
	db := testutil.PostgresDB(t)
	repo := user.NewUserRepo(db)

	inRange := testutil.InsertUser(t, db, "Ann", user.RoleDev)
	outOfRange := testutil.InsertUser(t, db, "Ben", user.RoleQA)
	deletedLog := testutil.InsertUser(t, db, "Cal", user.RolePM)
	noLogs := testutil.InsertUser(t, db, "Dee", user.RoleDesign)
	notAsked := testutil.InsertUser(t, db, "Eve", user.RoleDev)

	insertLogRow(t, db, inRange.ID, "2025-10-01", false)
	insertLogRow(t, db, inRange.ID, "2025-10-02", false)
	insertLogRow(t, db, outOfRange.ID, "2025-09-30", false)
	insertLogRow(t, db, deletedLog.ID, "2025-10-05", true)
	insertLogRow(t, db, notAsked.ID, "2025-10-05", false)

	ids := []uuid.UUID{inRange.ID, outOfRange.ID, deletedLog.ID, noLogs.ID}
	found, err := repo.UserIDsWithLogs(ctx, ids, october(t))
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{inRange.ID}, found)

	found, err = repo.UserIDsWithLogs(ctx, nil, october(t))
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestUserRepoGetByID(t *testing.T) {
	ctx := context.Background()
	db := testutil.PostgresDB(t)
	repo := user.NewUserRepo(db)
	u := testutil.InsertUser(t, db, "Ann", user.RoleAdmin)

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ann", got.Name)
	assert.Equal(t, user.RoleAdmin, got.Role)
	assert.True(t, got.Active)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}
