package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/curaious/timesheet/internal/migrations"
	"github.com/curaious/timesheet/internal/services/user"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

// PostgresDSNEnv names the connection string repository tests run against.
const PostgresDSNEnv = "TIMESHEET_TEST_DSN"

// migrateLockKey serialises migrations between test binaries sharing one database.
const migrateLockKey = 7202603010900

// PostgresDB connects to the database in TIMESHEET_TEST_DSN and brings its
// schema up to date. The test is skipped when the variable is unset.
//
// Tests share the database, so each one works on users and projects it
// created itself rather than truncating tables.
func PostgresDB(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := os.Getenv(PostgresDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set, skipping postgres repository test", PostgresDSNEnv)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := sqlx.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.PingContext(ctx))

	conn, err := db.Connx(ctx)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.ExecContext(ctx, `SELECT pg_advisory_lock($1)`, migrateLockKey)
	require.NoError(t, err)
	defer conn.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, migrateLockKey)

	migrator, err := migrations.NewMigrator(db)
	require.NoError(t, err)
	require.NoError(t, migrator.Up(ctx, 0))

	return db
}

// InsertUser writes a user row with a unique email and returns it.
func InsertUser(t *testing.T, db *sqlx.DB, name string, role user.Role) *user.User {
	t.Helper()

	var u user.User
	err := db.GetContext(context.Background(), &u, `
		INSERT INTO users (name, email, role)
		VALUES ($1, $2, $3)
		RETURNING id, name, email, role, active, is_deleted, created_at, updated_at
	`, name, uuid.NewString()+"@example.com", role)
	require.NoError(t, err)
	return &u
}
