package user_test

import (
	"context"
	"testing"

	"github.com/curaious/timesheet/internal/period"
	"github.com/curaious/timesheet/internal/services/user"
	"github.com/curaious/timesheet/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(users []*user.User) []string {
	out := make([]string, len(users))
	for i, u := range users {
		out[i] = u.Name
	}
	return out
}

func october(t *testing.T) period.Range {
	t.Helper()
	rng, err := period.NewRange("2025-10-01", "2025-10-31")
	require.NoError(t, err)
	return rng
}

func TestRosterExcludesIdleInactiveUsers(t *testing.T) {
	store := testutil.NewStore()
	store.AddUser(t, "Active Ann", user.RoleDev, true)
	idle := store.AddUser(t, "Idle Ian", user.RoleQA, false)
	store.AddLog(t, idle.ID, "2025-09-30", 8, testutil.NamedOnly("Alpha", 8))

	roster, err := user.NewUserService(store.Users()).Roster(context.Background(), october(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"Active Ann"}, names(roster))
}

func TestRosterIncludesInactiveUserWithLogInRange(t *testing.T) {
	store := testutil.NewStore()
	store.AddUser(t, "Zed", user.RoleDev, true)
	idle := store.AddUser(t, "Ian", user.RoleQA, false)
	store.AddLog(t, idle.ID, "2025-10-15", 8, testutil.NamedOnly("Alpha", 8))

	roster, err := user.NewUserService(store.Users()).Roster(context.Background(), october(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"Ian", "Zed"}, names(roster))
}

func TestRosterSkipsDeletedUsersAndDeletedLogs(t *testing.T) {
	store := testutil.NewStore()
	deleted := store.AddUser(t, "Deleted Dan", user.RoleDev, true)
	store.DeleteUser(t, deleted.ID)
	idle := store.AddUser(t, "Ian", user.RoleQA, false)
	log := store.AddLog(t, idle.ID, "2025-10-15", 8, testutil.NamedOnly("Alpha", 8))
	store.SoftDeleteLog(t, log.ID)

	roster, err := user.NewUserService(store.Users()).Roster(context.Background(), october(t))
	require.NoError(t, err)
	assert.Empty(t, roster)
}

func TestRosterOpenRange(t *testing.T) {
	store := testutil.NewStore()
	idle := store.AddUser(t, "Ian", user.RoleQA, false)
	store.AddLog(t, idle.ID, "2019-01-01", 1, testutil.NamedOnly("Alpha", 1))

	roster, err := user.NewUserService(store.Users()).Roster(context.Background(), period.Range{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Ian"}, names(roster))
}
