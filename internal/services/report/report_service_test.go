package report_test

import (
	"context"
	"testing"
	"time"

	"github.com/curaious/timesheet/internal/entry"
	"github.com/curaious/timesheet/internal/perrors"
	"github.com/curaious/timesheet/internal/resolve"
	"github.com/curaious/timesheet/internal/services/project"
	"github.com/curaious/timesheet/internal/services/report"
	"github.com/curaious/timesheet/internal/services/user"
	"github.com/curaious/timesheet/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReports(store *testutil.Store, timeout time.Duration) *report.ReportService {
	return report.NewReportService(
		store.TaskLogs(),
		user.NewUserService(store.Users()),
		project.NewProjectService(store.Projects()),
		resolve.New(nil),
		timeout,
	)
}

func rowNamed(t *testing.T, rows []report.ProjectRow, name string) report.ProjectRow {
	t.Helper()
	for _, r := range rows {
		if r.Project == name {
			return r
		}
	}
	t.Fatalf("no row for project %q", name)
	return report.ProjectRow{}
}

// =============================================================================
// Grand report
// =============================================================================

func TestGrandReportSplitsHoursByRole(t *testing.T) {
	store := testutil.NewStore()
	x := store.AddProject(t, "X")
	dev := store.AddUser(t, "Dev", user.RoleDev, true)
	qa := store.AddUser(t, "Qa", user.RoleQA, true)
	store.AddLog(t, dev.ID, "2025-05-01", 5, testutil.OnProject(x, 5))
	store.AddLog(t, qa.ID, "2025-05-01", 3, testutil.NamedOnly("X", 3))

	got, err := newReports(store, 0).GrandReport(context.Background(), "", "")
	require.NoError(t, err)

	require.Len(t, got.Projects, 1)
	row := got.Projects[0]
	assert.Equal(t, "X", row.Project)
	assert.Equal(t, 8.0, row.TotalHours)
	assert.Equal(t, report.RoleHours{DEV: 5, QA: 3}, row.RoleHours)
	require.NotNil(t, row.ProjectID)
	assert.Equal(t, x.ID, *row.ProjectID)

	assert.Equal(t, report.DateRange{StartDate: "All time", EndDate: "All time"}, got.DateRange)
	assert.Equal(t, 1, got.TotalProjects)
}

func TestGrandReportUnknownProjectWithoutNameIsUnassigned(t *testing.T) {
	store := testutil.NewStore()
	u := store.AddUser(t, "Dev", user.RoleDev, true)
	gone := store.AddProject(t, "Gone")
	store.AddLog(t, u.ID, "2025-05-01", 6,
		entry.New(entry.ByID{ID: uuid.New()}, 2, ""),
		entry.Entry{Hours: 1},
		testutil.OnProject(gone, 3),
	)
	store.DeleteProject(t, gone.ID)

	got, err := newReports(store, 0).GrandReport(context.Background(), "", "")
	require.NoError(t, err)

	unassigned := rowNamed(t, got.Projects, report.Unassigned)
	assert.Equal(t, 3.0, unassigned.TotalHours)
	assert.Equal(t, 3.0, unassigned.DEV)
	assert.Nil(t, unassigned.ProjectID)

	// An orphan keeps reporting under its last known name.
	assert.Equal(t, 3.0, rowNamed(t, got.Projects, "Gone").TotalHours)
	assert.Equal(t, 6.0, got.Totals.TotalHours)
}

func TestGrandReportFollowsRenamesByID(t *testing.T) {
	store := testutil.NewStore()
	p := store.AddProject(t, "Alpha")
	u := store.AddUser(t, "Dev", user.RoleDev, true)
	store.AddLog(t, u.ID, "2025-05-01", 2, testutil.OnProject(p, 2))
	store.RenameProject(t, p.ID, "Alpha2")

	got, err := newReports(store, 0).GrandReport(context.Background(), "", "")
	require.NoError(t, err)
	require.Len(t, got.Projects, 1)
	assert.Equal(t, "Alpha2", got.Projects[0].Project)
}

func TestGrandReportSortsByNameWithUnassignedLast(t *testing.T) {
	store := testutil.NewStore()
	u := store.AddUser(t, "Dev", user.RoleDev, true)
	store.AddLog(t, u.ID, "2025-05-01", 4,
		testutil.NamedOnly("beta", 1),
		entry.Entry{Hours: 1},
		testutil.NamedOnly("Zulu", 1),
		testutil.NamedOnly("Alpha", 1),
	)

	got, err := newReports(store, 0).GrandReport(context.Background(), "", "")
	require.NoError(t, err)

	var names []string
	for _, r := range got.Projects {
		names = append(names, r.Project)
	}
	assert.Equal(t, []string{"Alpha", "Zulu", "beta", report.Unassigned}, names)
}

func TestGrandReportAdminHoursOnlyInTotal(t *testing.T) {
	store := testutil.NewStore()
	admin := store.AddUser(t, "Root", user.RoleAdmin, true)
	store.AddLog(t, admin.ID, "2025-05-01", 2, testutil.NamedOnly("Ops", 2))

	got, err := newReports(store, 0).GrandReport(context.Background(), "", "")
	require.NoError(t, err)
	row := rowNamed(t, got.Projects, "Ops")
	assert.Equal(t, 2.0, row.TotalHours)
	assert.Equal(t, report.RoleHours{}, row.RoleHours)
}

func TestGrandReportFiltersRangeAndDeletedRecords(t *testing.T) {
	store := testutil.NewStore()
	u := store.AddUser(t, "Dev", user.RoleDev, true)
	gone := store.AddUser(t, "Gone", user.RoleQA, true)
	store.AddLog(t, u.ID, "2025-04-30", 1, testutil.NamedOnly("A", 1))
	store.AddLog(t, u.ID, "2025-05-01", 2, testutil.NamedOnly("A", 2))
	store.AddLog(t, u.ID, "2025-05-31", 4, testutil.NamedOnly("A", 4))
	store.AddLog(t, u.ID, "2025-06-01", 8, testutil.NamedOnly("A", 8))
	deleted := store.AddLog(t, u.ID, "2025-05-10", 16, testutil.NamedOnly("A", 16))
	store.SoftDeleteLog(t, deleted.ID)
	store.AddLog(t, gone.ID, "2025-05-10", 32, testutil.NamedOnly("A", 32))
	store.DeleteUser(t, gone.ID)

	got, err := newReports(store, 0).GrandReport(context.Background(), "2025-05-01", "2025-05-31")
	require.NoError(t, err)
	assert.Equal(t, 6.0, got.Totals.TotalHours)
	assert.Equal(t, report.DateRange{StartDate: "2025-05-01", EndDate: "2025-05-31"}, got.DateRange)

	got, err = newReports(store, 0).GrandReport(context.Background(), "2025-05-15", "")
	require.NoError(t, err)
	assert.Equal(t, 12.0, got.Totals.TotalHours)
	assert.Equal(t, "All time", got.DateRange.EndDate)
}

func TestGrandReportRejectsInvertedRange(t *testing.T) {
	_, err := newReports(testutil.NewStore(), 0).GrandReport(context.Background(), "2025-06-01", "2025-05-01")
	assert.True(t, perrors.IsValidation(err))

	_, err = newReports(testutil.NewStore(), 0).ProjectUsersReport(context.Background(), "2025-06-01", "2025-05-01")
	assert.True(t, perrors.IsValidation(err))
}

func TestGrandReportTimesOutWithoutPartialResult(t *testing.T) {
	store := testutil.NewStore()
	store.ListAuthoredHook = func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}

	got, err := newReports(store, 20*time.Millisecond).GrandReport(context.Background(), "", "")
	assert.ErrorIs(t, err, report.ErrReportTimeout)
	assert.Nil(t, got)

	users, err := newReports(store, 20*time.Millisecond).ProjectUsersReport(context.Background(), "", "")
	assert.ErrorIs(t, err, report.ErrReportTimeout)
	assert.Nil(t, users)
}

// =============================================================================
// Per-user report
// =============================================================================

func TestProjectUsersReportIncludesWholeRoster(t *testing.T) {
	store := testutil.NewStore()
	alpha := store.AddProject(t, "Alpha")
	busy := store.AddUser(t, "Busy", user.RoleDev, true)
	idle := store.AddUser(t, "Idle", user.RoleQA, true)
	retired := store.AddUser(t, "Retired", user.RolePM, false)
	returning := store.AddUser(t, "Alumni", user.RoleDesign, false)

	store.AddLog(t, busy.ID, "2025-10-02", 3.333, testutil.OnProject(alpha, 3.333))
	store.AddLog(t, busy.ID, "2025-10-01", 3.333, testutil.NamedOnly("Alpha", 3.333))
	store.AddLog(t, returning.ID, "2025-10-15", 2, testutil.OnProject(alpha, 2))
	store.AddLog(t, retired.ID, "2025-09-01", 7, testutil.OnProject(alpha, 7))

	got, err := newReports(store, time.Second).ProjectUsersReport(context.Background(), "2025-10-01", "2025-10-31")
	require.NoError(t, err)

	require.Len(t, got.UsersLogs, 3)
	assert.Equal(t, "Alumni", got.UsersLogs[0].Name)
	assert.Equal(t, 2.0, got.UsersLogs[0].TotalHours)
	assert.Equal(t, "Busy", got.UsersLogs[1].Name)
	assert.Equal(t, 6.67, got.UsersLogs[1].TotalHours)
	assert.Equal(t, "Idle", got.UsersLogs[2].Name)
	assert.Equal(t, idle.ID, got.UsersLogs[2].UserID)
	assert.Equal(t, 0.0, got.UsersLogs[2].TotalHours)
	assert.NotNil(t, got.UsersLogs[2].Logs)
	assert.Empty(t, got.UsersLogs[2].Logs)

	busyLogs := got.UsersLogs[1].Logs
	require.Len(t, busyLogs, 2)
	assert.True(t, busyLogs[0].Date.Before(busyLogs[1].Date))
	// Logs are read-repaired.
	assert.Equal(t, entry.Resolved{ID: alpha.ID, Name: "Alpha"}, busyLogs[0].Entries[0].Ref())

	assert.InDelta(t, 8.666, got.GrandReport.Totals.TotalHours, 1e-9)
}

func TestReportSumsAgree(t *testing.T) {
	store := testutil.NewStore()
	a := store.AddProject(t, "A")
	b := store.AddProject(t, "B")
	users := []*user.User{
		store.AddUser(t, "U1", user.RoleDev, true),
		store.AddUser(t, "U2", user.RoleQA, true),
		store.AddUser(t, "U3", user.RoleAdmin, true),
		store.AddUser(t, "U4", user.RolePM, false),
	}
	days := []string{"2025-07-01", "2025-07-02", "2025-07-03"}

	var want float64
	for i, u := range users {
		for j, day := range days {
			h1 := float64(i+1) * 0.25
			h2 := float64(j+1) * 1.5
			store.AddLog(t, u.ID, day, h1+h2,
				testutil.OnProject(a, h1),
				testutil.NamedOnly(b.Name, h2),
			)
			want += h1 + h2
		}
	}

	got, err := newReports(store, 0).ProjectUsersReport(context.Background(), "2025-07-01", "2025-07-31")
	require.NoError(t, err)

	var rows, perUser float64
	for _, r := range got.GrandReport.Projects {
		rows += r.TotalHours
	}
	for _, u := range got.UsersLogs {
		perUser += u.TotalHours
	}
	assert.InDelta(t, want, got.GrandReport.Totals.TotalHours, 1e-9)
	assert.InDelta(t, want, rows, 1e-9)
	assert.InDelta(t, want, perUser, 1e-9)

	roles := got.GrandReport.Totals.RoleHours
	admin := 0.0
	for j := range days {
		admin += 3*0.25 + float64(j+1)*1.5
	}
	assert.InDelta(t, want-admin, roles.QA+roles.DESIGN+roles.DEV+roles.PM, 1e-9)
}

func TestProjectUsersReportHalvesAgreeAfterRename(t *testing.T) {
	store := testutil.NewStore()
	p := store.AddProject(t, "Alpha")
	u := store.AddUser(t, "Dev", user.RoleDev, true)
	store.AddLog(t, u.ID, "2025-05-01", 5,
		testutil.NamedOnly("Alpha", 2),
		testutil.OnProject(p, 3),
	)
	store.RenameProject(t, p.ID, "Alpha2")

	got, err := newReports(store, 0).ProjectUsersReport(context.Background(), "", "")
	require.NoError(t, err)

	require.Len(t, got.GrandReport.Projects, 1)
	row := got.GrandReport.Projects[0]
	assert.Equal(t, "Alpha2", row.Project)
	assert.Equal(t, 5.0, row.TotalHours)
	require.NotNil(t, row.ProjectID)
	assert.Equal(t, p.ID, *row.ProjectID)

	// Every users_logs entry is booked under the grand report row carrying its name.
	perName := map[string]float64{}
	for _, ul := range got.UsersLogs {
		for _, l := range ul.Logs {
			for _, e := range l.Entries {
				require.NotNil(t, e.ProjectName)
				perName[*e.ProjectName] += e.Hours
			}
		}
	}
	rows := map[string]float64{}
	for _, r := range got.GrandReport.Projects {
		rows[r.Project] = r.TotalHours
	}
	assert.Equal(t, rows, perName)
}

func TestGrandReportRowIDOnlyWhenEntriesAgree(t *testing.T) {
	store := testutil.NewStore()
	u := store.AddUser(t, "Dev", user.RoleDev, true)
	old := store.AddProject(t, "Alpha")
	store.AddLog(t, u.ID, "2025-05-01", 2, testutil.OnProject(old, 2))
	store.DeleteProject(t, old.ID)
	live := store.AddProject(t, "Alpha")
	store.AddLog(t, u.ID, "2025-05-02", 3, testutil.OnProject(live, 3))

	got, err := newReports(store, 0).GrandReport(context.Background(), "", "")
	require.NoError(t, err)

	// Orphaned and live hours share the name, as in the name-grouped report,
	// but the row is not credited to the live project's id.
	require.Len(t, got.Projects, 1)
	assert.Equal(t, "Alpha", got.Projects[0].Project)
	assert.Equal(t, 5.0, got.Projects[0].TotalHours)
	assert.Nil(t, got.Projects[0].ProjectID)
}
