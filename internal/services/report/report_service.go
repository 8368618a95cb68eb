package report

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/curaious/timesheet/internal/entry"
	"github.com/curaious/timesheet/internal/period"
	"github.com/curaious/timesheet/internal/resolve"
	"github.com/curaious/timesheet/internal/services/project"
	"github.com/curaious/timesheet/internal/services/tasklog"
	"github.com/curaious/timesheet/internal/services/user"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

var (
	ErrReportTimeout = errors.New("report generation timed out")

	tracer = otel.Tracer("Report")
)

// LogSource returns non-deleted logs in range joined with their non-deleted owners.
type LogSource interface {
	ListAuthored(ctx context.Context, rng period.Range) ([]*tasklog.AuthoredLog, error)
}

type RosterSource interface {
	Roster(ctx context.Context, rng period.Range) ([]*user.User, error)
}

// ReportService builds hour reports. Each report reads one snapshot of the
// logs, the directory and, for the per-user report, the roster, and either
// completes within the timeout or fails as a whole.
type ReportService struct {
	logs      LogSource
	roster    RosterSource
	directory project.DirectorySource
	resolver  *resolve.Resolver
	timeout   time.Duration
}

// NewReportService constructs a ReportService. A zero timeout disables it.
func NewReportService(logs LogSource, roster RosterSource, directory project.DirectorySource, resolver *resolve.Resolver, timeout time.Duration) *ReportService {
	return &ReportService{
		logs:      logs,
		roster:    roster,
		directory: directory,
		resolver:  resolver,
		timeout:   timeout,
	}
}

// GrandReport sums hours per project and role over [startDate, endDate].
// Either bound may be empty.
func (s *ReportService) GrandReport(ctx context.Context, startDate, endDate string) (*GrandReport, error) {
	rng, err := period.NewRange(startDate, endDate)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	ctx, span := tracer.Start(ctx, "Report.Grand")
	defer span.End()

	snap, err := s.load(ctx, rng, false)
	if err != nil {
		span.RecordError(err)
		return nil, s.failure(ctx, err)
	}

	report := buildGrandReport(rng, snap.logs, snap.dir)
	if err := ctx.Err(); err != nil {
		return nil, s.failure(ctx, err)
	}

	span.SetAttributes(attribute.Int("logs", len(snap.logs)), attribute.Int("projects", report.TotalProjects))
	return report, nil
}

// ProjectUsersReport is the grand report plus every roster member with
// their own logs in range. Members without logs are listed with zero hours.
func (s *ReportService) ProjectUsersReport(ctx context.Context, startDate, endDate string) (*ProjectUsersReport, error) {
	rng, err := period.NewRange(startDate, endDate)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	ctx, span := tracer.Start(ctx, "Report.ProjectUsers")
	defer span.End()

	snap, err := s.load(ctx, rng, true)
	if err != nil {
		span.RecordError(err)
		return nil, s.failure(ctx, err)
	}

	report := &ProjectUsersReport{
		GrandReport: *buildGrandReport(rng, snap.logs, snap.dir),
		UsersLogs:   s.buildUsersLogs(snap),
	}
	if err := ctx.Err(); err != nil {
		return nil, s.failure(ctx, err)
	}

	span.SetAttributes(attribute.Int("logs", len(snap.logs)), attribute.Int("users", len(report.UsersLogs)))
	return report, nil
}

type snapshot struct {
	logs   []*tasklog.AuthoredLog
	dir    *project.Directory
	roster []*user.User
}

func (s *ReportService) load(ctx context.Context, rng period.Range, withRoster bool) (*snapshot, error) {
	var snap snapshot
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logs, err := s.logs.ListAuthored(gctx, rng)
		if err != nil {
			return fmt.Errorf("failed to load task logs: %w", err)
		}
		snap.logs = logs
		return nil
	})
	g.Go(func() error {
		dir, err := s.directory.Directory(gctx)
		if err != nil {
			return fmt.Errorf("failed to load project directory: %w", err)
		}
		snap.dir = dir
		return nil
	})
	if withRoster {
		g.Go(func() error {
			roster, err := s.roster.Roster(gctx, rng)
			if err != nil {
				return fmt.Errorf("failed to load roster: %w", err)
			}
			snap.roster = roster
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	s.repair(ctx, &snap)
	return &snap, nil
}

func (s *ReportService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// failure turns a deadline hit anywhere in the report into ErrReportTimeout.
func (s *ReportService) failure(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrReportTimeout
	}
	return err
}

// effectiveName is the project an entry's hours are booked against: the
// directory name when its id is known, else its stored name, else Unassigned.
// Entries are refreshed first, so stale names have already been repaired.
func effectiveName(dir *project.Directory, e entry.Entry) string {
	if e.ProjectID != nil {
		if p, ok := dir.FindByID(*e.ProjectID); ok {
			return p.Name
		}
	}
	if e.ProjectName != nil && *e.ProjectName != "" {
		return *e.ProjectName
	}
	return Unassigned
}

// rowIDs tracks which project ids fed a row. A row only carries an id when
// every entry in it pointed at the same live project.
type rowIDs struct {
	ids       map[uuid.UUID]struct{}
	anonymous bool
}

func (r *rowIDs) add(id *uuid.UUID) {
	if id == nil {
		r.anonymous = true
		return
	}
	r.ids[*id] = struct{}{}
}

func (r *rowIDs) single(dir *project.Directory) *uuid.UUID {
	if r.anonymous || len(r.ids) != 1 {
		return nil
	}
	for id := range r.ids {
		if _, ok := dir.FindByID(id); ok {
			return &id
		}
	}
	return nil
}

func buildGrandReport(rng period.Range, logs []*tasklog.AuthoredLog, dir *project.Directory) *GrandReport {
	rows := map[string]*ProjectRow{}
	ids := map[string]*rowIDs{}
	for _, log := range logs {
		for _, e := range log.Entries {
			name := effectiveName(dir, e)
			row, ok := rows[name]
			if !ok {
				row = &ProjectRow{Project: name}
				rows[name] = row
				ids[name] = &rowIDs{ids: map[uuid.UUID]struct{}{}}
			}
			ids[name].add(e.ProjectID)
			row.TotalHours += e.Hours
			row.RoleHours.add(log.UserRole, e.Hours)
		}
	}

	report := &GrandReport{Projects: make([]ProjectRow, 0, len(rows))}
	for name, row := range rows {
		if name != Unassigned {
			row.ProjectID = ids[name].single(dir)
		}
		report.Projects = append(report.Projects, *row)
	}
	sort.Slice(report.Projects, func(i, j int) bool {
		return lessProject(report.Projects[i].Project, report.Projects[j].Project)
	})

	for _, row := range report.Projects {
		report.Totals.TotalHours += row.TotalHours
		report.Totals.RoleHours.merge(row.RoleHours)
	}
	report.DateRange.StartDate, report.DateRange.EndDate = rng.Labels()
	report.TotalProjects = len(report.Projects)
	return report
}

// lessProject orders by name with Unassigned last.
func lessProject(a, b string) bool {
	if (a == Unassigned) != (b == Unassigned) {
		return b == Unassigned
	}
	return a < b
}

// repair read-repairs every log in the snapshot once, so both halves of a
// report see the same project for the same entry.
func (s *ReportService) repair(ctx context.Context, snap *snapshot) {
	for _, log := range snap.logs {
		log.Entries = s.resolver.RefreshAll(ctx, snap.dir, log.Entries)
	}
}

func (s *ReportService) buildUsersLogs(snap *snapshot) []UserLogs {
	byUser := map[uuid.UUID][]UserLog{}
	for _, log := range snap.logs {
		byUser[log.UserID] = append(byUser[log.UserID], UserLog{
			ID:         log.ID,
			Date:       log.Date,
			TotalHours: log.TotalHours,
			Entries:    log.Entries,
		})
	}

	users := make([]UserLogs, 0, len(snap.roster))
	for _, u := range snap.roster {
		logs := byUser[u.ID]
		if logs == nil {
			logs = []UserLog{}
		}
		var total float64
		for _, l := range logs {
			total += l.TotalHours
		}
		users = append(users, UserLogs{
			UserID:     u.ID,
			Name:       u.Name,
			Role:       u.Role,
			TotalHours: round2(total),
			Logs:       logs,
		})
	}
	sort.SliceStable(users, func(i, j int) bool {
		return users[i].Name < users[j].Name
	})
	return users
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
