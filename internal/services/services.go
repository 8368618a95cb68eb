package services

import (
	"log"
	"log/slog"
	"time"

	"github.com/curaious/timesheet/internal/config"
	"github.com/curaious/timesheet/internal/db"
	"github.com/curaious/timesheet/internal/reconcile"
	"github.com/curaious/timesheet/internal/resolve"
	"github.com/curaious/timesheet/internal/services/project"
	"github.com/curaious/timesheet/internal/services/report"
	"github.com/curaious/timesheet/internal/services/tasklog"
	"github.com/curaious/timesheet/internal/services/user"
	"github.com/jmoiron/sqlx"
)

type Services struct {
	Project   *project.ProjectService
	Directory *project.CachedDirectory
	User      *user.UserService
	TaskLog   *tasklog.TaskLogService
	Report    *report.ReportService
	Reconcile *reconcile.Migrator

	// Mapping is the rename mapping consulted on reads. Nil when none is configured.
	Mapping *resolve.Mapping

	DB *sqlx.DB
}

// Repositories are the stores the services are built on.
type Repositories struct {
	Projects project.Repository
	Users    user.Repository
	TaskLogs tasklog.Repository
}

func NewServices(conf *config.Config) *Services {
	dbconn := db.NewConn(conf)

	var mapping *resolve.Mapping
	if conf.RENAME_MAPPING_PATH != "" {
		m, err := resolve.LoadMapping(conf.RENAME_MAPPING_PATH)
		if err != nil {
			log.Fatal("Unable to load rename mapping: ", err)
		}
		mapping = m
		slog.Info("Loaded rename mapping",
			slog.String("path", conf.RENAME_MAPPING_PATH),
			slog.Int("rules", mapping.Len()))
	}

	svc := New(Repositories{
		Projects: project.NewProjectRepo(dbconn),
		Users:    user.NewUserRepo(dbconn),
		TaskLogs: tasklog.NewTaskLogRepo(dbconn),
	}, mapping, conf.REPORT_TIMEOUT)
	svc.DB = dbconn

	return svc
}

// New wires the services over repos. Project mutations invalidate the cached
// directory shared by the write, read and report paths.
func New(repos Repositories, mapping *resolve.Mapping, reportTimeout time.Duration) *Services {
	projects := project.NewProjectService(repos.Projects)
	directory := project.NewCachedDirectory(projects)
	projects.OnChange(directory.Invalidate)

	users := user.NewUserService(repos.Users)
	resolver := resolve.New(mapping)

	return &Services{
		Project:   projects,
		Directory: directory,
		User:      users,
		TaskLog:   tasklog.NewTaskLogService(repos.TaskLogs, users, directory, resolver),
		Report:    report.NewReportService(repos.TaskLogs, users, directory, resolver, reportTimeout),
		Reconcile: reconcile.NewMigrator(repos.TaskLogs, directory),
		Mapping:   mapping,
	}
}
