// Package reconcile brings stored task log entries in line with the project
// directory in bulk, one record at a time, so it can run next to live writes
// and be re-run at will.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/curaious/timesheet/internal/entry"
	"github.com/curaious/timesheet/internal/resolve"
	"github.com/curaious/timesheet/internal/services/project"
	"github.com/curaious/timesheet/internal/services/tasklog"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultPageSize = 500
	progressEvery   = 100
)

var tracer = otel.Tracer("Reconcile")

// Store is the part of the task log store the migrator needs.
type Store interface {
	List(ctx context.Context, filter tasklog.Filter) ([]*tasklog.TaskLog, error)
	ListByProjectID(ctx context.Context, projectID uuid.UUID) ([]*tasklog.TaskLog, error)
	UpdateEntries(ctx context.Context, id uuid.UUID, entries entry.Entries, expectedUpdatedAt time.Time) (bool, error)
}

type Options struct {
	// DryRun computes the result without saving anything.
	DryRun   bool
	PageSize int
}

// Match counts entries rewritten from one reference to a project name.
type Match struct {
	From   string         `json:"from"`
	To     string         `json:"to"`
	Method resolve.Method `json:"method"`
	Count  int            `json:"count"`
}

type Result struct {
	DryRun            bool      `json:"dry_run"`
	ScannedLogs       int       `json:"scanned_logs"`
	UpdatedLogs       int       `json:"updated_logs"`
	UpdatedEntryCount int       `json:"updated_entry_count"`
	SkippedLogs       int       `json:"skipped_logs"`
	FailedLogs        int       `json:"failed_logs"`
	OrphanedEntries   int       `json:"orphaned_entries"`
	UnmatchedNames    []string  `json:"unmatched_names"`
	Matches           []Match   `json:"matches"`
	StartedAt         time.Time `json:"started_at"`
	Duration          string    `json:"duration"`

	unmatched map[string]struct{}
	matches   map[Match]int
}

func newResult(opts Options) *Result {
	return &Result{
		DryRun:         opts.DryRun,
		UnmatchedNames: []string{},
		Matches:        []Match{},
		StartedAt:      time.Now(),
		unmatched:      map[string]struct{}{},
		matches:        map[Match]int{},
	}
}

func (r *Result) match(from, to string, method resolve.Method) {
	r.matches[Match{From: from, To: to, Method: method}]++
}

func (r *Result) finish() {
	for name := range r.unmatched {
		r.UnmatchedNames = append(r.UnmatchedNames, name)
	}
	sort.Strings(r.UnmatchedNames)

	for m, count := range r.matches {
		m.Count = count
		r.Matches = append(r.Matches, m)
	}
	sort.Slice(r.Matches, func(i, j int) bool {
		a, b := r.Matches[i], r.Matches[j]
		if a.From != b.From {
			return a.From < b.From
		}
		if a.To != b.To {
			return a.To < b.To
		}
		return a.Method < b.Method
	})
	r.Duration = time.Since(r.StartedAt).Round(time.Millisecond).String()
}

type Migrator struct {
	store    Store
	projects project.DirectorySource
}

func NewMigrator(store Store, projects project.DirectorySource) *Migrator {
	return &Migrator{store: store, projects: projects}
}

// Reconcile walks every live task log against a single directory snapshot
// and rewrites entries that are missing an id or carry a stale name. Names
// are matched exactly, then through mapping, then fuzzily. Names nothing
// matches are reported in UnmatchedNames and left as they are.
//
// Each log is saved on its own and only if it has not changed since it was
// read; a log replaced in the meantime is skipped and left for the next run.
// A failed save is logged and counted and the run carries on.
func (m *Migrator) Reconcile(ctx context.Context, mapping *resolve.Mapping, opts Options) (*Result, error) {
	ctx, span := tracer.Start(ctx, "Migrator.Reconcile")
	defer span.End()

	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	dir, err := m.projects.Directory(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to load project directory: %w", err)
	}

	slog.InfoContext(ctx, "Starting reconciliation",
		slog.Bool("dry_run", opts.DryRun),
		slog.Int("projects", dir.Len()),
		slog.Int("renames", mapping.Len()))

	resolver := resolve.New(mapping)
	res := newResult(opts)

	var after *uuid.UUID
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		logs, err := m.store.List(ctx, tasklog.Filter{AfterID: after, Limit: pageSize})
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to read task logs: %w", err)
		}

		for _, log := range logs {
			res.ScannedLogs++
			entries, changed := m.refreshLog(resolver, dir, log, res)
			if changed > 0 {
				m.save(ctx, log, entries, changed, opts, res)
			}
		}

		if len(logs) < pageSize {
			break
		}
		last := logs[len(logs)-1].ID
		after = &last
	}

	res.finish()
	span.SetAttributes(
		attribute.Bool("dry_run", res.DryRun),
		attribute.Int("scanned_logs", res.ScannedLogs),
		attribute.Int("updated_entries", res.UpdatedEntryCount),
		attribute.Int("unmatched_names", len(res.UnmatchedNames)),
	)
	slog.InfoContext(ctx, "Reconciliation finished",
		slog.Int("scanned_logs", res.ScannedLogs),
		slog.Int("updated_logs", res.UpdatedLogs),
		slog.Int("updated_entries", res.UpdatedEntryCount),
		slog.Int("skipped_logs", res.SkippedLogs),
		slog.Int("failed_logs", res.FailedLogs),
		slog.Int("unmatched_names", len(res.UnmatchedNames)),
		slog.String("duration", res.Duration))

	return res, nil
}

// refreshLog returns the log's entries with every stale reference rewritten
// and how many were rewritten.
func (m *Migrator) refreshLog(resolver *resolve.Resolver, dir *project.Directory, log *tasklog.TaskLog, res *Result) (entry.Entries, int) {
	entries := log.Entries.Clone()
	changed := 0

	for i, e := range entries {
		ref := e.Ref()
		resolved, outcome := resolver.Refresh(dir, e)

		switch outcome.Method {
		case resolve.MethodOrphaned:
			res.OrphanedEntries++
		case resolve.MethodUnresolved:
			switch r := ref.(type) {
			case entry.ByName:
				res.unmatched[r.Name] = struct{}{}
			case entry.ByID:
				res.OrphanedEntries++
			case entry.Resolved, entry.None:
			}
		}

		if !outcome.Changed {
			continue
		}
		entries[i] = resolved
		changed++
		res.match(describe(ref), outcome.Project.Name, outcome.Method)
	}

	return entries, changed
}

func (m *Migrator) save(ctx context.Context, log *tasklog.TaskLog, entries entry.Entries, changed int, opts Options, res *Result) {
	if opts.DryRun {
		res.UpdatedLogs++
		res.UpdatedEntryCount += changed
		return
	}

	span := trace.SpanFromContext(ctx)
	ok, err := m.store.UpdateEntries(ctx, log.ID, entries, log.UpdatedAt)
	if err != nil {
		res.FailedLogs++
		span.AddEvent("save failed", trace.WithAttributes(
			attribute.String("task_log_id", log.ID.String()),
			attribute.String("error", err.Error())))
		slog.ErrorContext(ctx, "Failed to save reconciled task log",
			slog.String("task_log_id", log.ID.String()), slog.Any("error", err))
		return
	}
	if !ok {
		res.SkippedLogs++
		span.AddEvent("concurrent change", trace.WithAttributes(attribute.String("task_log_id", log.ID.String())))
		slog.WarnContext(ctx, "Task log changed during reconciliation, skipping",
			slog.String("task_log_id", log.ID.String()))
		return
	}

	res.UpdatedLogs++
	res.UpdatedEntryCount += changed
	if res.UpdatedLogs%progressEvery == 0 {
		slog.InfoContext(ctx, "Reconciliation progress",
			slog.Int("updated_logs", res.UpdatedLogs), slog.Int("scanned_logs", res.ScannedLogs))
	}
}

// describe names what an entry pointed at before it was rewritten.
func describe(ref entry.Ref) string {
	switch r := ref.(type) {
	case entry.ByName:
		return r.Name
	case entry.Resolved:
		return r.Name
	case entry.ByID:
		return r.ID.String()
	case entry.None:
	}
	return ""
}
