package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/curaious/timesheet/internal/entry"
	"github.com/curaious/timesheet/internal/resolve"
	"github.com/curaious/timesheet/internal/services/project"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// PropagateRename overwrites the cached name of every entry pointing at
// projectID with the project's current name. Ids match exactly, so nothing
// is guessed. The project must be live.
func (m *Migrator) PropagateRename(ctx context.Context, projectID uuid.UUID, opts Options) (*Result, error) {
	ctx, span := tracer.Start(ctx, "Migrator.PropagateRename")
	defer span.End()
	span.SetAttributes(attribute.String("project_id", projectID.String()))

	dir, err := m.projects.Directory(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to load project directory: %w", err)
	}
	p, ok := dir.FindByID(projectID)
	if !ok {
		return nil, project.ErrProjectNotFound
	}

	logs, err := m.store.ListByProjectID(ctx, projectID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to read task logs: %w", err)
	}

	res := newResult(opts)
	canonical := entry.Resolved{ID: p.ID, Name: p.Name}
	for _, log := range logs {
		res.ScannedLogs++

		entries := log.Entries.Clone()
		changed := 0
		for i, e := range entries {
			if e.ProjectID == nil || *e.ProjectID != projectID {
				continue
			}
			ref := e.Ref()
			if ref == entry.Ref(canonical) {
				continue
			}
			entries[i] = e.WithRef(canonical)
			changed++
			res.match(describe(ref), p.Name, resolve.MethodID)
		}

		if changed > 0 {
			m.save(ctx, log, entries, changed, opts, res)
		}
	}

	res.finish()
	span.SetAttributes(attribute.Int("updated_entries", res.UpdatedEntryCount))
	slog.InfoContext(ctx, "Propagated project rename",
		slog.String("project_id", projectID.String()),
		slog.String("name", p.Name),
		slog.Bool("dry_run", opts.DryRun),
		slog.Int("updated_logs", res.UpdatedLogs),
		slog.Int("updated_entries", res.UpdatedEntryCount))

	return res, nil
}
