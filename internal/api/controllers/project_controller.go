package controllers

import (
	"log/slog"

	"github.com/curaious/timesheet/internal/perrors"
	"github.com/curaious/timesheet/internal/reconcile"
	"github.com/curaious/timesheet/internal/services"
	"github.com/curaious/timesheet/internal/services/project"
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
)

// ProjectUpdate is the updated project plus the number of task entries whose
// cached name was brought in line by a rename.
type ProjectUpdate struct {
	*project.Project
	PropagatedEntries int `json:"propagated_entries"`
}

func RegisterProjectRoutes(r *router.Router, svc *services.Services) {
	// Create project
	r.POST("/api/projects", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		var body project.CreateProjectRequest
		if err := parseBody(ctx, &body); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", perrors.NewErrInvalidRequest("Invalid request body", err))
			return
		}

		created, err := svc.Project.Create(stdCtx, &body)
		if err != nil {
			writeServiceError(ctx, stdCtx, "Failed to create project", err)
			return
		}

		writeOK(ctx, stdCtx, "Project created successfully", created)
	})

	// List projects
	r.GET("/api/projects", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		includeDeleted := query(ctx, "includeDeleted") == "true"

		projects, err := svc.Project.List(stdCtx, includeDeleted)
		if err != nil {
			writeServiceError(ctx, stdCtx, "Failed to list projects", err)
			return
		}

		writeOK(ctx, stdCtx, "Projects retrieved successfully", projects)
	})

	// Update project. A rename is pushed into the cached names of existing entries.
	r.PUT("/api/projects/{id}", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		id, err := pathParamUUID(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "Invalid ID format", perrors.NewErrInvalidRequest("Invalid ID format", err))
			return
		}

		var body project.UpdateProjectRequest
		if err := parseBody(ctx, &body); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", perrors.NewErrInvalidRequest("Invalid request body", err))
			return
		}

		updated, renamed, err := svc.Project.Update(stdCtx, id, &body)
		if err != nil {
			writeServiceError(ctx, stdCtx, "Failed to update project", err)
			return
		}

		result := &ProjectUpdate{Project: updated}
		if renamed {
			// The rename is already saved; entries left stale here are fixed by the next reconcile run.
			res, err := svc.Reconcile.PropagateRename(stdCtx, id, reconcile.Options{})
			if err != nil {
				slog.WarnContext(stdCtx, "Unable to propagate project rename",
					slog.String("project_id", id.String()), slog.Any("error", err))
			} else {
				result.PropagatedEntries = res.UpdatedEntryCount
			}
		}

		writeOK(ctx, stdCtx, "Project updated successfully", result)
	})

	// Delete project
	r.DELETE("/api/projects/{id}", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		id, err := pathParamUUID(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "Invalid ID format", perrors.NewErrInvalidRequest("Invalid ID format", err))
			return
		}

		if err := svc.Project.Delete(stdCtx, id); err != nil {
			writeServiceError(ctx, stdCtx, "Failed to delete project", err)
			return
		}

		writeOK(ctx, stdCtx, "Project deleted successfully", nil)
	})
}
