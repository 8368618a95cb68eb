package controllers

import (
	"github.com/curaious/timesheet/internal/perrors"
	"github.com/curaious/timesheet/internal/services"
	"github.com/curaious/timesheet/internal/services/tasklog"
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
)

func RegisterTaskLogRoutes(r *router.Router, svc *services.Services) {
	// Create or replace the log of a user's day
	r.POST("/api/tasklogs", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		var body tasklog.CreateOrUpdateRequest
		if err := parseBody(ctx, &body); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", perrors.NewErrInvalidRequest("Invalid request body", err))
			return
		}

		result, err := svc.TaskLog.CreateOrUpdate(stdCtx, &body)
		if err != nil {
			writeServiceError(ctx, stdCtx, "Failed to save task log", err)
			return
		}

		message := "Task log created successfully"
		if result.IsUpdate {
			message = "Task log updated successfully"
		}
		writeOK(ctx, stdCtx, message, result)
	})

	// List task logs
	r.GET("/api/tasklogs", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		logs, err := svc.TaskLog.List(stdCtx, tasklog.ListRequest{
			UserID:      query(ctx, "userId"),
			StartDate:   query(ctx, "startDate"),
			EndDate:     query(ctx, "endDate"),
			ProjectName: query(ctx, "projectName"),
		})
		if err != nil {
			writeServiceError(ctx, stdCtx, "Failed to list task logs", err)
			return
		}

		writeOK(ctx, stdCtx, "Task logs retrieved successfully", logs)
	})

	r.GET("/api/tasklogs/single", func(ctx *fasthttp.RequestCtx) {
		getSingle(ctx, svc, query(ctx, "userId"), query(ctx, "date"))
	})

	r.GET("/api/tasklogs/by-user/{userId}/date/{date}", func(ctx *fasthttp.RequestCtx) {
		userID, _ := pathParam(ctx, "userId")
		date, _ := pathParam(ctx, "date")
		getSingle(ctx, svc, userID, date)
	})

	// Update task log
	r.PUT("/api/tasklogs/{id}", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		id, err := pathParamUUID(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "Invalid ID format", perrors.NewErrInvalidRequest("Invalid ID format", err))
			return
		}

		var body tasklog.UpdateRequest
		if err := parseBody(ctx, &body); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", perrors.NewErrInvalidRequest("Invalid request body", err))
			return
		}

		updated, err := svc.TaskLog.UpdateByID(stdCtx, id, &body)
		if err != nil {
			writeServiceError(ctx, stdCtx, "Failed to update task log", err)
			return
		}

		writeOK(ctx, stdCtx, "Task log updated successfully", updated)
	})

	// Delete task log
	r.DELETE("/api/tasklogs/{id}", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		id, err := pathParamUUID(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "Invalid ID format", perrors.NewErrInvalidRequest("Invalid ID format", err))
			return
		}

		result, err := svc.TaskLog.DeleteByID(stdCtx, id)
		if err != nil {
			writeServiceError(ctx, stdCtx, "Failed to delete task log", err)
			return
		}

		writeOK(ctx, stdCtx, "Task log deleted successfully", result)
	})
}

func getSingle(ctx *fasthttp.RequestCtx, svc *services.Services, userID, date string) {
	stdCtx := requestContext(ctx)
	log, err := svc.TaskLog.GetSingle(stdCtx, userID, date)
	if err != nil {
		writeServiceError(ctx, stdCtx, "Failed to retrieve task log", err)
		return
	}
	if log == nil {
		writeServiceError(ctx, stdCtx, "Task log not found for the specified user and date", tasklog.ErrTaskLogNotFound)
		return
	}

	writeOK(ctx, stdCtx, "Task log retrieved successfully", log)
}
