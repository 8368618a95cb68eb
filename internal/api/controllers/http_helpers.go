package controllers

import (
	"context"
	"errors"
	"fmt"

	json "github.com/bytedance/sonic"
	"github.com/curaious/timesheet/internal/api/response"
	"github.com/curaious/timesheet/internal/perrors"
	"github.com/curaious/timesheet/internal/services/project"
	"github.com/curaious/timesheet/internal/services/report"
	"github.com/curaious/timesheet/internal/services/tasklog"
	"github.com/curaious/timesheet/internal/services/user"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
)

// TraceContextKey is the user value under which the middleware stores the
// context extracted from incoming trace headers.
const TraceContextKey = "traceCtx"

// requestContext returns the context for downstream calls. fasthttp does not
// provide a standard one, so it is the propagated trace context when present.
func requestContext(ctx *fasthttp.RequestCtx) context.Context {
	if traceCtx, ok := ctx.UserValue(TraceContextKey).(context.Context); ok {
		return traceCtx
	}
	return context.Background()
}

func parseBody(ctx *fasthttp.RequestCtx, target any) error {
	body := ctx.PostBody()
	if len(body) == 0 {
		return errors.New("request body is empty")
	}

	return json.Unmarshal(body, target)
}

func writeError(ctx *fasthttp.RequestCtx, stdCtx context.Context, message string, err error) {
	response.NewResponse[any](stdCtx, message, nil).WithError(err).Write(ctx)
}

// writeServiceError maps a service error onto the HTTP error it stands for.
func writeServiceError(ctx *fasthttp.RequestCtx, stdCtx context.Context, message string, err error) {
	writeError(ctx, stdCtx, message, classify(message, err))
}

func classify(message string, err error) error {
	var verr *perrors.ValidationError
	switch {
	case errors.As(err, &verr):
		return perrors.NewErrInvalidRequest(message, err, map[string]interface{}{"field": verr.Field})
	case errors.Is(err, project.ErrProjectNotFound),
		errors.Is(err, tasklog.ErrTaskLogNotFound),
		errors.Is(err, user.ErrUserNotFound):
		return perrors.NewErrNotFound(message, err)
	case errors.Is(err, project.ErrProjectAlreadyExists),
		errors.Is(err, tasklog.ErrTaskLogConflict):
		return perrors.NewErrConflict(message, err)
	case errors.Is(err, report.ErrReportTimeout):
		return perrors.NewErrTimeout(message, err)
	default:
		return perrors.NewErrInternalServerError(message, err)
	}
}

func writeOK(ctx *fasthttp.RequestCtx, stdCtx context.Context, message string, data any) {
	response.NewResponse(stdCtx, message, data).Write(ctx)
}

func pathParam(ctx *fasthttp.RequestCtx, key string) (string, error) {
	val := ctx.UserValue(key)
	if val == nil {
		return "", fmt.Errorf("%s is required", key)
	}

	return fmt.Sprint(val), nil
}

func pathParamUUID(ctx *fasthttp.RequestCtx, key string) (uuid.UUID, error) {
	val, err := pathParam(ctx, key)
	if err != nil {
		return uuid.Nil, err
	}

	return uuid.Parse(val)
}

// query returns an optional query argument, empty when absent.
func query(ctx *fasthttp.RequestCtx, key string) string {
	return string(ctx.QueryArgs().Peek(key))
}
