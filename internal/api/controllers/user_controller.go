package controllers

import (
	"github.com/curaious/timesheet/internal/period"
	"github.com/curaious/timesheet/internal/services"
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
)

func RegisterUserRoutes(r *router.Router, svc *services.Services) {
	// Users a report over the range accounts for
	r.GET("/api/users/roster", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		rng, err := period.NewRange(query(ctx, "startDate"), query(ctx, "endDate"))
		if err != nil {
			writeServiceError(ctx, stdCtx, "Invalid date range", err)
			return
		}

		roster, err := svc.User.Roster(stdCtx, rng)
		if err != nil {
			writeServiceError(ctx, stdCtx, "Failed to load roster", err)
			return
		}

		writeOK(ctx, stdCtx, "Roster retrieved successfully", roster)
	})
}
