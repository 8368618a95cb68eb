package controllers

import (
	"github.com/curaious/timesheet/internal/services"
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
)

func RegisterReportRoutes(r *router.Router, svc *services.Services) {
	r.GET("/api/reports/grand", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		report, err := svc.Report.GrandReport(stdCtx, query(ctx, "startDate"), query(ctx, "endDate"))
		if err != nil {
			writeServiceError(ctx, stdCtx, "Failed to generate grand report", err)
			return
		}

		writeOK(ctx, stdCtx, "Grand report generated successfully", report)
	})

	r.GET("/api/reports/project-users", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		report, err := svc.Report.ProjectUsersReport(stdCtx, query(ctx, "startDate"), query(ctx, "endDate"))
		if err != nil {
			writeServiceError(ctx, stdCtx, "Failed to generate project users report", err)
			return
		}

		writeOK(ctx, stdCtx, "Project users report generated successfully", report)
	})
}
