package echoapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/edutrack/edutrack/core/access"
	"github.com/edutrack/edutrack/core/analytics"
)

type analyticsApi struct {
	svc *analytics.Service
}

func registerAnalyticsAPI(g *echo.Group, auth echo.MiddlewareFunc, svc *analytics.Service) {
	api := analyticsApi{svc: svc}

	ag := g.Group("/analytics", auth)

	ag.GET("/institution", api.institution, adminMiddleware())
	ag.GET("/institution/export", api.institutionExportCSV, adminMiddleware())
	ag.GET("/institution/export/pdf", api.institutionExportPDF, adminMiddleware())

	ag.GET("/teachers", api.teachers, adminMiddleware())
	ag.GET("/teachers/export", api.teachersExportCSV, adminMiddleware())
	ag.GET("/teachers/export/pdf", api.teachersExportPDF, adminMiddleware())

	ag.GET("/students/:id", api.studentReport)
	ag.GET("/courses/:id", api.courseEngagement, roleMiddleware(
		access.RoleTeacher, access.RoleInstitutionAdmin, access.RoleSuperAdmin))
}

// Handlers

func (api *analyticsApi) institution(ctx echo.Context) error {
	ident, err := contextIdentity(ctx)
	if err != nil {
		return err
	}

	report, err := api.svc.Institution(ctx.Request().Context(), ident)
	if err != nil {
		return errors.Wrap(err, "building institution report")
	}
	return ctx.JSON(http.StatusOK, report)
}

func (api *analyticsApi) teachers(ctx echo.Context) error {
	ident, err := contextIdentity(ctx)
	if err != nil {
		return err
	}

	perf, err := api.svc.TeacherPerformance(ctx.Request().Context(), ident)
	if err != nil {
		return errors.Wrap(err, "building teacher performance")
	}
	return ctx.JSON(http.StatusOK, perf)
}

func (api *analyticsApi) studentReport(ctx echo.Context) error {
	ident, err := contextIdentity(ctx)
	if err != nil {
		return err
	}

	enrs, err := api.svc.StudentReport(ctx.Request().Context(), ident, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "building student report")
	}
	return ctx.JSON(http.StatusOK, enrs)
}

func (api *analyticsApi) courseEngagement(ctx echo.Context) error {
	ident, err := contextIdentity(ctx)
	if err != nil {
		return err
	}

	eng, err := api.svc.CourseEngagement(ctx.Request().Context(), ident, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "building course engagement")
	}
	return ctx.JSON(http.StatusOK, eng)
}

// Exports

var (
	institutionHeader = []string{"totalCourses", "totalEnrollments", "avgProgress"}
	teachersHeader    = []string{"teacherId", "totalEnrollments", "avgProgress"}
)

func (api *analyticsApi) institutionRows(ctx echo.Context) ([][]string, error) {
	ident, err := contextIdentity(ctx)
	if err != nil {
		return nil, err
	}

	report, err := api.svc.Institution(ctx.Request().Context(), ident)
	if err != nil {
		return nil, errors.Wrap(err, "building institution report")
	}
	return [][]string{{
		fmt.Sprintf("%d", report.TotalCourses),
		fmt.Sprintf("%d", report.TotalEnrollments),
		fmt.Sprintf("%.2f", report.AvgProgress),
	}}, nil
}

func (api *analyticsApi) teacherRows(ctx echo.Context) ([][]string, error) {
	ident, err := contextIdentity(ctx)
	if err != nil {
		return nil, err
	}

	perf, err := api.svc.TeacherPerformance(ctx.Request().Context(), ident)
	if err != nil {
		return nil, errors.Wrap(err, "building teacher performance")
	}

	rows := make([][]string, 0, len(perf))
	for _, p := range perf {
		rows = append(rows, []string{
			p.TeacherID,
			fmt.Sprintf("%d", p.TotalEnrollments),
			fmt.Sprintf("%.2f", p.AvgProgress),
		})
	}
	return rows, nil
}

func (api *analyticsApi) institutionExportCSV(ctx echo.Context) error {
	rows, err := api.institutionRows(ctx)
	if err != nil {
		return err
	}
	return writeCSV(ctx, "institution-report.csv", institutionHeader, rows)
}

func (api *analyticsApi) institutionExportPDF(ctx echo.Context) error {
	rows, err := api.institutionRows(ctx)
	if err != nil {
		return err
	}
	return writePDF(ctx, "institution-report.pdf", "Institution Report", institutionHeader, rows)
}

func (api *analyticsApi) teachersExportCSV(ctx echo.Context) error {
	rows, err := api.teacherRows(ctx)
	if err != nil {
		return err
	}
	return writeCSV(ctx, "teacher-performance.csv", teachersHeader, rows)
}

func (api *analyticsApi) teachersExportPDF(ctx echo.Context) error {
	rows, err := api.teacherRows(ctx)
	if err != nil {
		return err
	}
	return writePDF(ctx, "teacher-performance.pdf", "Teacher Performance", teachersHeader, rows)
}
