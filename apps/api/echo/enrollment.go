package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/edutrack/edutrack/core/enrollment"
)

type enrollmentApi struct {
	svc      *enrollment.Service
	validate *validator.Validate
}

func registerEnrollmentAPI(g *echo.Group, auth echo.MiddlewareFunc, svc *enrollment.Service, validate *validator.Validate) {
	api := enrollmentApi{svc: svc, validate: validate}

	eg := g.Group("/enrollments", auth)

	eg.GET("", api.query)
	eg.POST("", api.create)
	eg.GET("/students/:id", api.studentEnrollments)

	// detail endpoints
	eg.GET("/:id", api.retrieve)
	eg.DELETE("/:id", api.unenroll)
	eg.PUT("/:id/progress", api.updateProgress)
}

// Handlers

func (api *enrollmentApi) query(ctx echo.Context) error {
	ident, err := contextIdentity(ctx)
	if err != nil {
		return err
	}

	var filter enrollment.QueryFilter
	if err = ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	filter.Clean()

	enrs, page, err := api.svc.Filter(ctx.Request().Context(), ident, filter, bindListOptions(ctx))
	if err != nil {
		return errors.Wrap(err, "filtering enrollments")
	}
	return ctx.JSON(http.StatusOK, newListResponse(enrs, page))
}

func (api *enrollmentApi) create(ctx echo.Context) error {
	ident, err := contextIdentity(ctx)
	if err != nil {
		return err
	}

	var data enrollment.NewEnrollment
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEnrollment")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	enr, err := api.svc.Enroll(ctx.Request().Context(), ident, data)
	if err != nil {
		return errors.Wrap(err, "enrolling student")
	}
	return ctx.JSON(http.StatusCreated, enr)
}

func (api *enrollmentApi) studentEnrollments(ctx echo.Context) error {
	ident, err := contextIdentity(ctx)
	if err != nil {
		return err
	}

	enrs, page, err := api.svc.StudentEnrollments(ctx.Request().Context(), ident, ctx.Param("id"), bindListOptions(ctx))
	if err != nil {
		return errors.Wrap(err, "listing student enrollments")
	}
	return ctx.JSON(http.StatusOK, newListResponse(enrs, page))
}

func (api *enrollmentApi) retrieve(ctx echo.Context) error {
	ident, err := contextIdentity(ctx)
	if err != nil {
		return err
	}

	enr, err := api.svc.GetByID(ctx.Request().Context(), ident, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting enrollment")
	}
	return ctx.JSON(http.StatusOK, enr)
}

func (api *enrollmentApi) unenroll(ctx echo.Context) error {
	ident, err := contextIdentity(ctx)
	if err != nil {
		return err
	}

	enr, err := api.svc.Unenroll(ctx.Request().Context(), ident, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "unenrolling student")
	}
	return ctx.JSON(http.StatusOK, enr)
}

func (api *enrollmentApi) updateProgress(ctx echo.Context) error {
	ident, err := contextIdentity(ctx)
	if err != nil {
		return err
	}

	var data enrollment.ProgressUpdate
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ProgressUpdate")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	enr, err := api.svc.UpdateProgress(ctx.Request().Context(), ident, ctx.Param("id"), *data.Progress)
	if err != nil {
		return errors.Wrap(err, "updating progress")
	}
	return ctx.JSON(http.StatusOK, enr)
}
