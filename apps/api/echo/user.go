package echoapi

import (
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/edutrack/edutrack/core"
	"github.com/edutrack/edutrack/core/access"
	"github.com/edutrack/edutrack/core/user"
)

var errNoSelfDelete = "cannot delete own account"

type userApi struct {
	svc      *user.Service
	validate *validator.Validate
}

func registerUserAPI(g *echo.Group, auth echo.MiddlewareFunc, svc *user.Service, validate *validator.Validate) {
	api := userApi{svc: svc, validate: validate}

	ug := g.Group("/users", auth)

	ug.GET("", api.query)
	ug.POST("", api.create, adminMiddleware())
	ug.POST("/invite", api.invite, adminMiddleware())
	ug.POST("/bulk", api.bulkImport, roleMiddleware(access.RoleSuperAdmin))

	// detail endpoints
	ug.GET("/:id", api.retrieve)
	ug.PUT("/:id", api.update)
	ug.DELETE("/:id", api.destroy, adminMiddleware())
}

// Handlers

func (api *userApi) query(ctx echo.Context) error {
	ident, err := contextIdentity(ctx)
	if err != nil {
		return err
	}

	var filter user.QueryFilter
	if err = ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	filter.Clean()

	users, page, err := api.svc.Filter(ctx.Request().Context(), ident, filter, bindListOptions(ctx))
	if err != nil {
		return errors.Wrap(err, "filtering users")
	}
	return ctx.JSON(http.StatusOK, newListResponse(users, page))
}

func (api *userApi) create(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.svc.Register(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *userApi) invite(ctx echo.Context) error {
	var data user.InviteUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to InviteUser")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, _, err := api.svc.Invite(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "inviting user")
	}
	return ctx.JSON(http.StatusCreated, usr)
}

// bulkImport registers users from a CSV payload: either a `file` form field or
// the raw request body.
func (api *userApi) bulkImport(ctx echo.Context) error {
	var src io.Reader = ctx.Request().Body
	if file, err := ctx.FormFile("file"); err == nil {
		f, err := file.Open()
		if err != nil {
			return errors.Wrap(err, "opening uploaded file")
		}
		defer f.Close()
		src = f
	}

	created, err := api.svc.ImportCSV(ctx.Request().Context(), src)
	if err != nil {
		return errors.Wrap(err, "importing users")
	}
	if created == nil {
		created = []user.User{}
	}
	return ctx.JSON(http.StatusCreated, listResponse{Items: created})
}

func (api *userApi) retrieve(ctx echo.Context) error {
	ident, err := contextIdentity(ctx)
	if err != nil {
		return err
	}

	usr, err := api.svc.GetByID(ctx.Request().Context(), ident, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) update(ctx echo.Context) error {
	ident, err := contextIdentity(ctx)
	if err != nil {
		return err
	}

	var data user.UpdateUser
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUser")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.svc.Update(ctx.Request().Context(), ident, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) destroy(ctx echo.Context) error {
	ident, err := contextIdentity(ctx)
	if err != nil {
		return err
	}

	id := ctx.Param("id")
	if id == ident.UID {
		return core.NewValidationError(nil, core.FieldError{Field: "id", Error: errNoSelfDelete})
	}

	if err = api.svc.Delete(ctx.Request().Context(), ident, id); err != nil {
		return errors.Wrap(err, "deleting user")
	}
	return ctx.NoContent(http.StatusNoContent)
}
