package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/edutrack/edutrack/core"
	"github.com/edutrack/edutrack/core/access"
	"github.com/edutrack/edutrack/core/identity"
	"github.com/edutrack/edutrack/core/user"
)

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	SetClaimsRequest struct {
		UID           string `json:"uid" validate:"required"`
		Role          string `json:"role" validate:"required,role"`
		InstitutionID string `json:"institutionId"`
		ChildID       string `json:"childId"`
	}
)

type authApi struct {
	svc      *user.Service
	gateway  identity.Gateway
	validate *validator.Validate
}

func registerAuthAPI(g *echo.Group, auth echo.MiddlewareFunc, svc *user.Service, gw identity.Gateway, validate *validator.Validate) {
	api := authApi{svc: svc, gateway: gw, validate: validate}

	ag := g.Group("/auth")

	// un-authed endpoints
	ag.POST("/login", api.login)

	// authed endpoints
	ag.POST("/register", api.register, auth, roleMiddleware(access.RoleSuperAdmin))
	ag.POST("/set-claims", api.setClaims, auth, roleMiddleware(access.RoleSuperAdmin))
}

// Handlers

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	data.Email = core.CleanString(data.Email, true /* lower */)
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	session, err := api.gateway.IssueToken(ctx.Request().Context(), data.Email, data.Password)
	if err != nil {
		// invalid credentials map to 401 in the error handler
		return errors.Wrap(err, "issuing token")
	}
	return ctx.JSON(http.StatusOK, session)
}

func (api *authApi) register(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.svc.Register(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "registering user")
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *authApi) setClaims(ctx echo.Context) error {
	var data SetClaimsRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SetClaimsRequest")
	}
	data.Role = core.CleanString(data.Role)
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	role, err := access.ParseRole(data.Role)
	if err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "role", Error: "invalid role"})
	}
	// tenant-scoped roles must carry an institution, like register
	if role != access.RoleSuperAdmin && data.InstitutionID == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "institutionId", Error: "this field is required"})
	}
	claims := access.Claims{Role: role, InstitutionID: data.InstitutionID, ChildID: data.ChildID}

	usr, err := api.svc.SetClaims(ctx.Request().Context(), data.UID, claims)
	if err != nil {
		return errors.Wrap(err, "setting claims")
	}
	return ctx.JSON(http.StatusOK, usr)
}
