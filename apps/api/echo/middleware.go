package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/edutrack/edutrack/core/access"
	"github.com/edutrack/edutrack/core/identity"
)

var contextIdentityKey = "identity"

// authMiddleware verifies the bearer credential with the Identity Gateway and
// stashes the verified caller in the request context. The gateway claims, not
// the stored User document, are what authorization decisions run on.
func authMiddleware(gw identity.Gateway) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			header := ctx.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(header, "Bearer ") {
				return errMissingToken
			}

			ident, err := gw.Verify(ctx.Request().Context(), strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				return errInvalidToken
			}
			ctx.Set(contextIdentityKey, ident)
			return next(ctx)
		}
	}
}

// roleMiddleware rejects callers whose role is not in the given set. An empty
// set allows any authenticated caller.
func roleMiddleware(roles ...access.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			ident, err := contextIdentity(ctx)
			if err != nil {
				return err
			}
			if len(roles) == 0 {
				return next(ctx)
			}
			for _, role := range roles {
				if ident.Role == role {
					return next(ctx)
				}
			}
			return errHttpForbidden
		}
	}
}

func adminMiddleware() echo.MiddlewareFunc {
	return roleMiddleware(access.RoleSuperAdmin, access.RoleInstitutionAdmin)
}

func contextIdentity(ctx echo.Context) (access.Identity, error) {
	if ident, ok := ctx.Get(contextIdentityKey).(access.Identity); ok {
		return ident, nil
	}
	return access.Identity{}, errMissingToken
}
