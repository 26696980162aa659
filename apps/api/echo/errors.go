package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/edutrack/edutrack/core"
	"github.com/edutrack/edutrack/core/access"
	"github.com/edutrack/edutrack/core/course"
	"github.com/edutrack/edutrack/core/enrollment"
	"github.com/edutrack/edutrack/core/identity"
	"github.com/edutrack/edutrack/core/user"
	"github.com/edutrack/edutrack/storage/database"
)

var (
	errMissingToken  = echo.NewHTTPError(http.StatusUnauthorized, "missing or malformed token")
	errInvalidToken  = echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
	errHttpForbidden = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound  = echo.NewHTTPError(http.StatusNotFound, "not found")
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(translator)
			}
			code = http.StatusBadRequest
			message = echo.Map{"error": "invalid input", "fields": fldErrs}
		case *core.ValidationError:
			code = http.StatusBadRequest
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				msg := origErr.Error()
				if msg == "" {
					msg = "invalid input"
				}
				message = echo.Map{"error": msg, "fields": fldErrs}
			} else {
				message = origErr.Error()
			}
		default:
			switch origErr {
			case access.ErrForbidden:
				code = http.StatusForbidden
				message = errHttpForbidden.Message
			case user.ErrNotFound, course.ErrNotFound, enrollment.ErrNotFound:
				code = http.StatusNotFound
				message = errHttpNotFound.Message
			case identity.ErrInvalidToken:
				code = http.StatusUnauthorized
				message = errInvalidToken.Message
			case identity.ErrInvalidCredentials:
				code = http.StatusUnauthorized
				message = origErr.Error()
			case database.ErrInvalidCursor:
				code = http.StatusBadRequest
				message = origErr.Error()
			default: // any other error is a server error
				code = http.StatusInternalServerError
				msg := http.StatusText(http.StatusInternalServerError)
				message = msg

				args := []interface{}{errors.Wrap(err, msg)}
				if ident, idErr := contextIdentity(ctx); idErr == nil {
					args = append(args, user.User{ID: ident.UID, Email: ident.Email, Role: ident.Role})
				}
				logger.Error(msg, args...)

				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
