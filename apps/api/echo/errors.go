package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/Mufti-IBAK/mubeen-website-sub001/core"
	"github.com/Mufti-IBAK/mubeen-website-sub001/core/form"
	"github.com/Mufti-IBAK/mubeen-website-sub001/core/profile"
	"github.com/Mufti-IBAK/mubeen-website-sub001/core/program"
	"github.com/Mufti-IBAK/mubeen-website-sub001/core/registration"
)

var (
	errUnauthorized  = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errInvalidToken  = echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired jwt")
	errHttpForbidden = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound  = echo.NewHTTPError(http.StatusNotFound, "not found")
	errBadSignature  = echo.NewHTTPError(http.StatusUnauthorized, "invalid signature")
)

// statusErrors maps domain errors onto HTTP responses.
var statusErrors = []struct {
	err  error
	code int
}{
	{form.ErrSchemaUnavailable, http.StatusNotFound},
	{form.ErrNotFound, http.StatusNotFound},
	{form.ErrFieldNotFound, http.StatusNotFound},
	{form.ErrInvalidDirection, http.StatusBadRequest},
	{program.ErrNotFound, http.StatusNotFound},
	{registration.ErrNotFound, http.StatusNotFound},
	{profile.ErrNotFound, http.StatusNotFound},
	{profile.ErrForbidden, http.StatusForbidden},
	{registration.ErrInvalidTransition, http.StatusConflict},
	{registration.ErrProgramClosed, http.StatusConflict},
}

func domainStatus(err error) (int, string, bool) {
	for _, se := range statusErrors {
		if errors.Is(err, se.err) {
			return se.code, se.err.Error(), true
		}
	}
	return 0, "", false
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = origErr.Message
				break
			}
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
			message = fldErrs
		case *core.ValidationError:
			if origErr.Fields != nil {
				message = origErr.FieldMap()
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		case *form.InvalidError:
			code = http.StatusUnprocessableEntity
			message = map[string]string(origErr.Result)
		default:
			if c, msg, ok := domainStatus(err); ok {
				code = c
				message = msg
				break
			}
			if origErr == form.ErrSubmissionFailed {
				// the visitor keeps their answers and may retry
				code = http.StatusServiceUnavailable
				message = MsgSubmissionFailed
				logger.Error("submitting form", err)
				break
			}

			// any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg

			args := []interface{}{errors.Wrap(err, msg)}
			if p, pErr := getContextProfile(ctx); pErr == nil {
				args = append(args, p)
			}
			logger.Error(msg, args...)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug && code == http.StatusInternalServerError {
			message = err.Error()
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
