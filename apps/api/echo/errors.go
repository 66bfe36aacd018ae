package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/catalog"
	"github.com/trezcool/darasa/core/study"
	"github.com/trezcool/darasa/services/academia"
	logsvc "github.com/trezcool/darasa/services/logger"
)

var (
	errUnauthorized  = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errHttpForbidden = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound  = echo.NewHTTPError(http.StatusNotFound, "not found")
)

// response is the uniform envelope returned to browser clients; they branch
// on success instead of sniffing status codes.
type response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   interface{} `json:"error,omitempty"`
}

func respond(ctx echo.Context, code int, data interface{}) error {
	return ctx.JSON(code, response{Success: true, Data: data})
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
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		default:
			code, message = mapDomainError(origErr)
			if code == http.StatusInternalServerError {
				msg := http.StatusText(http.StatusInternalServerError)
				message = msg

				var person logsvc.Person
				if claims, cErr := getContextClaims(ctx); cErr == nil {
					person.ID = claims.Subject
					person.Username = claims.Username
					person.Email = claims.Email
				}
				logger.Error(msg, errors.Wrap(err, msg), person)

				// shutting down...
				if core.IsShutdown(err) && signalShutdown != nil {
					signalShutdown()
				}
			}
		}

		if ctx.Echo().Debug && code == http.StatusInternalServerError {
			message = err.Error()
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, response{Success: false, Error: message})
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

// mapDomainError translates the service layer's sentinel errors into HTTP
// codes; anything unrecognized is a server error.
func mapDomainError(err error) (int, interface{}) {
	switch err {
	case academia.ErrSessionExpired:
		return http.StatusUnauthorized, err.Error()
	case academia.ErrForbidden, study.ErrNotOwner:
		return http.StatusForbidden, err.Error()
	case catalog.ErrNotFound, study.ErrSessionNotFound:
		return http.StatusNotFound, err.Error()
	case catalog.ErrUnknownKind:
		return http.StatusNotFound, err.Error()
	case study.ErrNoItems:
		return http.StatusBadRequest, err.Error()
	case study.ErrSessionCompleted, study.ErrAnswerLocked:
		return http.StatusConflict, err.Error()
	case study.ErrNotCurrentItem, study.ErrUnknownItem:
		return http.StatusBadRequest, err.Error()
	}
	return http.StatusInternalServerError, nil
}
