package echoweb

import (
	"net/http"
	"sort"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/announcement"
	"github.com/trezcool/elimu/core/attendance"
	"github.com/trezcool/elimu/core/lesson"
	"github.com/trezcool/elimu/core/quiz"
	"github.com/trezcool/elimu/core/user"
)

var (
	errUnauthorized  = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errHttpForbidden = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound  = echo.NewHTTPError(http.StatusNotFound, "not found")
	errBadTheme      = echo.NewHTTPError(http.StatusBadRequest, "unknown theme")
	errBadKind       = echo.NewHTTPError(http.StatusBadRequest, "kind must be local or assigned")
)

// domainErrorCodes maps the sentinel errors of the core packages to HTTP status codes.
var domainErrorCodes = map[error]int{
	quiz.ErrNothingToQuiz:      http.StatusBadRequest,
	quiz.ErrNoActiveQuiz:       http.StatusBadRequest,
	quiz.ErrAlreadySubmitted:   http.StatusConflict,
	quiz.ErrInvalidQuestion:    http.StatusBadRequest,
	quiz.ErrInvalidOption:      http.StatusBadRequest,
	quiz.ErrIncompleteAnswers:  http.StatusBadRequest,
	quiz.ErrNoPublishedQuiz:    http.StatusNotFound,
	lesson.ErrNotFound:         http.StatusNotFound,
	lesson.ErrUnsupportedType:  http.StatusBadRequest,
	lesson.ErrInvalidName:      http.StatusBadRequest,
	lesson.ErrNotText:          http.StatusBadRequest,
	lesson.ErrNotUTF8:          http.StatusBadRequest,
	attendance.ErrEmptyRoster:  http.StatusBadRequest,
	attendance.ErrInvalidDate:  http.StatusBadRequest,
	attendance.ErrFutureDate:   http.StatusBadRequest,
	announcement.ErrNotFound:   http.StatusNotFound,
	user.ErrNotFound:           http.StatusNotFound,
	user.ErrInvalidCredentials: http.StatusUnauthorized,
	user.ErrNotParent:          http.StatusForbidden,
	user.ErrUsernameExists:     http.StatusBadRequest,
}

func domainErrorCode(err error) (int, bool) {
	for dErr, code := range domainErrorCodes {
		if errors.Is(err, dErr) {
			return code, true
		}
	}
	return 0, false
}

// isUserError reports whether err is a domain error the user can act on.
func isUserError(err error) bool {
	if _, ok := domainErrorCode(err); ok {
		return true
	}
	switch errors.Cause(err).(type) {
	case validator.ValidationErrors, *core.ValidationError:
		return true
	}
	return false
}

// fieldErrors translates validation errors to {field: message}.
// It returns false for any other error.
func fieldErrors(err error, translator ut.Translator) (map[string]string, bool) {
	switch origErr := errors.Cause(err).(type) {
	case validator.ValidationErrors:
		fldErrs := make(map[string]string, len(origErr))
		for _, vErr := range origErr {
			fldErrs[vErr.Field()] = vErr.Translate(translator)
		}
		return fldErrs, true
	case *core.ValidationError:
		fldErrs := make(map[string]string, len(origErr.Fields))
		for _, fErr := range origErr.Fields {
			fldErrs[fErr.Field] = fErr.Error
		}
		if len(fldErrs) == 0 {
			fldErrs[""] = origErr.Error()
		}
		return fldErrs, true
	}
	return nil, false
}

// redirectOnUserError flashes user errors and redirects to path; any other error is returned as is.
func (s *Server) redirectOnUserError(ctx echo.Context, err error, path string) error {
	if fldErrs, ok := fieldErrors(err, s.Translator); ok {
		msgs := make([]string, 0, len(fldErrs))
		for _, msg := range fldErrs {
			msgs = append(msgs, msg)
		}
		sort.Strings(msgs)
		return flashRedirect(ctx, flashError, strings.Join(msgs, "; "), path)
	}
	if isUserError(err) {
		return flashRedirect(ctx, flashError, errors.Cause(err).Error(), path)
	}
	return err
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// API routes get JSON, every other route gets the error page.
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
		case validator.ValidationErrors, *core.ValidationError:
			code = http.StatusBadRequest
			message, _ = fieldErrors(origErr, translator)
		default:
			if c, ok := domainErrorCode(origErr); ok {
				code = c
				message = origErr.Error()
				break
			}

			// any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg
			logger.Error(msg, errors.Wrap(err, msg), contextUser(ctx))

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		api := strings.HasPrefix(ctx.Path(), apiPrefix) || strings.HasPrefix(ctx.Request().URL.Path, apiPrefix)
		if ctx.Echo().Debug && code == http.StatusInternalServerError {
			message = err.Error()
		}
		if m, ok := message.(string); ok && api {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			switch {
			case ctx.Request().Method == http.MethodHead: // Issue #608
				err = ctx.NoContent(code)
			case api:
				err = ctx.JSON(code, message)
			default:
				err = renderError(ctx, code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

type errorPage struct {
	Code    int
	Status  string
	Message string
	Fields  map[string]string
}

func renderError(ctx echo.Context, code int, message interface{}) error {
	data := errorPage{Code: code, Status: http.StatusText(code)}
	switch m := message.(type) {
	case string:
		data.Message = m
	case map[string]string:
		data.Fields = m
	default:
		data.Message = data.Status
	}
	return render(ctx, code, "error", data.Status, data)
}

// contextUser is the acting user reported along with server errors.
func contextUser(ctx echo.Context) user.User {
	if claims, err := getContextClaims(ctx); err == nil {
		return user.User{Username: claims.Username, Role: claims.Role}
	}
	if sc, ok := ctx.Get(sessionValueKey).(*SessionContext); ok && sc.LoggedIn() {
		return user.User{Username: sc.Identity, Role: sc.Role, Name: sc.Name}
	}
	return user.User{}
}
