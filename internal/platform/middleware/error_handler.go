package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// InternalErrorBody is the only thing a client learns about an unexpected failure.
var InternalErrorBody = map[string]interface{}{
	"error":       "Internal server error",
	"message":     "An unexpected error occurred. Please try again later.",
	"status_code": http.StatusInternalServerError,
}

// PageRenderer renders an HTML error page for browser requests. The web
// package supplies it; nil means JSON everywhere.
type PageRenderer func(c echo.Context, code int, message string) error

// ErrorHandler builds echo's HTTPErrorHandler. *echo.HTTPError values keep
// their status and message; anything else is logged and reported as a
// generic 500. Requests outside /api/ get an HTML page when render is set.
func ErrorHandler(logger zerolog.Logger, render PageRenderer) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		var body interface{} = InternalErrorBody
		message := "An unexpected error occurred. Please try again later."

		var he *echo.HTTPError
		if errors.As(err, &he) && he.Code != http.StatusInternalServerError {
			code = he.Code
			body = httpErrorBody(he)
			if s, ok := he.Message.(string); ok {
				message = s
			} else {
				message = http.StatusText(code)
			}
		} else {
			rid, _ := c.Get("request_id").(string)
			logger.Error().
				Err(err).
				Str("request_id", rid).
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Msg("unhandled error")
		}

		if render != nil && wantsHTML(c) {
			if rerr := render(c, code, message); rerr == nil {
				return
			}
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(code)
		} else {
			werr = c.JSON(code, body)
		}
		if werr != nil {
			logger.Error().Err(werr).Msg("write error response")
		}
	}
}

// httpErrorBody keeps structured messages (field maps) as they are and wraps
// plain strings the way the API reports them: "detail" for auth and lookup
// failures, "error" for everything else.
func httpErrorBody(he *echo.HTTPError) interface{} {
	msg, ok := he.Message.(string)
	if !ok {
		return he.Message
	}
	switch he.Code {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound, http.StatusMethodNotAllowed:
		return map[string]string{"detail": msg}
	default:
		return map[string]string{"error": msg}
	}
}

func wantsHTML(c echo.Context) bool {
	path := c.Request().URL.Path
	if path == "/api" || strings.HasPrefix(path, "/api/") || strings.HasPrefix(path, "/health") {
		return false
	}
	return strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMETextHTML)
}
