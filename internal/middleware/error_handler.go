package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"dapurmamma_app_echo/internal/services"
)

// CustomErrorHandler maps service error kinds and Echo HTTP errors to JSON
// responses. Every failure terminates in a response here; nothing crashes
// the process.
func CustomErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	errorKind := string(services.ErrKindInternal)
	errorMessage := "Something went wrong. Please try again later."

	var appErr *services.AppError
	if errors.As(err, &appErr) {
		errorKind = string(appErr.Kind)
		errorMessage = appErr.Message
		code = statusForKind(appErr.Kind)
	} else if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		if msg, ok := he.Message.(string); ok && msg != "" {
			errorMessage = msg
		}
		errorKind = kindForStatus(code)
	}

	c.Logger().Error(err)

	if jsonErr := c.JSON(code, map[string]string{
		"error":   errorKind,
		"message": errorMessage,
	}); jsonErr != nil {
		c.Logger().Error(jsonErr)
	}
}

func statusForKind(kind services.ErrorKind) int {
	switch kind {
	case services.ErrKindUnauthenticated:
		return http.StatusUnauthorized
	case services.ErrKindInvalidArgument:
		return http.StatusBadRequest
	case services.ErrKindNotFound:
		return http.StatusNotFound
	case services.ErrKindPermissionDenied:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func kindForStatus(code int) string {
	switch code {
	case http.StatusUnauthorized:
		return string(services.ErrKindUnauthenticated)
	case http.StatusBadRequest:
		return string(services.ErrKindInvalidArgument)
	case http.StatusNotFound:
		return string(services.ErrKindNotFound)
	case http.StatusForbidden:
		return string(services.ErrKindPermissionDenied)
	default:
		return string(services.ErrKindInternal)
	}
}
