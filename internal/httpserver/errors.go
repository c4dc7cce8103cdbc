package httpserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/auth_service/internal/logging"
	"github.com/Skotchmaster/auth_service/internal/repo"
	"github.com/Skotchmaster/auth_service/internal/service"
)

// ErrorResponse is the uniform error envelope for every non-2xx reply.
type ErrorResponse struct {
	StatusCode int                 `json:"statusCode"`
	Message    string              `json:"message"`
	Timestamp  time.Time           `json:"timestamp"`
	Path       string              `json:"path"`
	Errors     map[string][]string `json:"errors,omitempty"`
}

// ErrorHandler is the single place where subsystem errors become status
// codes. Handlers return typed errors; nothing below this layer knows HTTP.
// Unexpected errors are logged in full and leave the process as a generic
// internal-error message.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	resp := ErrorResponse{
		Timestamp: time.Now().UTC(),
		Path:      c.Request().URL.Path,
	}

	var (
		httpErr *echo.HTTPError
		valErr  *service.ValidationError
	)

	switch {
	case errors.As(err, &httpErr):
		resp.StatusCode = httpErr.Code
		if msg, ok := httpErr.Message.(string); ok {
			resp.Message = msg
		} else {
			resp.Message = http.StatusText(httpErr.Code)
		}
	case errors.As(err, &valErr):
		resp.StatusCode = http.StatusBadRequest
		resp.Message = valErr.Error()
		resp.Errors = valErr.Fields
	case errors.Is(err, service.ErrUserExists):
		resp.StatusCode = http.StatusBadRequest
		resp.Message = "username or email already in use"
	case errors.Is(err, service.ErrInvalidCredentials):
		resp.StatusCode = http.StatusUnauthorized
		resp.Message = service.ErrInvalidCredentials.Error()
	case errors.Is(err, service.ErrInvalidRefreshToken):
		resp.StatusCode = http.StatusUnauthorized
		resp.Message = service.ErrInvalidRefreshToken.Error()
	case errors.Is(err, repo.ErrUserNotFound):
		resp.StatusCode = http.StatusNotFound
		resp.Message = "user not found"
	case errors.Is(err, repo.ErrTokenConflict):
		resp.StatusCode = http.StatusConflict
		resp.Message = "storage conflict, retry the request"
	default:
		resp.StatusCode = http.StatusInternalServerError
		resp.Message = "internal server error"
		logging.FromContext(c.Request().Context()).Error("unhandled error", "error", err, "path", resp.Path)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(resp.StatusCode)
		return
	}
	_ = c.JSON(resp.StatusCode, resp)
}
