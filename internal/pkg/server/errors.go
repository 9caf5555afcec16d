package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

var (
	// ErrInvalidView is returned when a request names an unknown dashboard view.
	ErrInvalidView = errors.New("invalid view")

	// ErrInvalidParameter is returned when a query parameter cannot be used to compute a view.
	ErrInvalidParameter = errors.New("invalid parameter")
)

// ErrorResponse is the JSON body sent back on errors.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func badRequest(err error) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
}

// errorHandler renders every error as a JSON [ErrorResponse].
func (s *Server) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	resp := ErrorResponse{
		Code:    http.StatusInternalServerError,
		Message: http.StatusText(http.StatusInternalServerError),
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		resp.Code = he.Code
		if msg, ok := he.Message.(string); ok {
			resp.Message = msg
		} else {
			resp.Message = http.StatusText(he.Code)
		}
	}

	if resp.Code >= http.StatusInternalServerError {
		s.l.Error("request failed", slog.String("uri", c.Request().RequestURI), slog.String("error", err.Error()))
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(resp.Code)
	} else {
		err = c.JSON(resp.Code, resp)
	}

	if err != nil {
		s.l.Error("writing error response", slog.String("error", err.Error()))
	}
}
