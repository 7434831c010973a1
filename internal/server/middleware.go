package server

import (
	"net/http"

	"nodestack/internal/errors"
	"nodestack/internal/logger"

	"github.com/labstack/echo/v4"
)

// ErrorHandler is the custom error handler for the server. StackError
// values keep their code and status; everything else becomes a generic
// internal error.
func ErrorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	var body interface{} = ErrorResponse{Error: "Internal server error"}

	// Domain errors that know their taxonomy mapping, like a dependency
	// cycle, serialize through it instead of as a generic 500
	if conv, ok := err.(interface{ ToStackError() *errors.StackError }); ok {
		err = conv.ToStackError()
	}

	switch e := err.(type) {
	case *errors.StackError:
		code = e.GetHTTPStatus()
		body = errors.HTTPErrorResponse{
			Error: errors.ErrorInfo{
				Code:    e.Code,
				Message: e.Message,
				Details: e.Details,
			},
			Context: e.Context,
		}
	case *echo.HTTPError:
		code = e.Code
		if msg, ok := e.Message.(string); ok {
			body = ErrorResponse{Error: msg}
		} else {
			body = e.Message
		}
	}

	logger.GetLogger(c).WithFields(logger.Fields{
		"status": code,
		"error":  err.Error(),
	}).Error("Request error")

	if !c.Response().Committed {
		if c.Request().Method == http.MethodHead {
			c.NoContent(code)
		} else {
			c.JSON(code, body)
		}
	}
}
