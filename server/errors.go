package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sonnes/lekhak/core"
	"github.com/sonnes/lekhak/service"
	"github.com/sonnes/lekhak/store"
)

type errorBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := status(err)
	message := http.StatusText(code)
	detail := err.Error()

	var he *echo.HTTPError
	if errors.As(err, &he) {
		detail = fmt.Sprint(he.Message)
	}
	if code >= http.StatusInternalServerError {
		message = "Internal Server Error"
		s.Logger.Error("request failed", "method", c.Request().Method, "path", c.Path(), "err", err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, errorBody{Success: false, Message: message, Error: detail})
	}
	if err != nil {
		s.Logger.Error("failed to write error response", "err", err)
	}
}

// status maps an error to its HTTP status code. Legacy clients saw 500 for
// every failure; here only unclassified errors do. Missing documents get
// 404, bad input 400, a disabled upload backend 501 and a provider timeout
// 503. Every 5xx body still carries "Internal Server Error" as its message,
// so clients that match on the message keep working.
func status(err error) int {
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		return he.Code
	case errors.Is(err, core.ErrDocumentNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidRequest), errors.Is(err, store.ErrInvalidSessionID):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUploadDisabled):
		return http.StatusNotImplemented
	case core.IsRetryable(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
